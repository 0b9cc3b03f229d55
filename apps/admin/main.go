package main

import (
	"fmt"
	"log"
	"os"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	emailsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/email"
	logsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/logger"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := storage.OpenRepositories(conf, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		usrSvc:  user.NewService(repos.Users, emailsvc.NewConsoleService(conf, logger), conf),
		usrRepo: repos.Users,
	}
	if repos.SQL != nil {
		cli.db = repos.SQL.DB
	}

	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %v", err), err)
	}
	_ = repos.Close()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
