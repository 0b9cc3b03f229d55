package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/apps/api/echo"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	emailsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/email"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/llm"
	logsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/logger"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := storage.OpenRepositories(conf, true /* migrate */)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	fileStore, err := storage.OpenFileStore(context.Background(), conf.Storage)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(repos.Users, mailSvc, conf)
	courseSvc := course.NewService(repos.Courses)
	rubricSvc := rubric.NewService(repos.Rubrics)
	submissionSvc := submission.NewService(repos.Submissions, fileStore)
	assessmentSvc := assessment.NewService(assessment.Deps{
		Repo:        repos.Feedback,
		Completer:   llm.NewClient(conf.AI),
		Validate:    validate,
		Submissions: submissionSvc,
		Courses:     courseSvc,
		Rubrics:     rubricSvc,
		Users:       usrSvc,
		MailSvc:     mailSvc,
		Logger:      logger,
		Conf:        conf,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	if conf.AI.APIKey == "" {
		logger.Warn("AI gateway API key is not set; assessments will fail")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("ai_model").Set(conf.AI.Model)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		CourseSvc:     courseSvc,
		RubricSvc:     rubricSvc,
		SubmissionSvc: submissionSvc,
		AssessmentSvc: assessmentSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
