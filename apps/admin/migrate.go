package main

import (
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/database"
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return database.Migrate(cli.db, args[0], args[1:]...)
}
