package main

import (
	"github.com/pressly/goose/v3"

	"github.com/mahmoud01140/onlineEdu/storage/database"
)

var gooseRunFunc = goose.Run // mockable

// migrate runs a goose command against the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir, args[1:]...)
}
