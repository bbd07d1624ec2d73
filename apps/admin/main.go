package main

import (
	"log/slog"
	"os"

	"github.com/mahmoud01140/onlineEdu/core"
	logsvc "github.com/mahmoud01140/onlineEdu/services/logger"
	"github.com/mahmoud01140/onlineEdu/storage/database"
	sqlxrepos "github.com/mahmoud01140/onlineEdu/storage/database/sqlx"
)

var logger *slog.Logger

func main() {
	conf := core.NewConfig()
	logger = slog.New(logsvc.NewColorHandler(os.Stdout, slog.LevelInfo)).With("component", "admin")

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", "error", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Error("admin", "error", err)
		os.Exit(1)
	}
}
