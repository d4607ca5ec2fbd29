package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
	logsvc "github.com/trezcool/onestop/services/logger"
	"github.com/trezcool/onestop/storage/database"
	sqlxrepos "github.com/trezcool/onestop/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	if conf.Database.Engine == "memory" {
		logger.Fatal("the admin CLI needs a postgres database (DB_ENGINE=postgres)")
	}

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db: db.DB,
		usrSvc: user.NewService(
			sqlxrepos.NewUserRepository(db),
			auth.NewPasswordHasherFromConfig(conf),
			validate,
			translator,
		),
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
