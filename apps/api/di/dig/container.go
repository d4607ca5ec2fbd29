package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/onestop/apps/api/echo"
	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
	logsvc "github.com/trezcool/onestop/services/logger"
	"github.com/trezcool/onestop/storage/database"
	inmemdb "github.com/trezcool/onestop/storage/database/inmem"
	sqlxrepos "github.com/trezcool/onestop/storage/database/sqlx"
)

// EngineMemory keeps every record in process memory; nothing survives a restart.
const EngineMemory = "memory"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DBCloserParam is what main needs to release the store on shutdown.
type DBCloserParam struct {
	dig.In
	Close func() error `name:"dbCloser"`
}

// Stores are the repositories of the configured engine.
type Stores struct {
	dig.Out
	Users     user.Repository
	Academics academics.Repository
	Close     func() error `name:"dbCloser"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) Stores {
	if conf.Database.Engine == EngineMemory {
		loggerParam.Logger.Warn("using the in-memory store: data is lost on restart")
		db := inmemdb.NewDB()
		return Stores{
			Users:     inmemdb.NewUserRepository(db),
			Academics: inmemdb.NewAcademicsRepository(db),
			Close:     func() error { return nil },
		}
	}

	ctx := context.Background()
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Stores{
		Users:     sqlxrepos.NewUserRepository(db),
		Academics: sqlxrepos.NewAcademicsRepository(db),
		Close:     db.Close,
	}
}

func newUserFinder(repo user.Repository) academics.UserFinder { return repo }

func newIdentityStore(repo user.Repository) auth.IdentityStore { return repo }

func newServer(
	conf *core.Config,
	logger core.Logger,
	gate *auth.Gate,
	codec *auth.TokenCodec,
	carrier *auth.SessionCarrier,
	usrSvc *user.Service,
	academicsSvc *academics.Service,
) (*echoapi.Server, error) {
	return echoapi.NewServer(conf, logger, &echoapi.Deps{
		Gate:         gate,
		Codec:        codec,
		Carrier:      carrier,
		UserSvc:      usrSvc,
		AcademicsSvc: academicsSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newUserFinder))
	must(c.Provide(newIdentityStore))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(auth.NewPasswordHasherFromConfig, dig.As(new(user.PasswordHasher))))
	must(c.Provide(auth.NewTokenCodecFromConfig))
	must(c.Provide(auth.NewSessionCarrierFromConfig))
	must(c.Provide(auth.NewGate))
	must(c.Provide(user.NewService))
	must(c.Provide(academics.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
