package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/trezcool/onestop/apps/api/di/dig"
	echoapi "github.com/trezcool/onestop/apps/api/echo"
	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

// startWithDig runs the API until it fails or receives SIGINT/SIGTERM.
func startWithDig() {
	c := dig_container.New()

	var runErr error
	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		dbCloserParam dig_container.DBCloserParam,
		validate *validator.Validate,
		translator ut.Translator,
		server *echoapi.Server,
	) {
		logger.Info(fmt.Sprintf("%s starting: build %q, env %q, db %q", conf.AppName, conf.Build, conf.Env, conf.Database.Engine))

		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)

		defer func() {
			if err := dbCloserParam.Close(); err != nil {
				dbLoggerParam.Logger.Error("closing the database", err)
			}
			logger.Info(conf.AppName + " stopped")
		}()

		publishVars(conf)
		go serveDebug(conf.Server.DebugHost, logger)

		go func() {
			logger.Info("listening on " + conf.Server.Address)
			server.Start()
		}()

		if runErr = awaitShutdown(server, conf.Server.ShutdownTimeout, logger); runErr != nil {
			logger.Error("server stopped", runErr)
		}
	}))
	if runErr != nil {
		os.Exit(1)
	}
}

// publishVars adds the running build to /debug/vars.
func publishVars(conf *core.Config) {
	started := time.Now().UTC()
	expvar.Publish("app", expvar.Func(func() interface{} {
		return map[string]string{
			"build":   conf.Build,
			"env":     conf.Env,
			"db":      conf.Database.Engine,
			"started": started.Format(time.RFC3339),
		}
	}))
}

// serveDebug exposes /debug/pprof and /debug/vars, registered on the default mux by their imports.
func serveDebug(addr string, logger core.Logger) {
	if err := http.ListenAndServe(addr, http.DefaultServeMux); err != nil {
		logger.Warn("debug server closed", err)
	}
}

// awaitShutdown blocks until the server fails or a signal arrives, then drains in-flight requests
// for up to timeout before closing every connection.
func awaitShutdown(server *echoapi.Server, timeout time.Duration, logger core.Logger) error {
	select {
	case err := <-server.Errors():
		return err
	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v received, draining requests for up to %v", sig, timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed, closing connections", err)
		return server.Close()
	}
	return nil
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
