package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
)

type (
	// Deps are the collaborators the handlers call into.
	Deps struct {
		Gate         *auth.Gate
		Codec        *auth.TokenCodec
		Carrier      *auth.SessionCarrier
		UserSvc      *user.Service
		AcademicsSvc *academics.Service

		DisableReqLogs bool
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal

		gate         *auth.Gate
		codec        *auth.TokenCodec
		carrier      *auth.SessionCarrier
		usrSvc       *user.Service
		academicsSvc *academics.Service

		nowFunc func() time.Time // mockable
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps) (*Server, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "loading templates")
	}

	s := &Server{
		conf:         conf,
		logger:       logger,
		app:          echo.New(),
		errors:       make(chan error, 1),
		shutdown:     make(chan os.Signal, 1),
		gate:         deps.Gate,
		codec:        deps.Codec,
		carrier:      deps.Carrier,
		usrSvc:       deps.UserSvc,
		academicsSvc: deps.AcademicsSvc,
		nowFunc:      time.Now,
	}

	app := s.app
	app.HideBanner = true
	app.Debug = conf.Debug
	app.Renderer = renderer
	app.HTTPErrorHandler = newAppHTTPErrorHandler(logger, conf)
	app.Server.ReadTimeout = conf.Server.ReadTimeout
	app.Server.WriteTimeout = conf.Server.WriteTimeout

	app.Pre(middleware.RemoveTrailingSlash())
	app.Use(middleware.RequestID())
	if !deps.DisableReqLogs {
		app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !conf.Debug {
		app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	app.GET("/", s.home)
	registerAuthRoutes(s)
	registerStudentRoutes(s)
	registerTeacherRoutes(s)
	registerAdminRoutes(s)
	registerAPIRoutes(s)

	return s, nil
}

// Start listens on the configured address until Shutdown; failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// render fills the layout data shared by every page, then renders name.
func (s *Server) render(ctx echo.Context, code int, name string, v *view) error {
	v.AppName = s.conf.AppName
	if id, ok := getContextIdentity(ctx); ok {
		v.User = id
	}
	return ctx.Render(code, name, v)
}

// home sends authenticated users to their dashboard and everyone else to the login page.
func (s *Server) home(ctx echo.Context) error {
	dec, err := s.gate.Authenticate(ctx.Request().Context(), ctx.Request())
	if err != nil {
		return errors.Wrap(err, "authenticating request")
	}
	if !dec.OK() {
		return ctx.Redirect(http.StatusFound, loginPath)
	}
	return ctx.Redirect(http.StatusFound, dec.Identity.Role.LandingPath())
}
