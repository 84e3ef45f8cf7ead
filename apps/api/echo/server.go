package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/core/user"
)

type (
	// ServerDeps holds the dependencies of the Server.
	ServerDeps struct {
		dig.In

		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        user.ServiceInterface
		CourseSvc      course.ServiceInterface
		CourseInfoSvc  courseinfo.ServiceInterface
		EnrollmentSvc  enrollment.ServiceInterface
		CertificateSvc certificate.ServiceInterface
		ConfigSvc      configmodel.ServiceInterface
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	g := s.app.Group("/api")
	jwt := s.auth.middleware(false)
	optionalJWT := s.auth.middleware(true)

	registerUserAPI(g, jwt, s.auth, s.deps.Validate)
	registerCourseAPI(g, jwt, optionalJWT, s.auth, s.deps)
	registerEnrollmentAPI(g, jwt, s.auth, s.deps)
	registerCertificateAPI(g, jwt, s.auth, s.deps)
	registerConfigAPI(g, jwt, s.auth, s.deps)
}

// Start starts the HTTP server; errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors returns the channel receiving server errors.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal returns the channel receiving shutdown signals.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// Close forcefully stops the server.
func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
