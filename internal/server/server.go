// Package server serves the DropPad page over HTTP. Each browser page gets a
// session with its own controller; the embedded page forwards DOM events as
// triggers and re-renders from the returned view.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/yildizm/DropPad/internal/config"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/logger"
	"github.com/yildizm/DropPad/internal/server/web"
)

// AccessTokenHeader carries the API token when one is configured
const AccessTokenHeader = "access-token"

const bodyLimit = "64K"

// Server is the HTTP surface
type Server struct {
	cfg      config.ServerConfig
	version  string
	log      *logger.Logger
	echo     *echo.Echo
	sessions *SessionManager
	http     *http.Server
}

// Option configures a Server
type Option func(*ManagerOptions)

// WithScheduler replaces the real timers of every session
func WithScheduler(s controller.Scheduler) Option {
	return func(m *ManagerOptions) {
		m.Scheduler = s
	}
}

// WithClock replaces the clock used for session expiry
func WithClock(now func() time.Time) Option {
	return func(m *ManagerOptions) {
		m.Now = now
	}
}

// New builds the echo instance and registers every route
func New(cfg *config.Config, version string, log *logger.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg:     cfg.Server,
		version: version,
		log:     log,
	}

	managerOpts := ManagerOptions{
		MaxSessions: cfg.Server.MaxSessions,
		TTL:         cfg.Server.SessionTTL,
		Timings: controller.Timings{
			Reveal: cfg.Analysis.RevealDelay,
			Reset:  cfg.Analysis.ResetDelay,
		},
		Labels: controller.Labels{
			Idle: cfg.Analysis.Labels.Idle,
			Busy: cfg.Analysis.Labels.Busy,
			Done: cfg.Analysis.Labels.Done,
		},
		Logger: log,
	}
	for _, opt := range opts {
		opt(&managerOpts)
	}
	s.sessions = NewSessionManager(managerOpts)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("panic serving %s: %v\n%s", c.Request().URL.Path, err, stack)
			return err
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !s.cfg.RequestLogging || c.Path() == "/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.InfoWithFields("%s %s %d", []logger.Field{logger.Duration(v.Latency)}, v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, AccessTokenHeader},
	}))

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1", s.requireAccessToken)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.GET("/sessions/:id/view.msgpack", s.handleGetViewMsgpack)
	api.POST("/sessions/:id/triggers", s.handleTrigger)
	api.GET("/sessions/:id/events", s.handleEvents)
	api.DELETE("/sessions/:id", s.handleDeleteSession)

	if err := web.RegisterStaticRoutes(e); err != nil {
		return nil, fmt.Errorf("failed to register static routes: %w", err)
	}

	s.echo = e
	s.http = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// requireAccessToken rejects API calls without the configured token.
// EventSource can not set headers, so the token is also read from the query.
func (s *Server) requireAccessToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.AccessToken == "" || c.Request().Method == http.MethodOptions {
			return next(c)
		}
		token := c.Request().Header.Get(AccessTokenHeader)
		if token == "" {
			token = c.QueryParam(AccessTokenHeader)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AccessToken)) != 1 {
			return NewUnauthorizedError("missing or invalid access token")
		}
		return next(c)
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Sessions returns the session manager
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start listens until ctx is cancelled or the listener fails. Cancelling ctx
// shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	if s.cfg.CleanupInterval > 0 {
		go s.sessions.RunCleanup(cleanupCtx, s.cfg.CleanupInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.StartServer(s.http)
	}()

	select {
	case err := <-errCh:
		s.sessions.CloseAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every session and stops the listener. Open event streams
// end when their session closes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// URL returns the address a browser should open
func (s *Server) URL() string {
	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("http://%s:%d/", host, s.cfg.Port)
}
