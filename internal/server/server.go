// Package server exposes the workspace registry over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// Registry is the subset of *factory.Factory the server drives.
type Registry interface {
	Create(ctx context.Context, kind workspace.Kind, opts ...workspace.Option) (workspace.Workspace, error)
	Get(id string) (workspace.Workspace, error)
	Recent() (workspace.Workspace, error)
	Close(ctx context.Context, id string)
	TeardownAll(ctx context.Context) []error
	Exec(ctx context.Context, id string, command []string, opts workspace.ExecOptions) (*workspace.ExecResult, error)
	List() []workspace.Workspace
	Len() int
	Supported() []workspace.Kind
}

// Config holds API server configuration
type Config struct {
	Listen string
	// MaxExecTimeout caps per-request exec timeouts (default: 10m).
	MaxExecTimeout time.Duration
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	registry  Registry
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(config Config, registry Registry, logger *slog.Logger) *Server {
	if config.MaxExecTimeout <= 0 {
		config.MaxExecTimeout = 10 * time.Minute
	}
	return &Server{
		config:    config,
		registry:  registry,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.config.MaxExecTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/workspaces", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Delete("/", s.handleTeardownAll)
		r.Get("/recent", s.handleRecent)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleClose)
		r.Post("/{id}/exec", s.handleExec)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
