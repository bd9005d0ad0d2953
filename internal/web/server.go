// Package web serves generated posters over HTTP so a remote media server can
// download them.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"
)

// Server represents the poster server
type Server struct {
	fs         afero.Fs
	posterDir  string
	prefix     string
	router     *chi.Mux
	httpServer *http.Server
	log        *slog.Logger
}

// Config configures the poster server.
type Config struct {
	Host      string
	Port      int
	PosterDir string
	Prefix    string   // only files with this name prefix are served
	Fs        afero.Fs // defaults to the OS file system
}

// NewServer creates a new poster server
func NewServer(cfg Config) *Server {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	r := chi.NewRouter()

	s := &Server{
		fs:        cfg.Fs,
		posterDir: cfg.PosterDir,
		prefix:    cfg.Prefix,
		router:    r,
		log:       slog.Default().With("component", "web"),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(time.Minute))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info("starting poster server", "addr", s.httpServer.Addr, "dir", s.posterDir)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down poster server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
