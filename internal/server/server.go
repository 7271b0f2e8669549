// Package server exposes search sessions, curated shelves and the personal
// library over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/book-search-client/internal/auth"
	"github.com/Sternrassler/book-search-client/pkg/browse"
	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/Sternrassler/book-search-client/pkg/metrics"
	"github.com/Sternrassler/book-search-client/pkg/shelf"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// SessionTTL is how long an idle search session is kept.
	SessionTTL time.Duration
	// MaxSessions bounds the number of live search sessions.
	MaxSessions int
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// Engine is the template for every session's engine.
	Engine engine.Config
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		SessionTTL:      30 * time.Minute,
		MaxSessions:     1000,
		ShutdownTimeout: 5 * time.Second,
		Engine:          engine.DefaultConfig(),
	}
}

// Deps are the collaborators the server is wired to. Searcher and Shelves
// are required; Library, Resolver and Verifier enable /api/library; Redis
// persists session navigation state.
type Deps struct {
	Searcher engine.Searcher
	Shelves  *browse.Service
	Library  shelf.Store
	Resolver *shelf.Resolver
	Verifier *auth.Verifier
	Redis    *redis.Client
}

// Server is the bookscout HTTP API.
type Server struct {
	config   Config
	deps     Deps
	sessions *sessionRegistry
	handler  http.Handler
	logger   zerolog.Logger
}

// New creates a server.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if deps.Shelves == nil {
		return nil, fmt.Errorf("shelves service is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session_ttl must be > 0 (got %s)", cfg.SessionTTL)
	}
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("max_sessions must be > 0 (got %d)", cfg.MaxSessions)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logging.NewLogger("server"),
	}
	s.sessions = newSessionRegistry(cfg, deps.Searcher, deps.Redis, s.logger)
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/shelves", s.handleShelves)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /api/sessions/{id}/query", s.handleQuery)
	mux.HandleFunc("POST /api/sessions/{id}/page", s.handlePage)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	if s.deps.Library != nil && s.deps.Verifier != nil {
		mux.Handle("POST /api/library", s.deps.Verifier.Middleware(http.HandlerFunc(s.handleAddToLibrary)))
		mux.Handle("GET /api/library", s.deps.Verifier.Middleware(http.HandlerFunc(s.handleListLibrary)))
		mux.Handle("DELETE /api/library/{id}", s.deps.Verifier.Middleware(http.HandlerFunc(s.handleRemoveFromLibrary)))
	} else {
		mux.HandleFunc("/api/library", s.handleLibraryDisabled)
		mux.HandleFunc("/api/library/", s.handleLibraryDisabled)
	}

	return s.logRequests(mux)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully and closes every session.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		s.Close()
		if err != nil {
			s.logger.Error().Err(err).Msg("Server shutdown failed")
			return err
		}
		s.logger.Info().Msg("Server stopped")
		return nil
	case err := <-serverErr:
		s.Close()
		return err
	}
}

// Close ends every search session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
