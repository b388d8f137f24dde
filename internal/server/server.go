// Package server exposes the revived HTTP API: build-completion
// ingestion, the restart ledger, and the configuration fields the
// external UI reads and writes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Ingestor accepts completed-build reports and runs the after-build
// restart decision for them.
type Ingestor interface {
	IngestBuild(ctx context.Context, report BuildReport) (*DecisionResponse, error)
}

// JobDirectory exposes the known jobs and their latest builds.
type JobDirectory interface {
	GetJobs(ctx context.Context) ([]JobSummary, error)
	GetJob(ctx context.Context, jobID string) (*JobSummary, error)
}

// Ledger exposes the restart ledger.
type Ledger interface {
	// GetRestarts returns recent ledger entries, optionally filtered by
	// job ID.
	GetRestarts(ctx context.Context, jobID *string, limit int) ([]RestartEntry, error)
}

// ConfigAccess exposes the system-wide restart settings for the external
// configuration UI.
type ConfigAccess interface {
	GetGlobal(ctx context.Context) (GlobalConfig, error)
	UpdateGlobal(ctx context.Context, cfg GlobalConfig) error
}

// Server is the HTTP server for the revived API.
type Server struct {
	addr     string
	ingestor Ingestor
	jobs     JobDirectory
	ledger   Ledger
	config   ConfigAccess
	logger   *slog.Logger

	srv       *http.Server
	router    *http.ServeMux
	startTime time.Time

	mu      sync.RWMutex
	started bool
}

// New creates a new Server instance.
func New(addr string, ingestor Ingestor, jobs JobDirectory, ledger Ledger, config ConfigAccess, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      addr,
		ingestor:  ingestor,
		jobs:      jobs,
		ledger:    ledger,
		config:    config,
		logger:    logger,
		startTime: time.Now(),
		router:    http.NewServeMux(),
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /api/health", s.handleHealth)
	s.router.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.router.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.router.HandleFunc("GET /api/jobs/{id}/restarts", s.handleGetJobRestarts)
	s.router.HandleFunc("GET /api/restarts", s.handleListRestarts)
	s.router.HandleFunc("POST /api/builds", s.handleBuildCompleted)
	s.router.HandleFunc("GET /api/config", s.handleGetConfig)
	s.router.HandleFunc("PUT /api/config", s.handleUpdateConfig)
}

// Start starts the HTTP server with graceful shutdown support.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.loggingMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", "reason", ctx.Err())
		return s.Stop(context.Background())
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during shutdown", "error", err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.started = false
	s.logger.Info("HTTP server stopped")
	return nil
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Uptime returns the server uptime as a string.
func (s *Server) Uptime() string {
	duration := time.Since(s.startTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
