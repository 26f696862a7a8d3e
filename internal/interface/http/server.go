// Package http implements the REST API of the gradebook analytics service:
// roster import, grade recompute, cohort statistics, and instructor
// management, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/academ-hub/gradebook-analytics/internal/application/command"
	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/domain/instructor"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// APIKeyHeader - header name for API key authentication.
	APIKeyHeader string

	// AdminBootstrapKey - shared secret that authorizes instructor creation
	// before any admin account exists. Empty disables the bootstrap path.
	AdminBootstrapKey string

	// TopPerformersDefault - ranking size when the request omits n.
	// Zero falls back to the query handler's default.
	TopPerformersDefault int

	// EnableMetrics - enable the Prometheus metrics endpoint.
	EnableMetrics bool

	// EnablePprof - enable pprof debug endpoints.
	EnablePprof bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		APIKeyHeader:  "X-API-Key",
		EnableMetrics: true,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies contains everything the HTTP handlers need.
type Dependencies struct {
	// Commands (CQRS write side)
	ImportRoster     *command.ImportRosterHandler
	RecomputeGrades  *command.RecomputeGradesHandler
	CreateInstructor *command.CreateInstructorHandler

	// Queries (CQRS read side)
	CohortSummary     *query.GetCohortSummaryHandler
	CohortSnapshot    *query.GetCohortSnapshotHandler
	SectionComparison *query.GetSectionComparisonHandler
	TopPerformers     *query.GetTopPerformersHandler
	AtRisk            *query.GetAtRiskHandler
	StudentProfile    *query.GetStudentProfileHandler

	// Instructor accounts, for API key authentication.
	Instructors instructor.Repository

	// Readiness checks. Nil entries are skipped.
	Database Pinger
	Cache    Pinger

	Logger  *slog.Logger
	Metrics *Metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP API server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: chi.NewRouter(),
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(s.recoverer)
	s.router.Use(s.requestLogger)
	if s.deps.Metrics != nil {
		s.router.Use(s.metricsMiddleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & status
	// ─────────────────────────────────────────────────────────────────────────
	s.router.Get("/", s.handleRoot)
	s.router.Get("/healthz", s.handleLive)
	s.router.Get("/readyz", s.handleReady)

	if s.config.EnableMetrics {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	}

	if s.config.EnablePprof {
		s.router.Mount("/debug", chimiddleware.Profiler())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - instructor authenticated
	// ─────────────────────────────────────────────────────────────────────────
	s.router.Route("/api/v1", func(r chi.Router) {
		// Instructor creation authenticates itself: an admin API key or,
		// before any account exists, the bootstrap key.
		r.Post("/instructors", s.handleCreateInstructor)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/roster/import", s.handleImportRoster)
			r.Post("/grades/recompute", s.handleRecomputeGrades)

			r.Get("/cohort/summary", s.handleCohortSummary)
			r.Get("/cohort/snapshot", s.handleCohortSnapshot)
			r.Get("/cohort/sections", s.handleSectionComparison)
			r.Get("/cohort/top", s.handleTopPerformers)
			r.Get("/cohort/at-risk", s.handleAtRisk)

			r.Get("/students/{studentID}", s.handleStudentProfile)
		})
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", slog.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// writeDomainError maps a domain error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
