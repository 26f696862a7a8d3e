package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/academ-hub/gradebook-analytics/internal/domain/instructor"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

type contextKey string

const contextKeyInstructor contextKey = "instructor"

// instructorFromContext returns the authenticated instructor, if any.
func instructorFromContext(ctx context.Context) *instructor.Instructor {
	ins, _ := ctx.Value(contextKeyInstructor).(*instructor.Instructor)
	return ins
}

// ══════════════════════════════════════════════════════════════════════════════
// OBSERVABILITY MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// requestLogger logs every request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("ip", r.RemoteAddr),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

// recoverer converts panics into 500 responses.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					slog.Any("error", rec),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency per route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// authenticate requires a valid instructor API key on every request.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ins, err := s.authenticateRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing API key")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyInstructor, ins)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateRequest resolves the "<id>.<secret>" API key carried in the
// configured header to an instructor account.
func (s *Server) authenticateRequest(r *http.Request) (*instructor.Instructor, error) {
	key := r.Header.Get(s.config.APIKeyHeader)
	if key == "" {
		return nil, shared.ErrInvalidAPIKey
	}

	keyID, secret, err := instructor.SplitAPIKey(key)
	if err != nil {
		return nil, err
	}

	ins, err := s.deps.Instructors.GetByAPIKeyID(r.Context(), keyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidAPIKey
		}
		return nil, err
	}

	if !ins.VerifySecret(secret) {
		return nil, shared.ErrInvalidAPIKey
	}

	return ins, nil
}

// authorizeInstructorCreation allows an admin API key, or the bootstrap key
// while no instructor accounts exist yet.
func (s *Server) authorizeInstructorCreation(r *http.Request) error {
	if ins, err := s.authenticateRequest(r); err == nil {
		if ins.Admin {
			return nil
		}
		return shared.NewDomainError("instructor", "Create", shared.ErrForbidden, "admin account required")
	}

	if s.config.AdminBootstrapKey == "" {
		return shared.ErrInvalidAPIKey
	}

	count, err := s.deps.Instructors.Count(r.Context())
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("instructor", "Create", shared.ErrForbidden,
			"bootstrap key is only valid before the first account exists")
	}

	if r.Header.Get(s.config.APIKeyHeader) != s.config.AdminBootstrapKey {
		return shared.ErrInvalidAPIKey
	}
	return nil
}
