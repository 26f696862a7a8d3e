package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/academ-hub/gradebook-analytics/internal/application/command"
	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "gradebook-analytics",
		"status":  "running",
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady pings the backing services. The cache is optional
// infrastructure, so only the database gates readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Bound the probe so a hung dependency cannot stall it.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if s.deps.Database != nil {
		if err := s.deps.Database.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

type importRosterRequest struct {
	Records []command.RecordInput `json:"records"`
}

func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	var req importRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with a records array")
		return
	}

	cmd := command.ImportRosterCommand{Records: req.Records}
	if ins := instructorFromContext(r.Context()); ins != nil {
		cmd.ImportedBy = ins.Email
	}

	result, err := s.deps.ImportRoster.Handle(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.deps.Metrics.ObserveImport(result.Imported)
	writeJSON(w, http.StatusCreated, result)
}

type recomputeGradesRequest struct {
	Weights         *gradebookWeights  `json:"weights"`
	GradeScale      map[string]float64 `json:"grade_scale"`
	AtRiskThreshold *float64           `json:"at_risk_threshold"`
}

type gradebookWeights struct {
	Quizzes    float64 `json:"quizzes"`
	Midterm    float64 `json:"midterm"`
	Final      float64 `json:"final"`
	Attendance float64 `json:"attendance"`
}

// toPolicy builds a policy override from the request, starting from the
// default policy so partial overrides stay usable.
func (req recomputeGradesRequest) toPolicy() *gradebook.Policy {
	if req.Weights == nil && len(req.GradeScale) == 0 && req.AtRiskThreshold == nil {
		return nil
	}

	policy := gradebook.DefaultPolicy()
	if req.Weights != nil {
		policy.Weights = gradebook.Weights{
			Quizzes:    req.Weights.Quizzes,
			Midterm:    req.Weights.Midterm,
			Final:      req.Weights.Final,
			Attendance: req.Weights.Attendance,
		}
	}
	if len(req.GradeScale) > 0 {
		scale := make(gradebook.GradeScale, len(req.GradeScale))
		for letter, min := range req.GradeScale {
			scale[gradebook.Letter(letter)] = min
		}
		policy.Scale = scale
	}
	if req.AtRiskThreshold != nil {
		policy.AtRiskThreshold = *req.AtRiskThreshold
	}
	return &policy
}

func (s *Server) handleRecomputeGrades(w http.ResponseWriter, r *http.Request) {
	var req recomputeGradesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "policy override must be JSON")
		return
	}

	result, err := s.deps.RecomputeGrades.Handle(r.Context(), command.RecomputeGradesCommand{
		Policy: req.toPolicy(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.deps.Metrics.ObserveRecompute()
	writeJSON(w, http.StatusOK, result)
}

type createInstructorRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Admin       bool   `json:"admin"`
}

func (s *Server) handleCreateInstructor(w http.ResponseWriter, r *http.Request) {
	if err := s.authorizeInstructorCreation(r); err != nil {
		writeDomainError(w, err)
		return
	}

	var req createInstructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	result, err := s.deps.CreateInstructor.Handle(r.Context(), command.CreateInstructorCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Admin:       req.Admin,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCohortSummary(w http.ResponseWriter, r *http.Request) {
	q := query.GetCohortSummaryQuery{
		OutlierMethod: analytics.OutlierMethod(r.URL.Query().Get("method")),
	}

	dto, err := s.deps.CohortSummary.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleCohortSnapshot serves the latest snapshot persisted by the worker.
// 404 until the first rebuild job has run.
func (s *Server) handleCohortSnapshot(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.CohortSnapshot.Handle(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleSectionComparison(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.SectionComparison.Handle(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request) {
	q := query.GetTopPerformersQuery{N: s.config.TopPerformersDefault}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "n must be an integer")
			return
		}
		q.N = n
	}

	dto, err := s.deps.TopPerformers.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleAtRisk(w http.ResponseWriter, r *http.Request) {
	q := query.GetAtRiskQuery{}
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "threshold must be a number")
			return
		}
		q.Threshold = &threshold
	}

	dto, err := s.deps.AtRisk.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	q := query.GetStudentProfileQuery{
		StudentID: chi.URLParam(r, "studentID"),
	}

	dto, err := s.deps.StudentProfile.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

