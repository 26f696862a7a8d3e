package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// CohortSnapshotDTO is the most recent persisted cohort snapshot, written by
// the background rebuild job. Unlike the live summary it is stable between
// rebuilds, which makes it the anchor for trend reporting.
type CohortSnapshotDTO struct {
	ID            string                   `json:"id"`
	TakenAt       time.Time                `json:"taken_at"`
	TotalStudents int                      `json:"total_students"`
	Graded        int                      `json:"graded"`
	Stats         analytics.Summary        `json:"stats"`
	Distribution  map[gradebook.Letter]int `json:"distribution"`
	AtRiskCount   int                      `json:"at_risk_count"`
}

// GetCohortSnapshotHandler serves the latest persisted snapshot.
type GetCohortSnapshotHandler struct {
	repo   analytics.SnapshotRepository
	logger *slog.Logger
}

// NewGetCohortSnapshotHandler creates a GetCohortSnapshotHandler.
func NewGetCohortSnapshotHandler(repo analytics.SnapshotRepository, logger *slog.Logger) *GetCohortSnapshotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetCohortSnapshotHandler{repo: repo, logger: logger}
}

// Handle returns the most recent snapshot.
// Returns shared.ErrSnapshotNotFound before the first rebuild has run.
func (h *GetCohortSnapshotHandler) Handle(ctx context.Context) (*CohortSnapshotDTO, error) {
	snap, err := h.repo.LatestSnapshot(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("cohort snapshot: %w", err)
	}

	return &CohortSnapshotDTO{
		ID:            snap.ID,
		TakenAt:       snap.TakenAt,
		TotalStudents: snap.TotalStudents,
		Graded:        snap.Graded,
		Stats:         snap.Stats,
		Distribution:  snap.Distribution,
		AtRiskCount:   snap.AtRiskCount,
	}, nil
}
