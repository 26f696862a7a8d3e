package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// RecomputeGradesCommand re-runs the grade transformer over every stored
// record. Used after the grading policy changes; raw fields are untouched,
// derived fields are replaced wholesale.
type RecomputeGradesCommand struct {
	// Policy overrides the handler's policy when non-nil.
	Policy *gradebook.Policy
}

// RecomputeGradesResult describes the outcome of a recompute.
type RecomputeGradesResult struct {
	Records int `json:"records"`
	Graded  int `json:"graded"`
}

// RecomputeGradesHandler handles RecomputeGradesCommand.
type RecomputeGradesHandler struct {
	repo      gradebook.Repository
	publisher shared.EventPublisher
	policy    gradebook.Policy
	logger    *slog.Logger
}

// NewRecomputeGradesHandler creates a RecomputeGradesHandler.
func NewRecomputeGradesHandler(repo gradebook.Repository, publisher shared.EventPublisher, policy gradebook.Policy, logger *slog.Logger) *RecomputeGradesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeGradesHandler{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
	}
}

// Handle loads every record, recomputes the derived fields from the raw
// fields under the effective policy, and persists them.
func (h *RecomputeGradesHandler) Handle(ctx context.Context, cmd RecomputeGradesCommand) (*RecomputeGradesResult, error) {
	policy := h.policy
	if cmd.Policy != nil {
		policy = *cmd.Policy
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("recompute grades: %w", err)
	}

	records, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("recompute grades: %w", err)
	}
	if len(records) == 0 {
		return &RecomputeGradesResult{}, nil
	}

	enriched := gradebook.Enrich(records, policy)

	if err := h.repo.UpdateDerived(ctx, enriched); err != nil {
		return nil, fmt.Errorf("recompute grades: %w", err)
	}

	graded := 0
	for _, r := range enriched {
		if r.Graded() {
			graded++
		}
	}

	if h.publisher != nil {
		event := shared.NewGradesRecomputedEvent(len(enriched), graded)
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.logger.Warn("failed to publish grades recomputed event", slog.Any("error", err))
		}
	}

	h.logger.Info("grades recomputed",
		slog.Int("records", len(enriched)),
		slog.Int("graded", graded))

	return &RecomputeGradesResult{Records: len(enriched), Graded: graded}, nil
}
