package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// GetAtRiskQuery requests the at-risk student list.
type GetAtRiskQuery struct {
	// Threshold overrides the policy's at-risk threshold when non-nil.
	Threshold *float64
}

// AtRiskStudentDTO is one at-risk row.
type AtRiskStudentDTO struct {
	StudentID   string           `json:"student_id"`
	Name        string           `json:"name"`
	Section     string           `json:"section"`
	FinalGrade  gradebook.Score  `json:"final_grade"`
	LetterGrade gradebook.Letter `json:"letter_grade"`
	Improvement gradebook.Score  `json:"improvement"`
}

// AtRiskDTO lists at-risk students in roster order.
type AtRiskDTO struct {
	Threshold   float64            `json:"threshold"`
	Students    []AtRiskStudentDTO `json:"students"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// GetAtRiskHandler handles GetAtRiskQuery.
type GetAtRiskHandler struct {
	repo   gradebook.Repository
	policy gradebook.Policy
	logger *slog.Logger
}

// NewGetAtRiskHandler creates a GetAtRiskHandler.
func NewGetAtRiskHandler(repo gradebook.Repository, policy gradebook.Policy, logger *slog.Logger) *GetAtRiskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetAtRiskHandler{repo: repo, policy: policy, logger: logger}
}

// Handle returns students whose known final grade is strictly below the
// threshold. Students without a known final grade are never at risk; the
// instructor sees them via the N/A bucket of the distribution instead.
func (h *GetAtRiskHandler) Handle(ctx context.Context, q GetAtRiskQuery) (*AtRiskDTO, error) {
	threshold := h.policy.AtRiskThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}

	records, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("at risk: %w", err)
	}

	atRisk := analytics.IdentifyAtRisk(records, threshold)

	students := make([]AtRiskStudentDTO, 0, len(atRisk))
	for _, r := range atRisk {
		students = append(students, AtRiskStudentDTO{
			StudentID:   r.StudentID,
			Name:        r.FullName(),
			Section:     r.SectionKey(),
			FinalGrade:  r.FinalGrade,
			LetterGrade: r.LetterGrade,
			Improvement: r.Improvement,
		})
	}

	return &AtRiskDTO{
		Threshold:   threshold,
		Students:    students,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
