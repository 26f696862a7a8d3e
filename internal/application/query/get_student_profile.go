package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// GetStudentProfileQuery requests one student's performance profile.
type GetStudentProfileQuery struct {
	StudentID string
}

// Validate validates the query.
func (q GetStudentProfileQuery) Validate() error {
	if q.StudentID == "" {
		return shared.ErrEmptyStudentID
	}
	return nil
}

// StudentProfileDTO is one student's raw and derived performance data plus
// their standing within the cohort.
type StudentProfileDTO struct {
	Record gradebook.StudentRecord `json:"record"`

	// PercentileRank is the share of graded students whose final grade is
	// strictly below this student's, in percent. Unknown when the student
	// has no final grade.
	PercentileRank gradebook.Score `json:"percentile_rank"`
}

// GetStudentProfileHandler handles GetStudentProfileQuery.
type GetStudentProfileHandler struct {
	repo   gradebook.Repository
	logger *slog.Logger
}

// NewGetStudentProfileHandler creates a GetStudentProfileHandler.
func NewGetStudentProfileHandler(repo gradebook.Repository, logger *slog.Logger) *GetStudentProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStudentProfileHandler{repo: repo, logger: logger}
}

// Handle loads the record and computes the student's percentile standing.
func (h *GetStudentProfileHandler) Handle(ctx context.Context, q GetStudentProfileQuery) (*StudentProfileDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	record, err := h.repo.GetByStudentID(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("student profile: %w", err)
	}

	dto := &StudentProfileDTO{Record: *record}

	if grade, ok := record.FinalGrade.Get(); ok {
		records, err := h.repo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("student profile: %w", err)
		}
		grades := analytics.KnownFinalGrades(records)
		below := 0
		for _, g := range grades {
			if g < grade {
				below++
			}
		}
		if len(grades) > 0 {
			dto.PercentileRank = gradebook.NewScore(float64(below) / float64(len(grades)) * 100)
		}
	}

	return dto, nil
}
