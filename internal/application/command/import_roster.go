// Package command contains write operations (CQRS commands). Commands are
// responsible for changing the state of the system: importing rosters,
// recomputing grades, and managing instructor accounts.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// RecordInput is one validated student row supplied by the ingestion
// collaborator. Numeric fields are optional; present values must lie in
// [0,100]. Parsing and cleaning of raw text files happens upstream.
type RecordInput struct {
	StudentID string `json:"student_id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Section   string `json:"section"`

	Quiz1             *float64 `json:"quiz1" validate:"omitempty,gte=0,lte=100"`
	Quiz2             *float64 `json:"quiz2" validate:"omitempty,gte=0,lte=100"`
	Quiz3             *float64 `json:"quiz3" validate:"omitempty,gte=0,lte=100"`
	Quiz4             *float64 `json:"quiz4" validate:"omitempty,gte=0,lte=100"`
	Quiz5             *float64 `json:"quiz5" validate:"omitempty,gte=0,lte=100"`
	Midterm           *float64 `json:"midterm" validate:"omitempty,gte=0,lte=100"`
	Final             *float64 `json:"final" validate:"omitempty,gte=0,lte=100"`
	AttendancePercent *float64 `json:"attendance_percent" validate:"omitempty,gte=0,lte=100"`
}

// toRecord converts the input into a domain record with raw fields only.
func (in RecordInput) toRecord() gradebook.StudentRecord {
	return gradebook.StudentRecord{
		StudentID: in.StudentID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Section:   in.Section,
		Quizzes: [gradebook.NumQuizzes]gradebook.Score{
			gradebook.ScoreFromPtr(in.Quiz1),
			gradebook.ScoreFromPtr(in.Quiz2),
			gradebook.ScoreFromPtr(in.Quiz3),
			gradebook.ScoreFromPtr(in.Quiz4),
			gradebook.ScoreFromPtr(in.Quiz5),
		},
		Midterm:    gradebook.ScoreFromPtr(in.Midterm),
		Final:      gradebook.ScoreFromPtr(in.Final),
		Attendance: gradebook.ScoreFromPtr(in.AttendancePercent),
	}
}

// ImportRosterCommand imports a roster of validated student records.
type ImportRosterCommand struct {
	Records []RecordInput

	// ImportedBy identifies the instructor performing the import.
	ImportedBy string
}

// ImportRosterResult describes the outcome of an import.
type ImportRosterResult struct {
	BatchID  string `json:"batch_id"`
	Imported int    `json:"imported"`
	Sections int    `json:"sections"`
	Graded   int    `json:"graded"` // records that received a known final grade
}

// ImportRosterHandler handles ImportRosterCommand.
type ImportRosterHandler struct {
	repo      gradebook.Repository
	publisher shared.EventPublisher
	policy    gradebook.Policy
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewImportRosterHandler creates an ImportRosterHandler.
func NewImportRosterHandler(repo gradebook.Repository, publisher shared.EventPublisher, policy gradebook.Policy, logger *slog.Logger) *ImportRosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportRosterHandler{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Handle validates the roster, enriches every record under the grading
// policy, and persists raw and derived fields in one upsert.
func (h *ImportRosterHandler) Handle(ctx context.Context, cmd ImportRosterCommand) (*ImportRosterResult, error) {
	if len(cmd.Records) == 0 {
		return nil, shared.NewDomainError("gradebook", "Import", shared.ErrInvalidInput, "roster is empty")
	}

	seen := make(map[string]struct{}, len(cmd.Records))
	records := make([]gradebook.StudentRecord, 0, len(cmd.Records))
	sections := make(map[string]struct{})

	for i, in := range cmd.Records {
		if err := h.validate.Struct(in); err != nil {
			return nil, shared.WrapError("gradebook", "Import", shared.ErrValidation,
				fmt.Sprintf("record %d (%s)", i+1, in.StudentID), err)
		}
		if _, dup := seen[in.StudentID]; dup {
			return nil, shared.WrapError("gradebook", "Import", shared.ErrAlreadyExists,
				fmt.Sprintf("record %d", i+1), shared.ErrDuplicateStudentID)
		}
		seen[in.StudentID] = struct{}{}

		r := in.toRecord()
		sections[r.SectionKey()] = struct{}{}
		records = append(records, r)
	}

	enriched := gradebook.Enrich(records, h.policy)

	if err := h.repo.UpsertRecords(ctx, enriched); err != nil {
		return nil, fmt.Errorf("import roster: %w", err)
	}

	batch := gradebook.ImportBatch{
		ID:         uuid.NewString(),
		Imported:   len(enriched),
		Sections:   len(sections),
		ImportedBy: cmd.ImportedBy,
		ImportedAt: time.Now().UTC(),
	}
	if err := h.repo.RecordImportBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("import roster: record batch: %w", err)
	}

	graded := 0
	for _, r := range enriched {
		if r.Graded() {
			graded++
		}
	}

	if h.publisher != nil {
		event := shared.NewRosterImportedEvent(batch.ID, batch.Imported, batch.Sections)
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.logger.Warn("failed to publish roster imported event",
				slog.String("batch_id", batch.ID), slog.Any("error", err))
		}
	}

	h.logger.Info("roster imported",
		slog.String("batch_id", batch.ID),
		slog.Int("imported", batch.Imported),
		slog.Int("graded", graded),
		slog.Int("sections", batch.Sections))

	return &ImportRosterResult{
		BatchID:  batch.ID,
		Imported: batch.Imported,
		Sections: batch.Sections,
		Graded:   graded,
	}, nil
}
