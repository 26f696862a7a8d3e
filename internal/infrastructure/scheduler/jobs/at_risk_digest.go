package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AT-RISK DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// AtRiskDigestJob periodically lists students whose final grade is below the
// policy threshold and publishes an event instructors can subscribe to.
type AtRiskDigestJob struct {
	recordRepo gradebook.Repository
	publisher  shared.EventPublisher
	policy     gradebook.Policy
	logger     *slog.Logger
}

// NewAtRiskDigestJob creates a new at-risk digest job.
func NewAtRiskDigestJob(
	recordRepo gradebook.Repository,
	publisher shared.EventPublisher,
	policy gradebook.Policy,
	logger *slog.Logger,
) *AtRiskDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AtRiskDigestJob{
		recordRepo: recordRepo,
		publisher:  publisher,
		policy:     policy,
		logger:     logger,
	}
}

// Name returns the job name.
func (j *AtRiskDigestJob) Name() string {
	return "at_risk_digest"
}

// Description returns a human-readable description.
func (j *AtRiskDigestJob) Description() string {
	return "Flags students whose final grade is below the at-risk threshold"
}

// Run executes the digest.
func (j *AtRiskDigestJob) Run(ctx context.Context) error {
	records, err := j.recordRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	threshold := j.policy.AtRiskThreshold
	atRisk := analytics.IdentifyAtRisk(records, threshold)

	if len(atRisk) == 0 {
		j.logger.Info("at-risk digest: no students below threshold", "threshold", threshold)
		return nil
	}

	studentIDs := make([]string, 0, len(atRisk))
	for _, r := range atRisk {
		studentIDs = append(studentIDs, r.StudentID)
		j.logger.Warn("student at risk",
			"student_id", r.StudentID,
			"name", r.FullName(),
			"section", r.SectionKey(),
			"final_grade", r.FinalGrade.String(),
			"letter", string(r.LetterGrade),
		)
	}

	if j.publisher != nil {
		event := shared.NewAtRiskFlaggedEvent(studentIDs, threshold)
		if err := j.publisher.Publish(ctx, event); err != nil {
			j.logger.Warn("failed to publish at-risk event", "error", err)
		}
	}

	j.logger.Info("at-risk digest completed",
		"threshold", threshold,
		"flagged", len(studentIDs),
		"total", len(records),
	)

	return nil
}
