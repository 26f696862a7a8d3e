// Package jobs contains the scheduled jobs of the gradebook analytics worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD SUMMARIES JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildSummariesJob recomputes the cohort summaries, warms the query cache,
// and persists a snapshot for trend reporting. The warm cache keeps summary
// reads fast even right after an invalidation.
type RebuildSummariesJob struct {
	recordRepo   gradebook.Repository
	snapshotRepo analytics.SnapshotRepository
	cache        query.ResultCache
	publisher    shared.EventPublisher
	policy       gradebook.Policy
	logger       *slog.Logger

	config RebuildSummariesConfig
}

// RebuildSummariesConfig contains configuration for the rebuild job.
type RebuildSummariesConfig struct {
	// CacheTTL is the TTL for warmed summary cache entries.
	CacheTTL time.Duration

	// SnapshotRetention is how long cohort snapshots are kept.
	// Zero disables pruning.
	SnapshotRetention time.Duration

	// Timeout is the maximum duration for one rebuild run.
	Timeout time.Duration
}

// DefaultRebuildSummariesConfig returns sensible defaults.
func DefaultRebuildSummariesConfig() RebuildSummariesConfig {
	return RebuildSummariesConfig{
		CacheTTL:          15 * time.Minute,
		SnapshotRetention: 90 * 24 * time.Hour,
		Timeout:           2 * time.Minute,
	}
}

// NewRebuildSummariesJob creates a new rebuild summaries job.
// A nil cache skips cache warming.
func NewRebuildSummariesJob(
	recordRepo gradebook.Repository,
	snapshotRepo analytics.SnapshotRepository,
	cache query.ResultCache,
	publisher shared.EventPublisher,
	policy gradebook.Policy,
	logger *slog.Logger,
	config RebuildSummariesConfig,
) *RebuildSummariesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildSummariesJob{
		recordRepo:   recordRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		publisher:    publisher,
		policy:       policy,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *RebuildSummariesJob) Name() string {
	return "rebuild_summaries"
}

// Description returns a human-readable description.
func (j *RebuildSummariesJob) Description() string {
	return "Recomputes cohort summaries, warms the query cache, and persists a snapshot"
}

// Run executes the rebuild job.
func (j *RebuildSummariesJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	records, err := j.recordRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	summaries := map[string]*query.CohortSummaryDTO{
		query.CacheKeyCohortSummaryIQR:    query.BuildCohortSummary(records, analytics.MethodIQR),
		query.CacheKeyCohortSummaryZScore: query.BuildCohortSummary(records, analytics.MethodZScore),
	}

	if j.cache != nil {
		for key, dto := range summaries {
			if err := j.cache.Set(ctx, key, dto, j.config.CacheTTL); err != nil {
				j.logger.Warn("failed to warm summary cache", "key", key, "error", err)
			}
		}
	}

	base := summaries[query.CacheKeyCohortSummaryIQR]
	atRisk := analytics.IdentifyAtRisk(records, j.policy.AtRiskThreshold)

	snapshot := analytics.CohortSnapshot{
		ID:            uuid.NewString(),
		TakenAt:       time.Now().UTC(),
		TotalStudents: base.TotalStudents,
		Graded:        base.Graded,
		Stats:         base.Stats,
		Distribution:  base.Distribution,
		AtRiskCount:   len(atRisk),
	}

	if err := j.snapshotRepo.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if j.config.SnapshotRetention > 0 {
		threshold := time.Now().UTC().Add(-j.config.SnapshotRetention)
		pruned, err := j.snapshotRepo.PruneSnapshots(ctx, threshold)
		if err != nil {
			j.logger.Warn("failed to prune old snapshots", "error", err)
		} else if pruned > 0 {
			j.logger.Info("pruned old snapshots", "count", pruned)
		}
	}

	if j.publisher != nil {
		event := shared.NewSummaryRebuiltEvent(snapshot.ID, snapshot.TotalStudents)
		if err := j.publisher.Publish(ctx, event); err != nil {
			j.logger.Warn("failed to publish summary rebuilt event", "error", err)
		}
	}

	j.logger.Info("cohort summaries rebuilt",
		"snapshot_id", snapshot.ID,
		"total_students", snapshot.TotalStudents,
		"graded", snapshot.Graded,
		"at_risk", snapshot.AtRiskCount,
	)

	return nil
}
