package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COHORT SNAPSHOT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements analytics.SnapshotRepository for PostgreSQL.
type SnapshotRepository struct {
	conn *Connection
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// SaveSnapshot stores a snapshot.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot analytics.CohortSnapshot) error {
	query := `
		INSERT INTO cohort_snapshots (
			id, taken_at, total_students, graded,
			mean_grade, median_grade, std_grade, min_grade, max_grade,
			distribution, at_risk_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	distJSON, err := json.Marshal(distributionToMap(snapshot.Distribution))
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		snapshot.ID,
		snapshot.TakenAt,
		snapshot.TotalStudents,
		snapshot.Graded,
		snapshot.Stats.Mean.Ptr(),
		snapshot.Stats.Median.Ptr(),
		snapshot.Stats.Std.Ptr(),
		snapshot.Stats.Min.Ptr(),
		snapshot.Stats.Max.Ptr(),
		distJSON,
		snapshot.AtRiskCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context) (*analytics.CohortSnapshot, error) {
	query := `
		SELECT id, taken_at, total_students, graded,
			   mean_grade, median_grade, std_grade, min_grade, max_grade,
			   distribution, at_risk_count
		FROM cohort_snapshots
		ORDER BY taken_at DESC
		LIMIT 1
	`

	var snap analytics.CohortSnapshot
	var mean, median, std, minGrade, maxGrade *float64
	var distJSON []byte

	err := r.conn.QueryRow(ctx, query).Scan(
		&snap.ID,
		&snap.TakenAt,
		&snap.TotalStudents,
		&snap.Graded,
		&mean,
		&median,
		&std,
		&minGrade,
		&maxGrade,
		&distJSON,
		&snap.AtRiskCount,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	snap.Stats = analytics.Summary{
		Count:  snap.Graded,
		Mean:   gradebook.ScoreFromPtr(mean),
		Median: gradebook.ScoreFromPtr(median),
		Std:    gradebook.ScoreFromPtr(std),
		Min:    gradebook.ScoreFromPtr(minGrade),
		Max:    gradebook.ScoreFromPtr(maxGrade),
	}

	var dist map[string]int
	if err := json.Unmarshal(distJSON, &dist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	snap.Distribution = distributionFromMap(dist)

	return &snap, nil
}

// PruneSnapshots deletes snapshots older than the retention window.
func (r *SnapshotRepository) PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM cohort_snapshots WHERE taken_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func distributionToMap(dist map[gradebook.Letter]int) map[string]int {
	out := make(map[string]int, len(dist))
	for letter, count := range dist {
		out[string(letter)] = count
	}
	return out
}

func distributionFromMap(dist map[string]int) map[gradebook.Letter]int {
	out := make(map[gradebook.Letter]int, len(dist))
	for letter, count := range dist {
		out[gradebook.Letter(letter)] = count
	}
	return out
}
