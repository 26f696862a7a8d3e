package analytics

import (
	"context"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// CohortSnapshot is a persisted point-in-time view of the cohort summary,
// taken by the rebuild job. Snapshots back trend reporting and give the API
// a fallback when the live cache is cold.
type CohortSnapshot struct {
	ID            string
	TakenAt       time.Time
	TotalStudents int
	Graded        int
	Stats         Summary
	Distribution  map[gradebook.Letter]int
	AtRiskCount   int
}

// SnapshotRepository is the persistence contract for cohort snapshots.
type SnapshotRepository interface {
	// SaveSnapshot stores a snapshot.
	SaveSnapshot(ctx context.Context, snapshot CohortSnapshot) error

	// LatestSnapshot returns the most recent snapshot.
	// Returns shared.ErrSnapshotNotFound when none exist.
	LatestSnapshot(ctx context.Context) (*CohortSnapshot, error)

	// PruneSnapshots deletes snapshots older than the retention window and
	// returns how many were removed.
	PruneSnapshots(ctx context.Context, olderThan time.Time) (int, error)
}
