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

// GetCohortSummaryQuery requests the cohort-wide summary.
type GetCohortSummaryQuery struct {
	// OutlierMethod selects the detection algorithm. Empty means IQR.
	OutlierMethod analytics.OutlierMethod
}

// Validate normalizes and checks the query.
func (q *GetCohortSummaryQuery) Validate() error {
	if q.OutlierMethod == "" {
		q.OutlierMethod = analytics.MethodIQR
	}
	if !q.OutlierMethod.IsValid() {
		return shared.ErrUnknownOutlierMethod
	}
	return nil
}

// CohortSummaryDTO is the cohort summary returned to reporting consumers.
type CohortSummaryDTO struct {
	TotalStudents int                      `json:"total_students"`
	Graded        int                      `json:"graded"`
	Stats         analytics.Summary        `json:"stats"`
	Distribution  map[gradebook.Letter]int `json:"distribution"`

	// Percentiles of the known final grades: keys "p25", "p50", "p75", "p90".
	Percentiles map[string]gradebook.Score `json:"percentiles"`

	Outliers      []float64               `json:"outliers"`
	OutlierMethod analytics.OutlierMethod `json:"outlier_method"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetCohortSummaryHandler handles GetCohortSummaryQuery.
type GetCohortSummaryHandler struct {
	repo   gradebook.Repository
	cache  ResultCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewGetCohortSummaryHandler creates a GetCohortSummaryHandler.
// A nil cache disables caching.
func NewGetCohortSummaryHandler(repo gradebook.Repository, cache ResultCache, ttl time.Duration, logger *slog.Logger) *GetCohortSummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetCohortSummaryHandler{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func summaryCacheKey(method analytics.OutlierMethod) string {
	if method == analytics.MethodZScore {
		return CacheKeyCohortSummaryZScore
	}
	return CacheKeyCohortSummaryIQR
}

// Handle computes (or serves from cache) the cohort summary.
func (h *GetCohortSummaryHandler) Handle(ctx context.Context, q GetCohortSummaryQuery) (*CohortSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := summaryCacheKey(q.OutlierMethod)
	if h.cache != nil {
		var cached CohortSummaryDTO
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	records, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cohort summary: %w", err)
	}

	dto := BuildCohortSummary(records, q.OutlierMethod)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, dto, h.ttl); err != nil {
			h.logger.Debug("cohort summary cache write failed", slog.Any("error", err))
		}
	}
	return dto, nil
}

// BuildCohortSummary derives the summary DTO from enriched records. Exposed
// for the rebuild job, which warms the cache with the same shape the API
// serves.
func BuildCohortSummary(records []gradebook.StudentRecord, method analytics.OutlierMethod) *CohortSummaryDTO {
	grades := analytics.KnownFinalGrades(records)

	return &CohortSummaryDTO{
		TotalStudents: len(records),
		Graded:        len(grades),
		Stats:         analytics.ComputeStats(grades),
		Distribution:  analytics.GradeDistribution(records),
		Percentiles: map[string]gradebook.Score{
			"p25": analytics.Percentile(grades, 25),
			"p50": analytics.Percentile(grades, 50),
			"p75": analytics.Percentile(grades, 75),
			"p90": analytics.Percentile(grades, 90),
		},
		Outliers:      analytics.FindOutliers(grades, method),
		OutlierMethod: method,
		GeneratedAt:   time.Now().UTC(),
	}
}
