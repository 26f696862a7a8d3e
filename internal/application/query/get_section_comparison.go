package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// SectionStatsDTO is the per-section summary row.
type SectionStatsDTO struct {
	Section  string            `json:"section"`
	Students int               `json:"students"`
	Stats    analytics.Summary `json:"stats"`
}

// SectionComparisonDTO compares performance across sections. Rows are
// ordered by section name so output is deterministic.
type SectionComparisonDTO struct {
	Sections    []SectionStatsDTO `json:"sections"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// GetSectionComparisonHandler computes per-section statistics.
type GetSectionComparisonHandler struct {
	repo   gradebook.Repository
	cache  ResultCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewGetSectionComparisonHandler creates a GetSectionComparisonHandler.
func NewGetSectionComparisonHandler(repo gradebook.Repository, cache ResultCache, ttl time.Duration, logger *slog.Logger) *GetSectionComparisonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetSectionComparisonHandler{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Handle groups records by section and summarizes each group's known
// final grades.
func (h *GetSectionComparisonHandler) Handle(ctx context.Context) (*SectionComparisonDTO, error) {
	if h.cache != nil {
		var cached SectionComparisonDTO
		if err := h.cache.Get(ctx, CacheKeySectionComparison, &cached); err == nil {
			return &cached, nil
		}
	}

	records, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("section comparison: %w", err)
	}

	stats := analytics.SectionComparison(records)

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.SectionKey()]++
	}

	rows := make([]SectionStatsDTO, 0, len(stats))
	for section, summary := range stats {
		rows = append(rows, SectionStatsDTO{
			Section:  section,
			Students: counts[section],
			Stats:    summary,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Section < rows[j].Section })

	dto := &SectionComparisonDTO{Sections: rows, GeneratedAt: time.Now().UTC()}

	if h.cache != nil {
		if err := h.cache.Set(ctx, CacheKeySectionComparison, dto, h.ttl); err != nil {
			h.logger.Debug("section comparison cache write failed", slog.Any("error", err))
		}
	}
	return dto, nil
}
