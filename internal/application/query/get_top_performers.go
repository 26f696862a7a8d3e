package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// DefaultTopN is the default ranking size.
const DefaultTopN = 10

// MaxTopN bounds the ranking size accepted from the API.
const MaxTopN = 100

// GetTopPerformersQuery requests the top-N ranking by final grade.
type GetTopPerformersQuery struct {
	N int
}

// Validate normalizes and checks the query.
func (q *GetTopPerformersQuery) Validate() error {
	if q.N == 0 {
		q.N = DefaultTopN
	}
	if q.N < 0 {
		return shared.NewDomainError("analytics", "TopPerformers", shared.ErrInvalidInput, "n cannot be negative")
	}
	if q.N > MaxTopN {
		q.N = MaxTopN
	}
	return nil
}

// PerformerDTO is one ranking entry. Rank is 1-based; equal grades keep
// their original roster order.
type PerformerDTO struct {
	Rank        int              `json:"rank"`
	StudentID   string           `json:"student_id"`
	Name        string           `json:"name"`
	Section     string           `json:"section"`
	FinalGrade  gradebook.Score  `json:"final_grade"`
	LetterGrade gradebook.Letter `json:"letter_grade"`
}

// TopPerformersDTO is the ranking response.
type TopPerformersDTO struct {
	Performers  []PerformerDTO `json:"performers"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// GetTopPerformersHandler handles GetTopPerformersQuery.
type GetTopPerformersHandler struct {
	repo   gradebook.Repository
	cache  ResultCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewGetTopPerformersHandler creates a GetTopPerformersHandler.
func NewGetTopPerformersHandler(repo gradebook.Repository, cache ResultCache, ttl time.Duration, logger *slog.Logger) *GetTopPerformersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetTopPerformersHandler{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Handle returns the top-N graded records, descending by final grade.
//
// The ranking is computed in the domain and cached as a whole. A Redis
// sorted set would reorder equal grades lexicographically by member, which
// breaks the documented tie rule (original roster order), so the cache holds
// the serialized result instead.
func (h *GetTopPerformersHandler) Handle(ctx context.Context, q GetTopPerformersQuery) (*TopPerformersDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := CacheKeyTopPerformersPrefix + strconv.Itoa(q.N)
	if h.cache != nil {
		var cached TopPerformersDTO
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	records, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("top performers: %w", err)
	}

	top := analytics.TopPerformers(records, q.N)

	performers := make([]PerformerDTO, 0, len(top))
	for i, r := range top {
		performers = append(performers, PerformerDTO{
			Rank:        i + 1,
			StudentID:   r.StudentID,
			Name:        r.FullName(),
			Section:     r.SectionKey(),
			FinalGrade:  r.FinalGrade,
			LetterGrade: r.LetterGrade,
		})
	}

	dto := &TopPerformersDTO{Performers: performers, GeneratedAt: time.Now().UTC()}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, dto, h.ttl); err != nil {
			h.logger.Debug("top performers cache write failed", slog.Any("error", err))
		}
	}
	return dto, nil
}
