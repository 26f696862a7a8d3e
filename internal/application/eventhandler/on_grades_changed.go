// Package eventhandler contains subscribers that react to domain events.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// CacheInvalidator drops cached query results whenever the underlying
// gradebook data changes, so the next read recomputes from storage.
type CacheInvalidator struct {
	cache  query.ResultCache
	logger *slog.Logger
}

// NewCacheInvalidator creates a CacheInvalidator.
func NewCacheInvalidator(cache query.ResultCache, logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{cache: cache, logger: logger}
}

// Register subscribes the invalidator to the events that change grades.
func (h *CacheInvalidator) Register(bus shared.EventBus) {
	bus.Subscribe(shared.EventRosterImported, h.Handle)
	bus.Subscribe(shared.EventGradesRecomputed, h.Handle)
}

// Handle implements shared.EventHandler.
func (h *CacheInvalidator) Handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}
	ctx := context.Background()

	if err := h.cache.Delete(ctx, query.AllCacheKeys()...); err != nil {
		h.logger.Warn("cache invalidation failed",
			slog.String("event", string(event.EventType())), slog.Any("error", err))
		return err
	}
	if err := h.cache.DeletePrefix(ctx, query.CacheKeyTopPerformersPrefix); err != nil {
		h.logger.Warn("ranking cache invalidation failed",
			slog.String("event", string(event.EventType())), slog.Any("error", err))
		return err
	}

	h.logger.Debug("query caches invalidated", slog.String("event", string(event.EventType())))
	return nil
}
