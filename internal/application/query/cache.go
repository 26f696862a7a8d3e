// Package query contains read operations following the CQRS pattern.
// Queries never modify state - they only read and return data. Each query
// is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"
)

// ResultCache caches query results. Implementations serialize values as
// JSON; a miss is reported as an error and treated by handlers as a signal
// to recompute. A nil ResultCache disables caching.
type ResultCache interface {
	// Get loads the cached value for key into dest.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys from the cache.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key under the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache key layout for query results. Invalidation happens on roster import
// and grade recompute (see eventhandler package).
const (
	CacheKeyCohortSummaryIQR    = "query:summary:iqr"
	CacheKeyCohortSummaryZScore = "query:summary:zscore"
	CacheKeySectionComparison   = "query:sections"
	CacheKeyTopPerformersPrefix = "query:top:" // + N
	CacheKeyAtRisk              = "query:atrisk"
)

// AllCacheKeys returns the fixed cache keys used by queries. Top-performer
// keys carry a numeric suffix and are invalidated by prefix.
func AllCacheKeys() []string {
	return []string{
		CacheKeyCohortSummaryIQR,
		CacheKeyCohortSummaryZScore,
		CacheKeySectionComparison,
		CacheKeyAtRisk,
	}
}
