// Package store provides the shared state behind the search coordinator:
// a TTL cache of search results and fixed-window rate counters. Two
// implementations exist, an in-process map for single-node runs and tests,
// and Redis for anything shared.
package store

import (
	"context"
	"time"

	"github.com/quorumai/quorum/internal/domain"
)

// Store is the coordinator's view of shared state. All methods are safe for
// concurrent use.
type Store interface {
	// GetSearch returns the cached result for key, or ok=false on miss.
	// Expired entries are misses.
	GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool, error)

	// SetSearch caches a result under key for ttl.
	SetSearch(ctx context.Context, key string, result *domain.SearchResult, ttl time.Duration) error

	// IncrWindow charges one call against userID's current fixed window and
	// returns the new count.
	IncrWindow(ctx context.Context, userID string, window time.Duration) (int64, error)

	// CountWindow returns userID's count in the current fixed window without
	// charging.
	CountWindow(ctx context.Context, userID string, window time.Duration) (int64, error)

	// Close releases any underlying resources.
	Close() error
}

// windowBucket returns the fixed-window bucket index for now. All counters
// in the same window share a bucket, so the window resets on the boundary
// rather than sliding.
func windowBucket(now time.Time, window time.Duration) int64 {
	return now.UnixNano() / int64(window)
}
