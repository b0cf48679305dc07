// Package cache provides the short-lived page cache used by the
// leaderboard service. Cached values are derived data; any component
// may evict early and a lost entry only costs a recompute.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache is a byte-value cache with TTLs and prefix invalidation
type Cache interface {
	// Get returns the cached value, or ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL; last writer wins
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key; absent keys are not an error
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix
	DeletePrefix(ctx context.Context, prefix string) error
}
