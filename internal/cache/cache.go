// Package cache defines the TTL key-value cache contract used on the redirect
// hot path and its Redis implementation. The cache is an optimization, never a
// dependency: callers must treat any cache failure as a miss and fall through
// to the link store.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the contract over a TTL key-value store.
type Cache interface {
	// Get retrieves the raw value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
