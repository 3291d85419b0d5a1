package cache

import (
	"context"
	"time"
)

// NoopCache is a Cache that stores nothing: every Get is a miss and writes are
// discarded. Used by the CLI commands, which talk straight to the store.
type NoopCache struct{}

// NewNoopCache returns a NoopCache.
func NewNoopCache() *NoopCache { return &NoopCache{} }

func (*NoopCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (*NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (*NoopCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}
