package cache

import (
	"context"
	"time"
)

// TTLOverride wraps a backend and replaces the per-stage TTL on every Set
// with a single configured expiry. Used when the config file sets
// cache.ttl, which applies to graphs, layouts, and artifacts alike.
type TTLOverride struct {
	inner Cache
	ttl   time.Duration
}

// NewTTLOverride wraps inner so every stored entry expires after ttl.
func NewTTLOverride(inner Cache, ttl time.Duration) Cache {
	return &TTLOverride{inner: inner, ttl: ttl}
}

// Get delegates to the wrapped backend.
func (c *TTLOverride) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, key)
}

// Set stores the value with the configured TTL, ignoring the caller's.
func (c *TTLOverride) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	return c.inner.Set(ctx, key, data, c.ttl)
}

// Delete delegates to the wrapped backend.
func (c *TTLOverride) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the wrapped backend.
func (c *TTLOverride) Close() error {
	return c.inner.Close()
}

// Ensure TTLOverride implements Cache.
var _ Cache = (*TTLOverride)(nil)
