package driven

import (
	"context"
	"time"
)

// Cache is a key-value store with per-entry expiry.
// Get returns domain.ErrCacheMiss for absent or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
