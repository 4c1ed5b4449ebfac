package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.Cache = (*Cache)(nil)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-memory implementation of driven.Cache.
// Expired entries are dropped lazily on read.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the value for key or domain.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, domain.ErrCacheMiss
	}
	return slices.Clone(e.value), nil
}

// Set stores value for ttl. A non-positive ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
