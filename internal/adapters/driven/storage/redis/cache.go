// Package redis provides a Redis-backed response cache shared between
// processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.Cache = (*Cache)(nil)

// Default configuration values.
const (
	DefaultAddr        = "localhost:6379"
	DefaultDialTimeout = 3 * time.Second
)

// Config holds configuration for the Redis cache.
type Config struct {
	// Addr is host:port of the server (default: localhost:6379).
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int

	// Prefix is prepended to every key.
	Prefix string
}

// Cache implements driven.Cache on Redis. Expiry is delegated to the
// server.
type Cache struct {
	client *goredis.Client
	prefix string
}

// NewCache connects to Redis and verifies the server answers.
func NewCache(cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: DefaultDialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return newCache(client, cfg.Prefix), nil
}

func newCache(client *goredis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get returns the value for key or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores value for ttl. A non-positive ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}
