package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gesledger/internal/domain"
)

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client redis.Cmdable
	prefix string
}

// NewCache creates a new Cache.
func NewCache(client redis.Cmdable) *Cache {
	return &Cache{
		client: client,
		prefix: "gesledger:cache:",
	}
}

// Get retrieves a value by key. A missing key yields domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value with TTL. A zero TTL keeps the key forever.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
