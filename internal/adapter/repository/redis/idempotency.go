package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessingMarker is stored under a key while the first request holding it
// is still running.
const ProcessingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.Cmdable
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "gesledger:idempotency:",
	}
}

// CheckAndSet claims key with SETNX. When the key is already claimed it
// returns true together with the stored value, which is ProcessingMarker
// until the first request calls Update.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := response
	if value == nil {
		value = []byte(ProcessingMarker)
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("idempotency claim %s: %w", key, err)
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return true, []byte(ProcessingMarker), nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("idempotency read %s: %w", key, err)
	}
	return true, existing, nil
}

// Update replaces the marker with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release drops a claim so the client can retry after a failed request.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
