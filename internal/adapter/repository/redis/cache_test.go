package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/domain"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "fx:USD/TRY", []byte(`{"rate":"32.5"}`), time.Minute))

	val, err := cache.Get(ctx, "fx:USD/TRY")
	require.NoError(t, err)
	assert.Equal(t, `{"rate":"32.5"}`, string(val))
	assert.True(t, mr.Exists("gesledger:cache:fx:USD/TRY"))
}

func TestCacheMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "foo", []byte("bar"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "foo"))

	_, err := cache.Get(ctx, "foo")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCacheServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, err := NewCache(client).Get(context.Background(), "foo")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}
