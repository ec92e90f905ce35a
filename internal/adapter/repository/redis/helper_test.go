package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisinfra "github.com/iho/gesledger/internal/infrastructure/redis"
)

// newTestRedisClient connects the production client constructor to an
// in-process miniredis.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisinfra.NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)

	return client, mr
}
