package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientName is reported to the server through CLIENT SETNAME.
const ClientName = "gesledger"

// NewClient parses redisURL, connects and pings. The returned client is owned
// by the caller.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = ClientName
	}

	client := redis.NewClient(opts)
	if err := Ping(client)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping returns a readiness check bound to client.
func Ping(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		return nil
	}
}
