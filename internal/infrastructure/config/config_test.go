package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	assert.Equal(t, config.StoragePostgres, cfg.StorageDriver)
	assert.True(t, cfg.SharePrice.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, 30*24*time.Hour, cfg.HoldingPeriod)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("FX_FALLBACK_RATE", "32.45")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.FXFallbackRate.Equal(decimal.RequireFromString("32.45")))
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "auth without secret", env: map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
		{name: "zero share price", env: map[string]string{"SHARE_PRICE": "0"}},
		{name: "descending tiers", env: map[string]string{"TIER_MID_THRESHOLD": "300000"}},
		{name: "bad decimal", env: map[string]string{"TIER_TOP_RATE": "eight"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestTierTableFromConfig(t *testing.T) {
	t.Setenv("TIER_TOP_RATE", "9")

	cfg, err := config.Load()
	require.NoError(t, err)

	table, err := cfg.TierTable()
	require.NoError(t, err)

	top := table.ResolveShares(10, cfg.SharePrice)
	assert.Equal(t, "top", top.Name)
	assert.True(t, top.Rate.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, domain.CurrencyBasisUSDIndexed, top.Basis)

	base := table.ResolveShares(4, cfg.SharePrice)
	assert.Equal(t, domain.CurrencyBasisTL, base.Basis)
}
