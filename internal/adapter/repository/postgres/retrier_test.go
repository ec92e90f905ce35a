package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
)

func fastRetrier(m *metrics.Metrics) *Retrier {
	r := NewRetrier(zerolog.Nop(), m)
	r.maxRetries = 2
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = 50 * time.Millisecond
	return r
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := fastRetrier(m)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return fmt.Errorf("settle: %w", &pgconn.PgError{Code: pgErrDeadlock})
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if got := testutil.ToFloat64(m.DBRetries.WithLabelValues(pgErrDeadlock)); got != 1 {
		t.Fatalf("expected 1 recorded retry, got %v", got)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := fastRetrier(nil)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrSerializationFailure {
		t.Fatalf("expected serialization failure, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnDomainError(t *testing.T) {
	r := NewRetrier(zerolog.Nop(), nil)
	attempts := 0
	stale := domain.NewStaleRequestError("req-1", domain.ErrInsufficientBalance)

	err := r.Retry(context.Background(), func() error {
		attempts++
		return stale
	})

	if !errors.Is(err, domain.ErrStaleRequest) {
		t.Fatalf("expected stale request error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryableCode(t *testing.T) {
	if code, ok := retryableCode(&pgconn.PgError{Code: pgErrDeadlock}); !ok || code != pgErrDeadlock {
		t.Fatalf("expected deadlock error to be retryable")
	}

	if _, ok := retryableCode(&pgconn.PgError{Code: pgErrUniqueViolation}); ok {
		t.Fatalf("expected unique violation to be non-retryable")
	}

	if _, ok := retryableCode(errors.New("other")); ok {
		t.Fatalf("expected generic error to be non-retryable")
	}
}

func TestRetryableCodeTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadlock", err: &pgconn.PgError{Code: pgErrDeadlock}, want: true},
		{name: "serialization", err: &pgconn.PgError{Code: pgErrSerializationFailure}, want: true},
		{name: "lock timeout", err: fmt.Errorf("lock investor: %w", &pgconn.PgError{Code: pgErrLockNotAvailable}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgErrUniqueViolation}},
		{name: "domain error", err: domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := retryableCode(tt.err); ok != tt.want {
				t.Fatalf("expected retryable=%v for %v", tt.want, tt.err)
			}
		})
	}
}
