package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a settlement transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultHoldingPeriod is the window in which a withdrawal triggers a recent
	// investment warning
	DefaultHoldingPeriod = 30 * 24 * time.Hour

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
