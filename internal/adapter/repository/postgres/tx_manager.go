package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gesledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager. Settlement runs at READ
// COMMITTED and serializes on investor, project and request row locks.
type TxManager struct {
	pool        pgxPool
	lockTimeout time.Duration
}

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithLockTimeout bounds how long a transaction waits on a row lock before
// failing with lock_not_available. Zero keeps the server default.
func WithLockTimeout(d time.Duration) TxOption {
	return func(m *TxManager) { m.lockTimeout = d }
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool pgxPool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction. Rolling back a finished transaction
// is a no-op so callers can defer it unconditionally.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
