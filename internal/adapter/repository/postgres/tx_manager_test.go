package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_Commit(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := NewTxManager(mock).Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	assertExpectations(t, mock)
}

func TestTxManager_BeginError(t *testing.T) {
	mock := newMockPool(t)
	beginErr := errors.New("too many connections")
	mock.ExpectBegin().WillReturnError(beginErr)

	tx, err := NewTxManager(mock).Begin(context.Background())
	assert.ErrorIs(t, err, beginErr)
	assert.Nil(t, tx)
}

func TestTxManager_LockTimeout(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = 1500").WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectRollback()

	tx, err := NewTxManager(mock, WithLockTimeout(1500*time.Millisecond)).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	assertExpectations(t, mock)
}

func TestTxManager_LockTimeoutFailureRollsBack(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	_, err := NewTxManager(mock, WithLockTimeout(time.Second)).Begin(context.Background())
	assert.ErrorContains(t, err, "lock timeout")
	assertExpectations(t, mock)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	require.NoError(t, pool.ExpectationsWereMet())
}
