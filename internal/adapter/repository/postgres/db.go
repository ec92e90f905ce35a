package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func txDB(tx usecase.Transaction) DBTX {
	return tx.(*Tx).PgxTx()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// notFound maps pgx.ErrNoRows to target.
func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

// affected returns target when tag reports no changed rows.
func affected(tag pgconn.CommandTag, err, target error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return target
	}
	return nil
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSums reads (id, sum) rows.
func scanSums(rows pgx.Rows) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			id  string
			sum decimal.Decimal
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}
