package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const entryColumns = `id, investor_id, request_id, amount, previous_balance, current_balance, version, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new entry within a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	_, err := txDB(tx).Exec(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.InvestorID,
		entry.RequestID,
		entry.Amount,
		entry.PreviousBalance,
		entry.CurrentBalance,
		entry.Version,
		entry.CreatedAt,
	)
	return err
}

// GetByRequest retrieves entries written for a request.
func (r *EntryRepository) GetByRequest(ctx context.Context, requestID string) ([]*domain.Entry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE request_id = $1
		ORDER BY created_at, id`,
		requestID,
	)
}

// GetByInvestor retrieves the entries of an investor, newest first.
func (r *EntryRepository) GetByInvestor(ctx context.Context, investorID string, limit, offset int) ([]*domain.Entry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE investor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		investorID, limit, offset,
	)
}

// SumByInvestor sums signed entry amounts per investor.
func (r *EntryRepository) SumByInvestor(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT investor_id, SUM(amount) FROM entries GROUP BY investor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSums(rows)
}

func (r *EntryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var entry domain.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.InvestorID,
			&entry.RequestID,
			&entry.Amount,
			&entry.PreviousBalance,
			&entry.CurrentBalance,
			&entry.Version,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
