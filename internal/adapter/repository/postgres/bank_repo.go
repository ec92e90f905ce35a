package postgres

import (
	"context"

	"github.com/iho/gesledger/internal/domain"
)

const bankColumns = `id, name, iban, account_holder, is_active, created_at`

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	db DBTX
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(db DBTX) *BankRepository {
	return &BankRepository{db: db}
}

// Create registers a bank.
func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO banks (`+bankColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bank.ID, bank.Name, bank.IBAN, bank.AccountHolder, bank.IsActive, bank.CreatedAt,
	)
	return err
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	return scanBank(r.db.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id))
}

// ListActive lists active banks by name.
func (r *BankRepository) ListActive(ctx context.Context) ([]*domain.Bank, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bankColumns+` FROM banks WHERE is_active ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make([]*domain.Bank, 0)
	for rows.Next() {
		bank, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}

	return banks, rows.Err()
}

func scanBank(row rowScanner) (*domain.Bank, error) {
	var bank domain.Bank
	err := row.Scan(&bank.ID, &bank.Name, &bank.IBAN, &bank.AccountHolder, &bank.IsActive, &bank.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrBankNotFound)
	}
	return &bank, nil
}
