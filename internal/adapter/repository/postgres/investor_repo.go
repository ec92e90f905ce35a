package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const investorColumns = `id, name, email, balance, kyc_status, version, created_at, updated_at`

// InvestorRepository implements usecase.InvestorRepository.
type InvestorRepository struct {
	db DBTX
}

// NewInvestorRepository creates a new InvestorRepository.
func NewInvestorRepository(db DBTX) *InvestorRepository {
	return &InvestorRepository{db: db}
}

// Create creates a new investor.
func (r *InvestorRepository) Create(ctx context.Context, investor *domain.Investor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO investors (`+investorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		investor.ID,
		investor.Name,
		investor.Email,
		investor.Balance,
		string(investor.KYCStatus),
		investor.Version,
		investor.CreatedAt,
		investor.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateInvestor
	}
	return err
}

// GetByID retrieves an investor by ID.
func (r *InvestorRepository) GetByID(ctx context.Context, id string) (*domain.Investor, error) {
	return scanInvestor(r.db.QueryRow(ctx, `SELECT `+investorColumns+` FROM investors WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves an investor by ID with a FOR UPDATE lock.
func (r *InvestorRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Investor, error) {
	return scanInvestor(txDB(tx).QueryRow(ctx, `SELECT `+investorColumns+` FROM investors WHERE id = $1 FOR UPDATE`, id))
}

// UpdateBalance stores the balance and version written by the ledger.
func (r *InvestorRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	tag, err := txDB(tx).Exec(ctx, `
		UPDATE investors SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1`,
		id, balance, version, updatedAt,
	)
	return affected(tag, err, domain.ErrInvestorNotFound)
}

// UpdateKYCStatus stores a KYC verdict.
func (r *InvestorRepository) UpdateKYCStatus(ctx context.Context, id string, status domain.KYCStatus, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE investors SET kyc_status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), updatedAt,
	)
	return affected(tag, err, domain.ErrInvestorNotFound)
}

// List lists investors with pagination.
func (r *InvestorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Investor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+investorColumns+` FROM investors
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investors := make([]*domain.Investor, 0)
	for rows.Next() {
		investor, err := scanInvestor(rows)
		if err != nil {
			return nil, err
		}
		investors = append(investors, investor)
	}

	return investors, rows.Err()
}

func scanInvestor(row rowScanner) (*domain.Investor, error) {
	var (
		investor domain.Investor
		kyc      string
	)
	err := row.Scan(
		&investor.ID,
		&investor.Name,
		&investor.Email,
		&investor.Balance,
		&kyc,
		&investor.Version,
		&investor.CreatedAt,
		&investor.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrInvestorNotFound)
	}
	investor.KYCStatus = domain.KYCStatus(kyc)
	return &investor, nil
}
