package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const holdingColumns = `id, investor_id, project_id, shares, cost_basis, return_rate, basis, tier_name, purchased_at, updated_at`

// HoldingRepository implements usecase.HoldingRepository.
type HoldingRepository struct {
	db DBTX
}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository(db DBTX) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// Create creates a new holding within a transaction.
func (r *HoldingRepository) Create(ctx context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	_, err := txDB(tx).Exec(ctx, `
		INSERT INTO holdings (`+holdingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		holding.ID,
		holding.InvestorID,
		holding.ProjectID,
		holding.Shares,
		holding.CostBasis,
		holding.ReturnRate,
		string(holding.Basis),
		holding.TierName,
		holding.PurchasedAt,
		holding.UpdatedAt,
	)
	return err
}

// GetByID retrieves a holding by ID.
func (r *HoldingRepository) GetByID(ctx context.Context, id string) (*domain.Holding, error) {
	return scanHolding(r.db.QueryRow(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a holding by ID with a FOR UPDATE lock.
func (r *HoldingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Holding, error) {
	return scanHolding(txDB(tx).QueryRow(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE id = $1 FOR UPDATE`, id))
}

// Update stores the remaining shares and basis of a holding.
func (r *HoldingRepository) Update(ctx context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	tag, err := txDB(tx).Exec(ctx, `
		UPDATE holdings SET shares = $2, cost_basis = $3, updated_at = $4
		WHERE id = $1`,
		holding.ID, holding.Shares, holding.CostBasis, holding.UpdatedAt,
	)
	return affected(tag, err, domain.ErrHoldingNotFound)
}

// Delete removes a fully sold holding.
func (r *HoldingRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txDB(tx).Exec(ctx, `DELETE FROM holdings WHERE id = $1`, id)
	return affected(tag, err, domain.ErrHoldingNotFound)
}

// ListByInvestor lists the holdings of an investor, oldest first.
func (r *HoldingRepository) ListByInvestor(ctx context.Context, investorID string) ([]*domain.Holding, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+holdingColumns+` FROM holdings
		WHERE investor_id = $1
		ORDER BY purchased_at, id`,
		investorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := make([]*domain.Holding, 0)
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, holding)
	}

	return holdings, rows.Err()
}

// SumCostBasisByProject sums cost basis per project.
func (r *HoldingRepository) SumCostBasisByProject(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT project_id, SUM(cost_basis) FROM holdings GROUP BY project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSums(rows)
}

func scanHolding(row rowScanner) (*domain.Holding, error) {
	var (
		holding domain.Holding
		basis   string
	)
	err := row.Scan(
		&holding.ID,
		&holding.InvestorID,
		&holding.ProjectID,
		&holding.Shares,
		&holding.CostBasis,
		&holding.ReturnRate,
		&basis,
		&holding.TierName,
		&holding.PurchasedAt,
		&holding.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrHoldingNotFound)
	}
	holding.Basis = domain.CurrencyBasis(basis)
	return &holding, nil
}
