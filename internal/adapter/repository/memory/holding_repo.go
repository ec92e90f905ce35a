package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// HoldingRepository implements usecase.HoldingRepository.
type HoldingRepository struct {
	store *Store
}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository(store *Store) *HoldingRepository {
	return &HoldingRepository{store: store}
}

func copyHolding(h *domain.Holding) *domain.Holding {
	c := *h
	return &c
}

// Create stores a holding inside tx.
func (r *HoldingRepository) Create(ctx context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	st.holdings[holding.ID] = copyHolding(holding)
	return nil
}

// GetByID retrieves a holding by ID.
func (r *HoldingRepository) GetByID(ctx context.Context, id string) (*domain.Holding, error) {
	var out *domain.Holding
	r.store.read(func(st *state) {
		if h, ok := st.holdings[id]; ok {
			out = copyHolding(h)
		}
	})
	if out == nil {
		return nil, domain.ErrHoldingNotFound
	}
	return out, nil
}

// GetByIDForUpdate retrieves a holding inside tx.
func (r *HoldingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Holding, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	h, ok := st.holdings[id]
	if !ok {
		return nil, domain.ErrHoldingNotFound
	}
	return copyHolding(h), nil
}

// Update replaces shares and cost basis inside tx.
func (r *HoldingRepository) Update(ctx context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	if _, ok := st.holdings[holding.ID]; !ok {
		return domain.ErrHoldingNotFound
	}
	st.holdings[holding.ID] = copyHolding(holding)
	return nil
}

// Delete removes a holding inside tx.
func (r *HoldingRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	if _, ok := st.holdings[id]; !ok {
		return domain.ErrHoldingNotFound
	}
	delete(st.holdings, id)
	return nil
}

// ListByInvestor lists holdings of an investor by purchase time.
func (r *HoldingRepository) ListByInvestor(ctx context.Context, investorID string) ([]*domain.Holding, error) {
	out := []*domain.Holding{}
	r.store.read(func(st *state) {
		for _, h := range st.holdings {
			if h.InvestorID == investorID {
				out = append(out, copyHolding(h))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PurchasedAt.Before(out[j].PurchasedAt)
	})
	return out, nil
}

// SumCostBasisByProject sums cost basis per project.
func (r *HoldingRepository) SumCostBasisByProject(ctx context.Context) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	r.store.read(func(st *state) {
		for _, h := range st.holdings {
			sums[h.ProjectID] = sums[h.ProjectID].Add(h.CostBasis)
		}
	})
	return sums, nil
}
