package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// InvestorRepository implements usecase.InvestorRepository.
type InvestorRepository struct {
	store *Store
}

// NewInvestorRepository creates a new InvestorRepository.
func NewInvestorRepository(store *Store) *InvestorRepository {
	return &InvestorRepository{store: store}
}

func copyInvestor(i *domain.Investor) *domain.Investor {
	c := *i
	return &c
}

// Create stores a new investor.
func (r *InvestorRepository) Create(ctx context.Context, investor *domain.Investor) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.investors[investor.ID]; ok {
			return domain.ErrDuplicateInvestor
		}
		for _, existing := range st.investors {
			if existing.Email == investor.Email {
				return domain.ErrDuplicateInvestor
			}
		}
		st.investors[investor.ID] = copyInvestor(investor)
		return nil
	})
}

// GetByID retrieves an investor by ID.
func (r *InvestorRepository) GetByID(ctx context.Context, id string) (*domain.Investor, error) {
	var out *domain.Investor
	r.store.read(func(st *state) {
		if inv, ok := st.investors[id]; ok {
			out = copyInvestor(inv)
		}
	})
	if out == nil {
		return nil, domain.ErrInvestorNotFound
	}
	return out, nil
}

// GetByIDForUpdate retrieves an investor inside tx.
func (r *InvestorRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Investor, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	inv, ok := st.investors[id]
	if !ok {
		return nil, domain.ErrInvestorNotFound
	}
	return copyInvestor(inv), nil
}

// UpdateBalance sets the balance and version inside tx.
func (r *InvestorRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	inv, ok := st.investors[id]
	if !ok {
		return domain.ErrInvestorNotFound
	}
	next := copyInvestor(inv)
	next.Balance = balance
	next.Version = version
	next.UpdatedAt = updatedAt
	st.investors[id] = next
	return nil
}

// UpdateKYCStatus sets the KYC status.
func (r *InvestorRepository) UpdateKYCStatus(ctx context.Context, id string, status domain.KYCStatus, updatedAt time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		inv, ok := st.investors[id]
		if !ok {
			return domain.ErrInvestorNotFound
		}
		next := copyInvestor(inv)
		next.KYCStatus = status
		next.UpdatedAt = updatedAt
		st.investors[id] = next
		return nil
	})
}

// List lists investors ordered by creation time.
func (r *InvestorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Investor, error) {
	var out []*domain.Investor
	r.store.read(func(st *state) {
		for _, inv := range st.investors {
			out = append(out, copyInvestor(inv))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
