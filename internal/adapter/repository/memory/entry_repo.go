package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create appends an entry inside tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	c := *entry
	st.entries = append(st.entries, &c)
	return nil
}

// GetByRequest lists the entries written for a request.
func (r *EntryRepository) GetByRequest(ctx context.Context, requestID string) ([]*domain.Entry, error) {
	out := []*domain.Entry{}
	r.store.read(func(st *state) {
		for _, e := range st.entries {
			if e.RequestID == requestID {
				c := *e
				out = append(out, &c)
			}
		}
	})
	return out, nil
}

// GetByInvestor lists the entries of an investor, newest first.
func (r *EntryRepository) GetByInvestor(ctx context.Context, investorID string, limit, offset int) ([]*domain.Entry, error) {
	out := []*domain.Entry{}
	r.store.read(func(st *state) {
		for i := len(st.entries) - 1; i >= 0; i-- {
			if e := st.entries[i]; e.InvestorID == investorID {
				c := *e
				out = append(out, &c)
			}
		}
	})
	return paginate(out, limit, offset), nil
}

// SumByInvestor sums signed entry amounts per investor.
func (r *EntryRepository) SumByInvestor(ctx context.Context) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	r.store.read(func(st *state) {
		for _, e := range st.entries {
			sums[e.InvestorID] = sums[e.InvestorID].Add(e.Amount)
		}
	})
	return sums, nil
}
