package memory

import (
	"context"
	"sort"

	"github.com/iho/gesledger/internal/domain"
)

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	store *Store
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(store *Store) *BankRepository {
	return &BankRepository{store: store}
}

// Create stores a bank.
func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	return r.store.write(ctx, func(st *state) error {
		c := *bank
		st.banks[bank.ID] = &c
		return nil
	})
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	var out *domain.Bank
	r.store.read(func(st *state) {
		if b, ok := st.banks[id]; ok {
			c := *b
			out = &c
		}
	})
	if out == nil {
		return nil, domain.ErrBankNotFound
	}
	return out, nil
}

// ListActive lists active banks by name.
func (r *BankRepository) ListActive(ctx context.Context) ([]*domain.Bank, error) {
	out := []*domain.Bank{}
	r.store.read(func(st *state) {
		for _, b := range st.banks {
			if b.IsActive {
				c := *b
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
