package memory

import (
	"context"
	"sort"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// RequestRepository implements usecase.RequestRepository.
type RequestRepository struct {
	store *Store
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(store *Store) *RequestRepository {
	return &RequestRepository{store: store}
}

func copyRequest(r *domain.Request) *domain.Request {
	c := *r
	if r.Bank != nil {
		bank := *r.Bank
		c.Bank = &bank
	}
	if r.DecidedAt != nil {
		at := *r.DecidedAt
		c.DecidedAt = &at
	}
	return &c
}

// Create stores a request inside tx.
func (r *RequestRepository) Create(ctx context.Context, tx usecase.Transaction, request *domain.Request) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	st.requests[request.ID] = copyRequest(request)
	return nil
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	var out *domain.Request
	r.store.read(func(st *state) {
		if req, ok := st.requests[id]; ok {
			out = copyRequest(req)
		}
	})
	if out == nil {
		return nil, domain.ErrRequestNotFound
	}
	return out, nil
}

// GetByIDForUpdate retrieves a request inside tx.
func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Request, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	req, ok := st.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return copyRequest(req), nil
}

// UpdateDecision stores the decision fields inside tx. Only pending requests
// can be updated.
func (r *RequestRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, request *domain.Request) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	current, ok := st.requests[request.ID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if current.IsTerminal() {
		return domain.ErrRequestNotPending
	}
	st.requests[request.ID] = copyRequest(request)
	return nil
}

// List lists requests matching filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error) {
	out := []*domain.Request{}
	r.store.read(func(st *state) {
		for _, req := range st.requests {
			if filter.Matches(req) {
				out = append(out, copyRequest(req))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}
