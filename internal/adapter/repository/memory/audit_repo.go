package memory

import (
	"context"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// Create appends an audit log.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.store.write(ctx, func(st *state) error {
		c := *log
		st.audit = append(st.audit, &c)
		return nil
	})
}

// CreateTx appends an audit log inside tx.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	c := *log
	st.audit = append(st.audit, &c)
	return nil
}

// List returns audit logs matching filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	out := []*domain.AuditLog{}
	r.store.read(func(st *state) {
		for i := len(st.audit) - 1; i >= 0; i-- {
			l := st.audit[i]
			if filter.UserID != "" && l.UserID != filter.UserID {
				continue
			}
			if filter.Action != "" && l.Action != filter.Action {
				continue
			}
			if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
				continue
			}
			c := *l
			out = append(out, &c)
		}
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}
