package memory

import (
	"context"
	"time"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create appends an event inside tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	c := *event
	st.outbox = append(st.outbox, &c)
	return nil
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	out := []*domain.OutboxEvent{}
	r.store.read(func(st *state) {
		for _, e := range st.outbox {
			if e.Published {
				continue
			}
			c := *e
			out = append(out, &c)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

// MarkPublished flags an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		for i, e := range st.outbox {
			if e.ID == id {
				c := *e
				c.Published = true
				c.PublishedAt = &publishedAt
				st.outbox[i] = &c
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

// DeletePublished drops events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		kept := st.outbox[:0:0]
		for _, e := range st.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
		return nil
	})
}
