// Package memory implements the repository interfaces in process memory. It
// backs STORAGE_DRIVER=memory and the use case tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// ErrTxDone is returned when a committed or rolled back transaction is used.
var ErrTxDone = errors.New("memory: transaction has already been committed or rolled back")

// ErrForeignTx is returned when a transaction from another store is passed in.
var ErrForeignTx = errors.New("memory: transaction does not belong to this store")

// state is a copy-on-write snapshot. Stored pointers are never mutated after
// insertion; writers replace them with fresh copies.
type state struct {
	investors map[string]*domain.Investor
	projects  map[string]*domain.Project
	holdings  map[string]*domain.Holding
	requests  map[string]*domain.Request
	banks     map[string]*domain.Bank
	entries   []*domain.Entry
	outbox    []*domain.OutboxEvent
	audit     []*domain.AuditLog
}

func newState() *state {
	return &state{
		investors: make(map[string]*domain.Investor),
		projects:  make(map[string]*domain.Project),
		holdings:  make(map[string]*domain.Holding),
		requests:  make(map[string]*domain.Request),
		banks:     make(map[string]*domain.Bank),
	}
}

func (s *state) clone() *state {
	c := &state{
		investors: make(map[string]*domain.Investor, len(s.investors)),
		projects:  make(map[string]*domain.Project, len(s.projects)),
		holdings:  make(map[string]*domain.Holding, len(s.holdings)),
		requests:  make(map[string]*domain.Request, len(s.requests)),
		banks:     make(map[string]*domain.Bank, len(s.banks)),
		entries:   append([]*domain.Entry(nil), s.entries...),
		outbox:    append([]*domain.OutboxEvent(nil), s.outbox...),
		audit:     append([]*domain.AuditLog(nil), s.audit...),
	}
	for k, v := range s.investors {
		c.investors[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.holdings {
		c.holdings[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.banks {
		c.banks[k] = v
	}
	return c
}

// Store holds committed state. Transactions and writes are serialized by a
// single writer slot, which gives every transaction the isolation a
// SELECT ... FOR UPDATE on every touched row would.
type Store struct {
	mu     sync.RWMutex
	data   *state
	writer chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data:   newState(),
		writer: make(chan struct{}, 1),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

// read runs fn against committed state.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write runs fn against committed state outside of a transaction.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	next := s.current().clone()
	if err := fn(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = next
	s.mu.Unlock()
	return nil
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for the writer slot and starts a transaction on a private copy
// of the committed state.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, data: m.store.current().clone()}, nil
}

// Tx is a memory transaction.
type Tx struct {
	store *Store
	data  *state
	done  bool
}

// Commit publishes the transaction's state.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()
	t.store.release()
	return nil
}

// Rollback discards the transaction's state.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.release()
	return nil
}

func (s *Store) txState(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t.data, nil
}

// IDGenerator yields sequential IDs with a prefix; deterministic for tests.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewIDGenerator creates a sequential ID generator.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *IDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s%08d", g.prefix, g.next)
}
