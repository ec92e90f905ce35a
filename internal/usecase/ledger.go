package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
)

// Ledger is the only writer of investor balances. Every mutation runs on an
// investor row the caller has already locked inside tx and leaves an Entry.
type Ledger struct {
	investorRepo InvestorRepository
	entryRepo    EntryRepository
	idGen        IDGenerator
}

// NewLedger creates a new Ledger.
func NewLedger(investorRepo InvestorRepository, entryRepo EntryRepository, idGen IDGenerator) *Ledger {
	return &Ledger{
		investorRepo: investorRepo,
		entryRepo:    entryRepo,
		idGen:        idGen,
	}
}

// Credit increases the investor balance by amount.
func (l *Ledger) Credit(ctx context.Context, tx Transaction, investor *domain.Investor, amount decimal.Decimal, requestID string, at time.Time) (*domain.Entry, error) {
	if err := investor.ValidateCredit(amount); err != nil {
		return nil, err
	}
	return l.apply(ctx, tx, investor, amount, requestID, at)
}

// Debit decreases the investor balance by amount.
func (l *Ledger) Debit(ctx context.Context, tx Transaction, investor *domain.Investor, amount decimal.Decimal, requestID string, at time.Time) (*domain.Entry, error) {
	if err := investor.ValidateDebit(amount); err != nil {
		return nil, err
	}
	return l.apply(ctx, tx, investor, amount.Neg(), requestID, at)
}

func (l *Ledger) apply(ctx context.Context, tx Transaction, investor *domain.Investor, signed decimal.Decimal, requestID string, at time.Time) (*domain.Entry, error) {
	newBalance := investor.Balance.Add(signed)
	entry := &domain.Entry{
		ID:              l.idGen.Generate(),
		InvestorID:      investor.ID,
		RequestID:       requestID,
		Amount:          signed,
		PreviousBalance: investor.Balance,
		CurrentBalance:  newBalance,
		Version:         investor.Version + 1,
		CreatedAt:       at,
	}
	if err := l.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := l.investorRepo.UpdateBalance(ctx, tx, investor.ID, newBalance, entry.Version, at); err != nil {
		return nil, err
	}

	investor.Balance = newBalance
	investor.Version = entry.Version
	investor.UpdatedAt = at

	return entry, nil
}

// recordMutations counts committed entries.
func recordMutations(m *metrics.Metrics, entries ...*domain.Entry) {
	if m == nil {
		return
	}
	for _, e := range entries {
		direction := "credit"
		if !e.IsCredit() {
			direction = "debit"
		}
		m.BalanceMutations.WithLabelValues(direction).Inc()
		m.MutationAmount.WithLabelValues(direction).Observe(e.Amount.Abs().InexactFloat64())
	}
}

// ListEntries returns ledger history for an investor, newest first.
func (l *Ledger) ListEntries(ctx context.Context, investorID string, limit, offset int) ([]*domain.Entry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return l.entryRepo.GetByInvestor(ctx, investorID, limit, offset)
}
