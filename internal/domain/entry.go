package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one balance mutation written by the ledger. Amount is signed:
// positive for credits, negative for debits.
type Entry struct {
	CreatedAt       time.Time
	ID              string
	InvestorID      string
	RequestID       string
	Amount          decimal.Decimal
	PreviousBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	Version         int64
}

// IsCredit reports whether the entry increased the balance.
func (e *Entry) IsCredit() bool {
	return e.Amount.IsPositive()
}
