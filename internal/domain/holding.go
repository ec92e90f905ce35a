package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Holding is a single purchase of project shares. The return rate, currency
// basis and tier are resolved when the purchase settles and never change.
type Holding struct {
	ID          string
	InvestorID  string
	ProjectID   string
	Shares      int64
	CostBasis   decimal.Decimal
	ReturnRate  decimal.Decimal
	Basis       CurrencyBasis
	TierName    string
	PurchasedAt time.Time
	UpdatedAt   time.Time
}

// NewHolding builds a holding with its tier frozen from the cost basis.
func NewHolding(id, investorID, projectID string, shares int64, costBasis decimal.Decimal, tier Tier, at time.Time) (*Holding, error) {
	if shares <= 0 {
		return nil, ErrInvalidShares
	}
	if costBasis.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return &Holding{
		ID:          id,
		InvestorID:  investorID,
		ProjectID:   projectID,
		Shares:      shares,
		CostBasis:   costBasis,
		ReturnRate:  tier.Rate,
		Basis:       tier.Basis,
		TierName:    tier.Name,
		PurchasedAt: at,
		UpdatedAt:   at,
	}, nil
}

// MonthlyReturn is cost basis times the frozen rate.
func (h *Holding) MonthlyReturn() decimal.Decimal {
	return h.CostBasis.Mul(h.ReturnRate).Div(hundred)
}

// ValidateSell checks that shares can be sold from the holding.
func (h *Holding) ValidateSell(shares int64) error {
	if shares <= 0 {
		return ErrInvalidShares
	}
	if shares > h.Shares {
		return ErrInsufficientShares
	}
	return nil
}

// SellProceeds is the cost basis removed when selling shares, rounded half
// away from zero to whole TL. Selling everything removes the whole basis.
func (h *Holding) SellProceeds(shares int64) decimal.Decimal {
	if shares >= h.Shares {
		return h.CostBasis
	}
	return h.CostBasis.
		Div(decimal.NewFromInt(h.Shares)).
		Mul(decimal.NewFromInt(shares)).
		Round(0)
}

// Reduce removes shares and returns the basis taken out.
func (h *Holding) Reduce(shares int64, at time.Time) (decimal.Decimal, error) {
	if err := h.ValidateSell(shares); err != nil {
		return decimal.Zero, err
	}
	removed := h.SellProceeds(shares)
	h.Shares -= shares
	h.CostBasis = h.CostBasis.Sub(removed)
	h.UpdatedAt = at
	return removed, nil
}

// IsEmpty reports whether every share has been sold.
func (h *Holding) IsEmpty() bool {
	return h.Shares == 0
}

// PurchasedWithin reports whether the holding was bought after now minus period.
func (h *Holding) PurchasedWithin(period time.Duration, now time.Time) bool {
	return h.PurchasedAt.After(now.Add(-period))
}
