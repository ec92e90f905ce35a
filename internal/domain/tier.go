package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyBasis is the currency a holding's return is indexed to.
type CurrencyBasis string

const (
	CurrencyBasisTL         CurrencyBasis = "TL"
	CurrencyBasisUSDIndexed CurrencyBasis = "USD_INDEXED"
)

// IsValid checks if the basis is known.
func (b CurrencyBasis) IsValid() bool {
	return b == CurrencyBasisTL || b == CurrencyBasisUSDIndexed
}

// Tier is one band of the return rate table. A tier applies from MinAmount
// (inclusive) up to the next tier's MinAmount.
type Tier struct {
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"min_amount"`
	Rate      decimal.Decimal `json:"rate"`
	Basis     CurrencyBasis   `json:"basis"`
}

// TierTable maps an invested amount to a monthly rate and currency basis.
type TierTable struct {
	tiers []Tier
}

// NewTierTable builds a table from tiers ordered by ascending MinAmount.
// The first tier must start at zero so every positive amount resolves.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: at least one tier is required", ErrInvalidTierTable)
	}
	if !tiers[0].MinAmount.IsZero() {
		return nil, fmt.Errorf("%w: first tier must start at 0", ErrInvalidTierTable)
	}
	for i, t := range tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidTierTable, i)
		}
		if t.Rate.IsNegative() {
			return nil, fmt.Errorf("%w: tier %s has a negative rate", ErrInvalidTierTable, t.Name)
		}
		if !t.Basis.IsValid() {
			return nil, fmt.Errorf("%w: tier %s has unknown basis %q", ErrInvalidTierTable, t.Name, t.Basis)
		}
		if i > 0 && !t.MinAmount.GreaterThan(tiers[i-1].MinAmount) {
			return nil, fmt.Errorf("%w: thresholds must be strictly ascending", ErrInvalidTierTable)
		}
	}

	table := &TierTable{tiers: make([]Tier, len(tiers))}
	copy(table.tiers, tiers)
	return table, nil
}

// DefaultTiers is the production table: 1-4 shares earn 7% in TL, 5-9 shares
// 7% USD indexed and 10 or more shares 8% USD indexed.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "base", MinAmount: decimal.Zero, Rate: decimal.NewFromInt(7), Basis: CurrencyBasisTL},
		{Name: "mid", MinAmount: decimal.NewFromInt(125000), Rate: decimal.NewFromInt(7), Basis: CurrencyBasisUSDIndexed},
		{Name: "top", MinAmount: decimal.NewFromInt(250000), Rate: decimal.NewFromInt(8), Basis: CurrencyBasisUSDIndexed},
	}
}

// DefaultTierTable returns the table built from DefaultTiers.
func DefaultTierTable() *TierTable {
	table, err := NewTierTable(DefaultTiers())
	if err != nil {
		panic(err)
	}
	return table
}

// Resolve returns the tier for amount. Amounts on a threshold belong to the
// higher tier. Non-positive amounts resolve to the first tier.
func (t *TierTable) Resolve(amount decimal.Decimal) Tier {
	resolved := t.tiers[0]
	for _, tier := range t.tiers[1:] {
		if amount.LessThan(tier.MinAmount) {
			break
		}
		resolved = tier
	}
	return resolved
}

// ResolveShares resolves the tier for a share count at the given price.
func (t *TierTable) ResolveShares(shares int64, sharePrice decimal.Decimal) Tier {
	return t.Resolve(sharePrice.Mul(decimal.NewFromInt(shares)))
}

// Tiers returns a copy of the table rows.
func (t *TierTable) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}
