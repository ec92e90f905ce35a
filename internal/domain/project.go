package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// DefaultSharePrice is the nominal price of one project share in TL.
	DefaultSharePrice = decimal.NewFromInt(25000)
	// MinSharePrice keeps whole-TL sell proceeds above zero for a single share.
	MinSharePrice = decimal.NewFromInt(1)
)

// ProjectType is the kind of renewable plant.
type ProjectType string

const (
	ProjectTypeSolar ProjectType = "GES"
	ProjectTypeWind  ProjectType = "RES"
)

// IsValid checks if the project type is known.
func (t ProjectType) IsValid() bool {
	return t == ProjectTypeSolar || t == ProjectTypeWind
}

// Project is an energy plant whose shares are sold to investors.
// FundedAmount always equals the sum of cost basis of the holdings referencing it.
type Project struct {
	ID                string
	Name              string
	Type              ProjectType
	SharePrice        decimal.Decimal
	MonthlyReturnRate decimal.Decimal
	FundingTarget     decimal.Decimal
	FundedAmount      decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks a project before it is registered.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProjectName
	}
	if !p.Type.IsValid() {
		return ErrInvalidProjectType
	}
	if p.SharePrice.LessThan(MinSharePrice) {
		return ErrInvalidSharePrice
	}
	if err := ValidateAmount(p.SharePrice); err != nil {
		return err
	}
	if err := ValidateAmount(p.FundingTarget); err != nil {
		return err
	}
	if p.MonthlyReturnRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// Cost returns the price of the given number of shares.
func (p *Project) Cost(shares int64) decimal.Decimal {
	return p.SharePrice.Mul(decimal.NewFromInt(shares))
}

// RemainingCapacity returns how much can still be funded.
func (p *Project) RemainingCapacity() decimal.Decimal {
	remaining := p.FundingTarget.Sub(p.FundedAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ValidateFunding checks that amount fits into the funding target.
func (p *Project) ValidateFunding(amount decimal.Decimal) error {
	if amount.GreaterThan(p.RemainingCapacity()) {
		return ErrFundingTargetExceeded
	}
	return nil
}
