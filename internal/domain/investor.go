package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// KYCStatus is the identity verification state reported by the KYC collaborator.
type KYCStatus string

const (
	KYCStatusNone     KYCStatus = "none"
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
)

// IsValid checks if the status is known.
func (s KYCStatus) IsValid() bool {
	switch s {
	case KYCStatusNone, KYCStatusPending, KYCStatusApproved:
		return true
	}
	return false
}

// Investor holds a custodial TL balance. Balance is only changed by the ledger.
type Investor struct {
	ID        string
	Name      string
	Email     string
	Balance   decimal.Decimal
	KYCStatus KYCStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MoneyScale is the number of decimal places kept for TL amounts.
const MoneyScale = 2

// ValidateAmount checks that amount is positive and carries no more than
// MoneyScale decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return ErrAmountPrecision
	}
	return nil
}

// ValidateDebit checks if the investor balance covers amount.
func (i *Investor) ValidateDebit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(i.Balance) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks if amount can be credited.
func (i *Investor) ValidateCredit(amount decimal.Decimal) error {
	return ValidateAmount(amount)
}

// ApplyDebit returns new balance after debit.
func (i *Investor) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return i.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (i *Investor) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return i.Balance.Add(amount)
}

// CanTrade reports whether the investor may buy shares.
func (i *Investor) CanTrade() bool {
	return i.KYCStatus == KYCStatusApproved
}
