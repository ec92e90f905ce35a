package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInvestor_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError error
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: ErrInsufficientBalance,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
		},
		{
			name:        "zero debit",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.Zero,
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Investor{Balance: tt.balance}

			err := inv.ValidateDebit(tt.debitAmount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestInvestor_ValidateCredit(t *testing.T) {
	inv := &Investor{Balance: decimal.Zero}

	if err := inv.ValidateCredit(decimal.NewFromInt(10)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := inv.ValidateCredit(decimal.NewFromInt(-10)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	if err := inv.ValidateCredit(decimal.RequireFromString("0.001")); !errors.Is(err, ErrAmountPrecision) {
		t.Errorf("expected precision error, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		expectError error
	}{
		{name: "whole lira", amount: "25000"},
		{name: "kurus", amount: "10.25"},
		{name: "trailing zeros", amount: "10.500"},
		{name: "zero", amount: "0", expectError: ErrInvalidAmount},
		{name: "negative", amount: "-1", expectError: ErrInvalidAmount},
		{name: "sub kurus", amount: "0.004", expectError: ErrAmountPrecision},
		{name: "three decimals", amount: "100.125", expectError: ErrAmountPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}

	if !errors.Is(ErrAmountPrecision, ErrInvalidAmount) {
		t.Error("precision errors must be invalid amounts")
	}
}

func TestInvestor_ApplyDebitAndCredit(t *testing.T) {
	inv := &Investor{Balance: decimal.NewFromInt(100)}

	if got := inv.ApplyDebit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected balance 70, got %s", got)
	}

	if got := inv.ApplyCredit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(130)) {
		t.Errorf("expected balance 130, got %s", got)
	}
}

func TestKYCStatus_IsValid(t *testing.T) {
	for _, s := range []KYCStatus{KYCStatusNone, KYCStatusPending, KYCStatusApproved} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	if KYCStatus("verified").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}
