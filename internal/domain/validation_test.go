package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	if err := ValidateName("Ayse Yilmaz"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateName("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := ValidateName(strings.Repeat("a", MaxNameLength+1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("USER@example.com "); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}

	if err := ValidateEmail("invalid-email"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateBankDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		details BankDetails
		valid   bool
	}{
		{"iban and holder", BankDetails{IBAN: "TR33 0006 1005 1978 6457 8413 26", AccountHolder: "Ali"}, true},
		{"missing iban", BankDetails{AccountHolder: "Ali"}, false},
		{"missing holder", BankDetails{IBAN: "TR330006100519786457841326"}, false},
		{"iban too long", BankDetails{IBAN: strings.Repeat("1", MaxIBANLength+1), AccountHolder: "Ali"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBankDetails(&tt.details)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidBankDetails) {
				t.Fatalf("expected ErrInvalidBankDetails, got %v", err)
			}
		})
	}
}

func TestManualBankDetails_DefaultsName(t *testing.T) {
	t.Parallel()

	d := ManualBankDetails("  ", " TR12 ", "Ali")
	if d.BankName != ManualBankName || d.Source != BankSourceManual || d.IBAN != "TR12" {
		t.Fatalf("unexpected details: %+v", d)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset := ValidatePagination(0, -5)
	if limit != DefaultPageSize || offset != 0 {
		t.Fatalf("unexpected defaults: limit=%d offset=%d", limit, offset)
	}

	limit, _ = ValidatePagination(MaxPageSize+1, 0)
	if limit != MaxPageSize {
		t.Fatalf("expected limit %d, got %d", MaxPageSize, limit)
	}
}
