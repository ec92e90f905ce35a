package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxNameLength   = 255
	MaxIBANLength   = 34
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateName validates an investor or project name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLength)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	return nil
}

// ValidateBankDetails checks a withdrawal destination. IBAN only has to be
// present; its checksum is verified by the payout bank.
func ValidateBankDetails(b *BankDetails) error {
	iban := strings.TrimSpace(b.IBAN)
	if iban == "" || strings.TrimSpace(b.AccountHolder) == "" {
		return ErrInvalidBankDetails
	}
	if len(strings.ReplaceAll(iban, " ", "")) > MaxIBANLength {
		return fmt.Errorf("%w: IBAN exceeds %d characters", ErrInvalidBankDetails, MaxIBANLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
