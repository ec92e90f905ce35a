package domain

import (
	"strings"
	"time"
)

// Bank is a system payout destination maintained by admins.
type Bank struct {
	ID            string
	Name          string
	IBAN          string
	AccountHolder string
	IsActive      bool
	CreatedAt     time.Time
}

// Validate checks a bank before registration.
func (b *Bank) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrInvalidBankDetails
	}
	return ValidateBankDetails(&BankDetails{IBAN: b.IBAN, AccountHolder: b.AccountHolder})
}

// Details copies the registry entry into a withdrawal destination.
func (b *Bank) Details() *BankDetails {
	return &BankDetails{
		BankID:        b.ID,
		BankName:      b.Name,
		IBAN:          b.IBAN,
		AccountHolder: b.AccountHolder,
		Source:        BankSourceSystem,
	}
}

// ManualBankDetails builds a manual IBAN destination.
func ManualBankDetails(bankName, iban, accountHolder string) *BankDetails {
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		bankName = ManualBankName
	}
	return &BankDetails{
		BankName:      bankName,
		IBAN:          strings.TrimSpace(iban),
		AccountHolder: strings.TrimSpace(accountHolder),
		Source:        BankSourceManual,
	}
}
