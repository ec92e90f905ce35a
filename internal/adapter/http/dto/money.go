package dto

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatTRY renders a TL amount for display, e.g. "₺25.000,00".
func FormatTRY(amount decimal.Decimal) string {
	return display(amount, money.TRY)
}

// FormatUSD renders an advisory USD amount for display.
func FormatUSD(amount decimal.Decimal) string {
	return display(amount, money.USD)
}

func display(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
