package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairUSDTRY is the only currency pair the platform quotes.
const PairUSDTRY = "USD/TRY"

// FXQuote is a USD/TRY rate snapshot. Stale is set when the rate comes from a
// fallback rather than a fresh fetch.
type FXQuote struct {
	Pair      string
	Rate      decimal.Decimal
	FetchedAt time.Time
	Stale     bool
}

// ToUSD converts a TL amount to advisory USD, rounded to cents. A zero rate yields zero.
func (q FXQuote) ToUSD(tl decimal.Decimal) decimal.Decimal {
	if q.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return tl.Div(q.Rate).Round(2)
}
