package domain

import (
	"fmt"
	"time"
)

// WithdrawalCheck lists holdings still inside the holding period.
type WithdrawalCheck struct {
	HasRecentInvestments bool
	RecentInvestments    []*Holding
	HoldingPeriod        time.Duration
}

// NewWithdrawalCheck selects the holdings purchased within period of now.
func NewWithdrawalCheck(holdings []*Holding, period time.Duration, now time.Time) WithdrawalCheck {
	check := WithdrawalCheck{HoldingPeriod: period, RecentInvestments: []*Holding{}}
	for _, h := range holdings {
		if h.PurchasedWithin(period, now) {
			check.RecentInvestments = append(check.RecentInvestments, h)
		}
	}
	check.HasRecentInvestments = len(check.RecentInvestments) > 0
	return check
}

// WithdrawalWarning is returned when a withdrawal is requested while recent
// investments exist and the investor has not acknowledged them.
type WithdrawalWarning struct {
	Check WithdrawalCheck
}

func (w *WithdrawalWarning) Error() string {
	return fmt.Sprintf("%d investment(s) made within the holding period; acknowledge to continue",
		len(w.Check.RecentInvestments))
}
