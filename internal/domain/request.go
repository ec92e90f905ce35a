package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestKind is what a request asks the admin to settle.
type RequestKind string

const (
	RequestKindDeposit  RequestKind = "deposit"
	RequestKindWithdraw RequestKind = "withdraw"
	RequestKindBuy      RequestKind = "buy"
	RequestKindSell     RequestKind = "sell"
)

// IsValid checks if the kind is known.
func (k RequestKind) IsValid() bool {
	switch k {
	case RequestKindDeposit, RequestKindWithdraw, RequestKindBuy, RequestKindSell:
		return true
	}
	return false
}

// IsMoneyMovement reports whether the request moves money in or out of the platform.
func (k RequestKind) IsMoneyMovement() bool {
	return k == RequestKindDeposit || k == RequestKindWithdraw
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// IsValid checks if the status is known.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// Decision is the admin verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid checks if the decision is known.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// CancelReason is stored on requests withdrawn by their owner.
const CancelReason = "cancelled by investor"

// ManualBankName is used for manual IBAN withdrawals without a bank name.
const ManualBankName = "Diger"

// Bank destination sources.
const (
	BankSourceSystem = "system"
	BankSourceManual = "manual"
)

// BankDetails is the payout destination of a withdrawal.
type BankDetails struct {
	BankID        string `json:"bank_id,omitempty"`
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban"`
	AccountHolder string `json:"account_holder"`
	Source        string `json:"source"`
}

// Request is a pending intent that only takes effect when an admin approves it.
// Approved and rejected requests are immutable.
type Request struct {
	ID         string
	InvestorID string
	Kind       RequestKind
	Amount     decimal.Decimal
	Shares     int64
	ProjectID  string
	HoldingID  string
	Bank       *BankDetails
	Status     RequestStatus
	Reason     string
	DecidedBy  string
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

// Validate checks the fields a request of its kind must carry.
func (r *Request) Validate() error {
	switch r.Kind {
	case RequestKindDeposit:
		if err := ValidateAmount(r.Amount); err != nil {
			return err
		}
	case RequestKindWithdraw:
		if err := ValidateAmount(r.Amount); err != nil {
			return err
		}
		if r.Bank == nil {
			return ErrInvalidBankDetails
		}
		if err := ValidateBankDetails(r.Bank); err != nil {
			return err
		}
	case RequestKindBuy:
		if r.Shares <= 0 {
			return ErrInvalidShares
		}
		if r.ProjectID == "" {
			return ErrProjectNotFound
		}
	case RequestKindSell:
		if r.Shares <= 0 {
			return ErrInvalidShares
		}
		if r.HoldingID == "" {
			return ErrHoldingNotFound
		}
		// Proceeds are credited on approval, so they must be a valid amount.
		if err := ValidateAmount(r.Amount); err != nil {
			return err
		}
	default:
		return ErrInvalidRequestKind
	}
	return nil
}

// IsTerminal reports whether the request has been decided.
func (r *Request) IsTerminal() bool {
	return r.Status != RequestStatusPending
}

// Approve moves a pending request to approved.
func (r *Request) Approve(decidedBy, reason string, at time.Time) error {
	return r.decide(RequestStatusApproved, decidedBy, reason, at)
}

// Reject moves a pending request to rejected.
func (r *Request) Reject(decidedBy, reason string, at time.Time) error {
	return r.decide(RequestStatusRejected, decidedBy, reason, at)
}

func (r *Request) decide(status RequestStatus, decidedBy, reason string, at time.Time) error {
	if r.IsTerminal() {
		return ErrRequestNotPending
	}
	r.Status = status
	r.DecidedBy = decidedBy
	r.Reason = reason
	r.DecidedAt = &at
	return nil
}

// RequestFilter narrows request listings. Empty fields match everything.
type RequestFilter struct {
	InvestorID string
	Status     RequestStatus
	Kinds      []RequestKind
	Limit      int
	Offset     int
}

// Matches reports whether r passes the filter.
func (f RequestFilter) Matches(r *Request) bool {
	if f.InvestorID != "" && r.InvestorID != f.InvestorID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if r.Kind == k {
			return true
		}
	}
	return false
}
