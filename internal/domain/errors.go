package domain

import (
	"errors"
	"fmt"
)

var (
	// Error categories
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrStaleRequest        = errors.New("stale request")

	// Input errors
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidShares      = fmt.Errorf("%w: shares must be positive", ErrInvalidInput)
	ErrInvalidBankDetails = fmt.Errorf("%w: bank selection or IBAN with account holder is required", ErrInvalidInput)
	ErrInvalidDecision    = fmt.Errorf("%w: decision must be approve or reject", ErrInvalidInput)
	ErrInvalidKYCStatus   = fmt.Errorf("%w: unknown KYC status", ErrInvalidInput)
	ErrInvalidProjectType = fmt.Errorf("%w: project type must be GES or RES", ErrInvalidInput)
	ErrInvalidTierTable   = fmt.Errorf("%w: tier table", ErrInvalidInput)
	ErrInvalidProjectName = fmt.Errorf("%w: project name is required", ErrInvalidInput)
	ErrInvalidRate        = fmt.Errorf("%w: return rate must not be negative", ErrInvalidInput)
	ErrInvalidRequestKind = fmt.Errorf("%w: unknown request kind", ErrInvalidInput)
	ErrInvalidSharePrice  = fmt.Errorf("%w: share price must be at least 1 TL", ErrInvalidInput)
	ErrAmountPrecision    = fmt.Errorf("%w: at most two decimal places are allowed", ErrInvalidAmount)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown request status", ErrInvalidInput)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", ErrInvalidInput)

	// Lookup errors
	ErrInvestorNotFound = fmt.Errorf("investor %w", ErrNotFound)
	ErrProjectNotFound  = fmt.Errorf("project %w", ErrNotFound)
	ErrHoldingNotFound  = fmt.Errorf("holding %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("request %w", ErrNotFound)
	ErrBankNotFound     = fmt.Errorf("bank %w", ErrNotFound)

	// Policy errors
	ErrRequestNotPending     = fmt.Errorf("%w: request is not pending", ErrInvalidState)
	ErrKYCNotApproved        = errors.New("KYC approval required")
	ErrFundingTargetExceeded = errors.New("project funding target exceeded")
	ErrForbidden             = errors.New("forbidden")
	ErrDuplicateInvestor     = errors.New("investor already exists")

	// Invariant errors
	ErrFundedAmountMismatch = errors.New("project funded amount is below the removed cost basis")

	// Infrastructure errors
	ErrCacheMiss       = errors.New("cache miss")
	ErrRateUnavailable = errors.New("fx rate unavailable")
)

// StaleRequestError reports that a pending request no longer satisfies its
// preconditions at decision time. The request stays pending and has to be
// rejected explicitly.
type StaleRequestError struct {
	RequestID string
	Cause     error
}

func (e *StaleRequestError) Error() string {
	return fmt.Sprintf("request %s is stale: %v", e.RequestID, e.Cause)
}

// Unwrap exposes both ErrStaleRequest and the failed precondition.
func (e *StaleRequestError) Unwrap() []error {
	return []error{ErrStaleRequest, e.Cause}
}

// NewStaleRequestError wraps a re-validation failure.
func NewStaleRequestError(requestID string, cause error) error {
	return &StaleRequestError{RequestID: requestID, Cause: cause}
}

// IsRevalidationError reports whether err is a precondition failure that makes
// a pending request stale rather than an infrastructure failure.
func IsRevalidationError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrFundingTargetExceeded) ||
		errors.Is(err, ErrKYCNotApproved) ||
		errors.Is(err, ErrInvalidInput)
}
