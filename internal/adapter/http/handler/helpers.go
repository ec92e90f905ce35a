package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Stale requests are
// checked first because they also unwrap to the failed precondition.
func mapDomainError(err error) int {
	var warning *domain.WithdrawalWarning
	switch {
	case errors.As(err, &warning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStaleRequest):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateInvestor):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFundingTargetExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrKYCNotApproved):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. Internal errors are not
// echoed to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	var warning *domain.WithdrawalWarning
	if errors.As(err, &warning) {
		writeJSON(w, http.StatusConflict, dto.WarningResponse{
			Error:   "recent investments",
			Message: warning.Error(),
			Check:   dto.WithdrawalCheckFromDomain(warning.Check),
		})
		return
	}

	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error", "")
		return
	}
	writeError(w, status, http.StatusText(status), err.Error())
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return dto.Validate(v)
}

// principal returns the authenticated caller.
func principal(r *http.Request) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// targetInvestor resolves whose data a read is about. Investors always read
// their own; admins may pass investor_id.
func targetInvestor(r *http.Request) (string, error) {
	p, err := principal(r)
	if err != nil {
		return "", err
	}
	if id := r.URL.Query().Get("investor_id"); id != "" {
		if !p.CanAccessInvestor(id) {
			return "", domain.ErrForbidden
		}
		return id, nil
	}
	return p.UserID, nil
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
