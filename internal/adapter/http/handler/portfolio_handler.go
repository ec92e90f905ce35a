package handler

import (
	"context"
	"net/http"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
)

type portfolioService interface {
	Aggregate(ctx context.Context, investorID string) (domain.PortfolioSummary, error)
	CheckWithdrawal(ctx context.Context, investorID string) (domain.WithdrawalCheck, error)
}

type entryService interface {
	ListEntries(ctx context.Context, investorID string, limit, offset int) ([]*domain.Entry, error)
}

// PortfolioHandler serves investor portfolio reads.
type PortfolioHandler struct {
	portfolio portfolioService
	entries   entryService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolio portfolioService, entries entryService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, entries: entries}
}

// Get handles GET /api/v1/portfolio.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	investorID, err := targetInvestor(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := h.portfolio.Aggregate(r.Context(), investorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PortfolioFromDomain(summary))
}

// WithdrawalCheck handles GET /api/v1/portfolio/withdrawal-check.
func (h *PortfolioHandler) WithdrawalCheck(w http.ResponseWriter, r *http.Request) {
	investorID, err := targetInvestor(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	check, err := h.portfolio.CheckWithdrawal(r.Context(), investorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WithdrawalCheckFromDomain(check))
}

// Entries handles GET /api/v1/entries.
func (h *PortfolioHandler) Entries(w http.ResponseWriter, r *http.Request) {
	investorID, err := targetInvestor(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.entries.ListEntries(r.Context(), investorID,
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
