package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

type requestLister interface {
	ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error)
}

type settlementService interface {
	Decide(ctx context.Context, input usecase.DecideInput) (*domain.Request, error)
}

type investorService interface {
	Register(ctx context.Context, actor string, input usecase.RegisterInvestorInput) (*domain.Investor, error)
	SetKYCStatus(ctx context.Context, actor, id string, status domain.KYCStatus) (*domain.Investor, error)
	Overview(ctx context.Context, limit, offset int) ([]usecase.InvestorOverview, error)
}

type reconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// AdminHandler serves the back-office console.
type AdminHandler struct {
	requests   requestLister
	settlement settlementService
	investors  investorService
	recon      reconciliationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(requests requestLister, settlement settlementService, investors investorService, recon reconciliationService) *AdminHandler {
	return &AdminHandler{requests: requests, settlement: settlement, investors: investors, recon: recon}
}

// ListRequests handles GET /api/v1/admin/requests.
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	requests, err := h.requests.ListRequests(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RequestsFromDomain(requests))
}

// Decide handles PUT /api/v1/admin/requests/{id}.
func (h *AdminHandler) Decide(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body dto.DecideRequest
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}

	req, err := h.settlement.Decide(r.Context(), body.ToUseCaseInput(chi.URLParam(r, "id"), p.UserID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RequestFromDomain(req))
}

// ListInvestors handles GET /api/v1/admin/investors.
func (h *AdminHandler) ListInvestors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.investors.Overview(r.Context(), parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OverviewFromDomain(rows))
}

// RegisterInvestor handles POST /api/v1/admin/investors.
func (h *AdminHandler) RegisterInvestor(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body dto.RegisterInvestorRequest
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}

	investor, err := h.investors.Register(r.Context(), p.UserID, body.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.InvestorFromDomain(investor))
}

// SetKYC handles PUT /api/v1/admin/investors/{id}/kyc.
func (h *AdminHandler) SetKYC(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body dto.SetKYCRequest
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}

	investor, err := h.investors.SetKYCStatus(r.Context(), p.UserID, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.InvestorFromDomain(investor))
}

// Reconciliation handles GET /api/v1/admin/reconciliation.
func (h *AdminHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(report))
}
