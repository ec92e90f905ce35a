package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

type requestService interface {
	CreateDeposit(ctx context.Context, input usecase.CreateDepositInput) (*domain.Request, error)
	CreateWithdraw(ctx context.Context, input usecase.CreateWithdrawInput) (*domain.Request, error)
	CreateBuy(ctx context.Context, input usecase.CreateBuyInput) (*domain.Request, error)
	CreateSell(ctx context.Context, input usecase.CreateSellInput) (*domain.Request, error)
	Cancel(ctx context.Context, investorID, requestID string) (*domain.Request, error)
	ListTransactions(ctx context.Context, investorID string, limit, offset int) ([]*domain.Request, error)
	ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error)
}

// RequestHandler handles investor request creation and listing.
type RequestHandler struct {
	requests requestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requests requestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// CreateDeposit handles POST /api/v1/requests/deposit.
func (h *RequestHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateDepositRequest
	h.create(w, r, &body, func(ctx context.Context, investorID string) (*domain.Request, error) {
		return h.requests.CreateDeposit(ctx, body.ToUseCaseInput(investorID))
	})
}

// CreateWithdraw handles POST /api/v1/requests/withdraw. A 409 with the
// withdrawal check is returned until recent investments are acknowledged.
func (h *RequestHandler) CreateWithdraw(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateWithdrawRequest
	h.create(w, r, &body, func(ctx context.Context, investorID string) (*domain.Request, error) {
		return h.requests.CreateWithdraw(ctx, body.ToUseCaseInput(investorID))
	})
}

// CreateBuy handles POST /api/v1/requests/buy.
func (h *RequestHandler) CreateBuy(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateBuyRequest
	h.create(w, r, &body, func(ctx context.Context, investorID string) (*domain.Request, error) {
		return h.requests.CreateBuy(ctx, body.ToUseCaseInput(investorID))
	})
}

// CreateSell handles POST /api/v1/requests/sell.
func (h *RequestHandler) CreateSell(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateSellRequest
	h.create(w, r, &body, func(ctx context.Context, investorID string) (*domain.Request, error) {
		return h.requests.CreateSell(ctx, body.ToUseCaseInput(investorID))
	})
}

func (h *RequestHandler) create(w http.ResponseWriter, r *http.Request, body any, fn func(ctx context.Context, investorID string) (*domain.Request, error)) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := decodeBody(r, body); err != nil {
		writeDomainError(w, err)
		return
	}

	req, err := fn(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RequestFromDomain(req))
}

// Cancel handles POST /api/v1/requests/{id}/cancel.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	req, err := h.requests.Cancel(r.Context(), p.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RequestFromDomain(req))
}

// Transactions handles GET /api/v1/transactions: deposits and withdrawals.
func (h *RequestHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	investorID, err := targetInvestor(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	requests, err := h.requests.ListTransactions(r.Context(), investorID,
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RequestsFromDomain(requests))
}

// List handles GET /api/v1/requests for the calling investor.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filter, err := parseRequestFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	filter.InvestorID = p.UserID

	requests, err := h.requests.ListRequests(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RequestsFromDomain(requests))
}

// parseRequestFilter reads status, kind (comma separated), limit and offset.
func parseRequestFilter(r *http.Request) (domain.RequestFilter, error) {
	q := r.URL.Query()
	filter := domain.RequestFilter{
		InvestorID: q.Get("investor_id"),
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	if s := q.Get("status"); s != "" {
		filter.Status = domain.RequestStatus(strings.ToLower(s))
		if !filter.Status.IsValid() {
			return filter, domain.ErrInvalidStatus
		}
	}

	if kinds := q.Get("kind"); kinds != "" {
		for _, k := range strings.Split(kinds, ",") {
			kind := domain.RequestKind(strings.ToLower(strings.TrimSpace(k)))
			if !kind.IsValid() {
				return filter, domain.ErrInvalidRequestKind
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}

	return filter, nil
}
