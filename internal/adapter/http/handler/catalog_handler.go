package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

type catalogService interface {
	SharePrice() decimal.Decimal
	CreateProject(ctx context.Context, actor string, input usecase.CreateProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	CreateBank(ctx context.Context, actor string, input usecase.CreateBankInput) (*domain.Bank, error)
	ListBanks(ctx context.Context) ([]*domain.Bank, error)
}

type tierSource interface {
	Tiers() *domain.TierTable
}

// CatalogHandler serves projects, banks, tiers and the FX quote.
type CatalogHandler struct {
	catalog catalogService
	tiers   tierSource
	fx      usecase.FXProvider
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog catalogService, tiers tierSource, fx usecase.FXProvider) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, tiers: tiers, fx: fx}
}

// ListProjects handles GET /api/v1/projects.
func (h *CatalogHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.catalog.ListProjects(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProjectsFromDomain(projects))
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *CatalogHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.catalog.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProjectFromDomain(project))
}

// CreateProject handles POST /api/v1/admin/projects.
func (h *CatalogHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req dto.CreateProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	project, err := h.catalog.CreateProject(r.Context(), p.UserID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ProjectFromDomain(project))
}

// ListBanks handles GET /api/v1/banks.
func (h *CatalogHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.catalog.ListBanks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BanksFromDomain(banks))
}

// CreateBank handles POST /api/v1/admin/banks.
func (h *CatalogHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req dto.CreateBankRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	bank, err := h.catalog.CreateBank(r.Context(), p.UserID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.BankFromDomain(bank))
}

// Tiers handles GET /api/v1/tiers.
func (h *CatalogHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.TiersFromDomain(h.tiers.Tiers(), h.catalog.SharePrice()))
}

// USDTRY handles GET /api/v1/fx/usd-try.
func (h *CatalogHandler) USDTRY(w http.ResponseWriter, r *http.Request) {
	quote, err := h.fx.CurrentRate(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FXFromDomain(quote, h.catalog.SharePrice()))
}
