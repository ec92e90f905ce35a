package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
)

// CatalogUseCase manages the project catalogue and the system bank registry.
type CatalogUseCase struct {
	projectRepo ProjectRepository
	bankRepo    BankRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	sharePrice  decimal.Decimal
	logger      zerolog.Logger
}

// NewCatalogUseCase creates a new CatalogUseCase. Projects registered without
// a share price use sharePrice.
func NewCatalogUseCase(projectRepo ProjectRepository, bankRepo BankRepository, auditRepo AuditRepository, idGen IDGenerator, sharePrice decimal.Decimal, logger zerolog.Logger) *CatalogUseCase {
	if sharePrice.LessThanOrEqual(decimal.Zero) {
		sharePrice = domain.DefaultSharePrice
	}
	return &CatalogUseCase{
		projectRepo: projectRepo,
		bankRepo:    bankRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		sharePrice:  sharePrice,
		logger:      logger,
	}
}

// SharePrice returns the default share price.
func (uc *CatalogUseCase) SharePrice() decimal.Decimal {
	return uc.sharePrice
}

// CreateProjectInput represents input for registering a project.
type CreateProjectInput struct {
	Name              string
	Type              domain.ProjectType
	SharePrice        decimal.Decimal
	MonthlyReturnRate decimal.Decimal
	FundingTarget     decimal.Decimal
}

// CreateProject registers a project with nothing funded.
func (uc *CatalogUseCase) CreateProject(ctx context.Context, actor string, input CreateProjectInput) (*domain.Project, error) {
	price := input.SharePrice
	if price.IsZero() {
		price = uc.sharePrice
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:                uc.idGen.Generate(),
		Name:              strings.TrimSpace(input.Name),
		Type:              domain.ProjectType(strings.ToUpper(string(input.Type))),
		SharePrice:        price,
		MonthlyReturnRate: input.MonthlyReturnRate,
		FundingTarget:     input.FundingTarget,
		FundedAmount:      decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := uc.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	uc.auditLog(ctx, actor, domain.AuditActionProjectCreate, project.ID, domain.MarshalState(project))
	return project, nil
}

// GetProject retrieves a project by ID.
func (uc *CatalogUseCase) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return uc.projectRepo.GetByID(ctx, id)
}

// ListProjects lists every project.
func (uc *CatalogUseCase) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return uc.projectRepo.List(ctx)
}

// CreateBankInput represents input for registering a system bank.
type CreateBankInput struct {
	Name          string
	IBAN          string
	AccountHolder string
}

// CreateBank adds an active bank to the registry.
func (uc *CatalogUseCase) CreateBank(ctx context.Context, actor string, input CreateBankInput) (*domain.Bank, error) {
	bank := &domain.Bank{
		ID:            uc.idGen.Generate(),
		Name:          strings.TrimSpace(input.Name),
		IBAN:          strings.TrimSpace(input.IBAN),
		AccountHolder: strings.TrimSpace(input.AccountHolder),
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}

	if err := uc.bankRepo.Create(ctx, bank); err != nil {
		return nil, err
	}

	uc.auditLog(ctx, actor, domain.AuditActionBankCreate, bank.ID, domain.MarshalState(bank))
	return bank, nil
}

// ListBanks lists the active system banks.
func (uc *CatalogUseCase) ListBanks(ctx context.Context) ([]*domain.Bank, error) {
	return uc.bankRepo.ListActive(ctx)
}

func (uc *CatalogUseCase) auditLog(ctx context.Context, actor string, action domain.AuditAction, id string, after domain.JSON) {
	if uc.auditRepo == nil {
		return
	}
	entry := domain.NewAuditLog(uc.idGen.Generate(), actor, action, id, nil, after, time.Now().UTC())
	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		uc.logger.Warn().Err(err).Str("resource_id", id).Str("action", string(action)).Msg("failed to write audit log")
	}
}
