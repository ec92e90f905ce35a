package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
)

// InvestorUseCase handles investor registration, KYC state and the admin overview.
type InvestorUseCase struct {
	investorRepo InvestorRepository
	auditRepo    AuditRepository
	portfolio    *PortfolioStore
	idGen        IDGenerator
	logger       zerolog.Logger
}

// NewInvestorUseCase creates a new InvestorUseCase.
func NewInvestorUseCase(investorRepo InvestorRepository, auditRepo AuditRepository, portfolio *PortfolioStore, idGen IDGenerator, logger zerolog.Logger) *InvestorUseCase {
	return &InvestorUseCase{
		investorRepo: investorRepo,
		auditRepo:    auditRepo,
		portfolio:    portfolio,
		idGen:        idGen,
		logger:       logger,
	}
}

// RegisterInvestorInput represents input for registering an investor.
type RegisterInvestorInput struct {
	ID        string
	Name      string
	Email     string
	KYCStatus domain.KYCStatus
}

// Register creates an investor with a zero balance. ID may be supplied by the
// identity provider; otherwise one is generated.
func (uc *InvestorUseCase) Register(ctx context.Context, actor string, input RegisterInvestorInput) (*domain.Investor, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if input.KYCStatus == "" {
		input.KYCStatus = domain.KYCStatusNone
	}
	if !input.KYCStatus.IsValid() {
		return nil, domain.ErrInvalidKYCStatus
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uc.idGen.Generate()
	}

	now := time.Now().UTC()
	investor := &domain.Investor{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Balance:   decimal.Zero,
		KYCStatus: input.KYCStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.investorRepo.Create(ctx, investor); err != nil {
		return nil, err
	}

	uc.auditLog(ctx, actor, domain.AuditActionInvestorCreate, investor.ID, nil, domain.MarshalState(investor))

	return investor, nil
}

// Get retrieves an investor by ID.
func (uc *InvestorUseCase) Get(ctx context.Context, id string) (*domain.Investor, error) {
	return uc.investorRepo.GetByID(ctx, id)
}

// SetKYCStatus records the verdict of the external KYC provider.
func (uc *InvestorUseCase) SetKYCStatus(ctx context.Context, actor, id string, status domain.KYCStatus) (*domain.Investor, error) {
	if !status.IsValid() {
		return nil, domain.ErrInvalidKYCStatus
	}

	investor, err := uc.investorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := domain.JSON{"kyc_status": string(investor.KYCStatus)}

	now := time.Now().UTC()
	if err := uc.investorRepo.UpdateKYCStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	investor.KYCStatus = status
	investor.UpdatedAt = now

	uc.auditLog(ctx, actor, domain.AuditActionInvestorKYC, id, before, domain.JSON{"kyc_status": string(status)})

	return investor, nil
}

// InvestorOverview pairs an investor with their portfolio totals.
type InvestorOverview struct {
	Investor  *domain.Investor
	Portfolio domain.PortfolioSummary
}

// Overview lists investors with portfolio totals for the admin console.
func (uc *InvestorUseCase) Overview(ctx context.Context, limit, offset int) ([]InvestorOverview, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	investors, err := uc.investorRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]InvestorOverview, 0, len(investors))
	for _, inv := range investors {
		summary, err := uc.portfolio.Aggregate(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, InvestorOverview{Investor: inv, Portfolio: summary})
	}
	return out, nil
}

func (uc *InvestorUseCase) auditLog(ctx context.Context, actor string, action domain.AuditAction, id string, before, after domain.JSON) {
	if uc.auditRepo == nil {
		return
	}
	entry := domain.NewAuditLog(uc.idGen.Generate(), actor, action, id, before, after, time.Now().UTC())
	if err := uc.auditRepo.Create(ctx, entry); err != nil {
		uc.logger.Warn().Err(err).Str("investor_id", id).Str("action", string(action)).Msg("failed to write audit log")
	}
}
