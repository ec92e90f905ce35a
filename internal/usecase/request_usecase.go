package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
)

// RequestUseCase creates, cancels and lists pending requests. Creation only
// validates against the state at that moment; settlement re-validates.
type RequestUseCase struct {
	txManager    TransactionManager
	investorRepo InvestorRepository
	projectRepo  ProjectRepository
	holdingRepo  HoldingRepository
	requestRepo  RequestRepository
	bankRepo     BankRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	portfolio    *PortfolioStore
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewRequestUseCase(
	txManager TransactionManager,
	investorRepo InvestorRepository,
	projectRepo ProjectRepository,
	holdingRepo HoldingRepository,
	requestRepo RequestRepository,
	bankRepo BankRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	portfolio *PortfolioStore,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *RequestUseCase {
	return &RequestUseCase{
		txManager:    txManager,
		investorRepo: investorRepo,
		projectRepo:  projectRepo,
		holdingRepo:  holdingRepo,
		requestRepo:  requestRepo,
		bankRepo:     bankRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		portfolio:    portfolio,
		idGen:        idGen,
		metrics:      metrics,
		logger:       logger,
	}
}

// CreateDepositInput represents input for a deposit request.
type CreateDepositInput struct {
	InvestorID string
	Amount     decimal.Decimal
}

// CreateWithdrawInput represents input for a withdrawal request. Either
// BankID or IBAN with AccountHolder must be set.
type CreateWithdrawInput struct {
	InvestorID                   string
	Amount                       decimal.Decimal
	BankID                       string
	BankName                     string
	IBAN                         string
	AccountHolder                string
	AcknowledgeRecentInvestments bool
}

// CreateBuyInput represents input for a share purchase request.
type CreateBuyInput struct {
	InvestorID string
	ProjectID  string
	Shares     int64
}

// CreateSellInput represents input for a share sale request.
type CreateSellInput struct {
	InvestorID string
	HoldingID  string
	Shares     int64
}

// CreateDeposit stores a pending deposit.
func (uc *RequestUseCase) CreateDeposit(ctx context.Context, input CreateDepositInput) (*domain.Request, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if _, err := uc.investorRepo.GetByID(ctx, input.InvestorID); err != nil {
		return nil, err
	}

	return uc.create(ctx, &domain.Request{
		InvestorID: input.InvestorID,
		Kind:       domain.RequestKindDeposit,
		Amount:     input.Amount,
	})
}

// CreateWithdraw stores a pending withdrawal. Holdings bought within the
// holding period produce a *domain.WithdrawalWarning unless acknowledged.
func (uc *RequestUseCase) CreateWithdraw(ctx context.Context, input CreateWithdrawInput) (*domain.Request, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	bank, err := uc.resolveBank(ctx, input)
	if err != nil {
		return nil, err
	}

	investor, err := uc.investorRepo.GetByID(ctx, input.InvestorID)
	if err != nil {
		return nil, err
	}
	if err := investor.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	if !input.AcknowledgeRecentInvestments && uc.portfolio != nil {
		check, err := uc.portfolio.CheckWithdrawal(ctx, input.InvestorID)
		if err != nil {
			return nil, err
		}
		if check.HasRecentInvestments {
			return nil, &domain.WithdrawalWarning{Check: check}
		}
	}

	return uc.create(ctx, &domain.Request{
		InvestorID: input.InvestorID,
		Kind:       domain.RequestKindWithdraw,
		Amount:     input.Amount,
		Bank:       bank,
	})
}

func (uc *RequestUseCase) resolveBank(ctx context.Context, input CreateWithdrawInput) (*domain.BankDetails, error) {
	if id := strings.TrimSpace(input.BankID); id != "" {
		bank, err := uc.bankRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !bank.IsActive {
			return nil, domain.ErrBankNotFound
		}
		return bank.Details(), nil
	}

	details := domain.ManualBankDetails(input.BankName, input.IBAN, input.AccountHolder)
	if err := domain.ValidateBankDetails(details); err != nil {
		return nil, err
	}
	return details, nil
}

// CreateBuy stores a pending purchase priced at the project's share price.
func (uc *RequestUseCase) CreateBuy(ctx context.Context, input CreateBuyInput) (*domain.Request, error) {
	if input.Shares <= 0 {
		return nil, domain.ErrInvalidShares
	}

	investor, err := uc.investorRepo.GetByID(ctx, input.InvestorID)
	if err != nil {
		return nil, err
	}
	if !investor.CanTrade() {
		return nil, domain.ErrKYCNotApproved
	}

	project, err := uc.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	cost := project.Cost(input.Shares)
	if err := investor.ValidateDebit(cost); err != nil {
		return nil, err
	}
	if err := project.ValidateFunding(cost); err != nil {
		return nil, err
	}

	return uc.create(ctx, &domain.Request{
		InvestorID: input.InvestorID,
		Kind:       domain.RequestKindBuy,
		Amount:     cost,
		Shares:     input.Shares,
		ProjectID:  project.ID,
	})
}

// CreateSell stores a pending sale. Amount carries the expected proceeds,
// recomputed at settlement.
func (uc *RequestUseCase) CreateSell(ctx context.Context, input CreateSellInput) (*domain.Request, error) {
	if input.Shares <= 0 {
		return nil, domain.ErrInvalidShares
	}
	if _, err := uc.investorRepo.GetByID(ctx, input.InvestorID); err != nil {
		return nil, err
	}

	holding, err := uc.holdingRepo.GetByID(ctx, input.HoldingID)
	if err != nil {
		return nil, err
	}
	if holding.InvestorID != input.InvestorID {
		return nil, domain.ErrHoldingNotFound
	}
	if err := holding.ValidateSell(input.Shares); err != nil {
		return nil, err
	}

	return uc.create(ctx, &domain.Request{
		InvestorID: input.InvestorID,
		Kind:       domain.RequestKindSell,
		Amount:     holding.SellProceeds(input.Shares),
		Shares:     input.Shares,
		ProjectID:  holding.ProjectID,
		HoldingID:  holding.ID,
	})
}

func (uc *RequestUseCase) create(ctx context.Context, req *domain.Request) (*domain.Request, error) {
	req.ID = uc.idGen.Generate()
	req.Status = domain.RequestStatusPending
	req.CreatedAt = time.Now().UTC()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.requestRepo.Create(txCtx, tx, req); err != nil {
		return nil, err
	}

	event := domain.NewRequestEvent(uc.idGen.Generate(), domain.EventTypeRequestCreated, req, req.CreatedAt)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RequestsCreated.WithLabelValues(string(req.Kind)).Inc()
	}

	uc.logger.Info().
		Str("request_id", req.ID).
		Str("investor_id", req.InvestorID).
		Str("kind", string(req.Kind)).
		Str("amount", req.Amount.String()).
		Int64("shares", req.Shares).
		Msg("request created")

	return req, nil
}

// Cancel lets an investor withdraw their own pending request. It is recorded
// as a rejection decided by the investor.
func (uc *RequestUseCase) Cancel(ctx context.Context, investorID, requestID string) (*domain.Request, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	req, err := uc.requestRepo.GetByIDForUpdate(txCtx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.InvestorID != investorID {
		return nil, domain.ErrForbidden
	}

	before := domain.MarshalState(req)
	now := time.Now().UTC()
	if err := req.Reject(investorID, domain.CancelReason, now); err != nil {
		return nil, err
	}
	if err := uc.requestRepo.UpdateDecision(txCtx, tx, req); err != nil {
		return nil, err
	}

	event := domain.NewRequestEvent(uc.idGen.Generate(), domain.EventTypeRequestRejected, req, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := domain.NewAuditLog(uc.idGen.Generate(), investorID, domain.AuditActionRequestCancel, req.ID, before, domain.MarshalState(req), now)
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RequestsDecided.WithLabelValues(string(req.Kind), "cancel").Inc()
	}

	uc.logger.Info().
		Str("request_id", req.ID).
		Str("investor_id", investorID).
		Msg("request cancelled")

	return req, nil
}

// Get returns a request by ID.
func (uc *RequestUseCase) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	return uc.requestRepo.GetByID(ctx, requestID)
}

// ListTransactions returns the deposit and withdrawal requests of an investor.
func (uc *RequestUseCase) ListTransactions(ctx context.Context, investorID string, limit, offset int) ([]*domain.Request, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.requestRepo.List(ctx, domain.RequestFilter{
		InvestorID: investorID,
		Kinds:      []domain.RequestKind{domain.RequestKindDeposit, domain.RequestKindWithdraw},
		Limit:      limit,
		Offset:     offset,
	})
}

// ListRequests returns requests matching filter, newest first.
func (uc *RequestUseCase) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	for _, k := range filter.Kinds {
		if !k.IsValid() {
			return nil, domain.ErrInvalidRequestKind
		}
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.requestRepo.List(ctx, filter)
}
