package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/adapter/repository/memory"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	"github.com/iho/gesledger/internal/usecase"
)

const adminID = "admin-1"

var errOutboxDown = errors.New("outbox unavailable")

// failingOutbox fails Create for one event type.
type failingOutbox struct {
	usecase.OutboxRepository
	failOn string
}

func (f *failingOutbox) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if event.EventType == f.failOn {
		return errOutboxDown
	}
	return f.OutboxRepository.Create(ctx, tx, event)
}

// staticFX always returns the same quote.
type staticFX struct {
	quote domain.FXQuote
	err   error
}

func (s staticFX) CurrentRate(ctx context.Context) (domain.FXQuote, error) {
	return s.quote, s.err
}

type harness struct {
	t          *testing.T
	ctx        context.Context
	store      *memory.Store
	txManager  *memory.TxManager
	idGen      *memory.IDGenerator
	logger     zerolog.Logger
	investors  *memory.InvestorRepository
	projects   *memory.ProjectRepository
	holdings   *memory.HoldingRepository
	requests   *memory.RequestRepository
	entries    *memory.EntryRepository
	banks      *memory.BankRepository
	outbox     usecase.OutboxRepository
	audit      *memory.AuditRepository
	metrics    *metrics.Metrics
	portfolio  *usecase.PortfolioStore
	ledger     *usecase.Ledger
	requestUC  *usecase.RequestUseCase
	settleUC   *usecase.SettlementUseCase
	investorUC *usecase.InvestorUseCase
	catalogUC  *usecase.CatalogUseCase
	reconUC    *usecase.ReconciliationUseCase
}

type harnessOption func(*harness)

func withOutbox(fn func(usecase.OutboxRepository) usecase.OutboxRepository) harnessOption {
	return func(h *harness) { h.outbox = fn(h.outbox) }
}

func newHarness(t *testing.T, fx usecase.FXProvider, opts ...harnessOption) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		investors: memory.NewInvestorRepository(store),
		projects:  memory.NewProjectRepository(store),
		holdings:  memory.NewHoldingRepository(store),
		requests:  memory.NewRequestRepository(store),
		entries:   memory.NewEntryRepository(store),
		banks:     memory.NewBankRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		audit:     memory.NewAuditRepository(store),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.logger = zerolog.Nop()
	h.idGen = memory.NewIDGenerator("id-")
	h.txManager = memory.NewTxManager(store)
	logger, idGen, txManager := h.logger, h.idGen, h.txManager

	h.portfolio = usecase.NewPortfolioStore(h.investors, h.projects, h.holdings, domain.DefaultTierTable(), fx, idGen, usecase.DefaultHoldingPeriod, logger)
	h.ledger = usecase.NewLedger(h.investors, h.entries, idGen)
	h.requestUC = usecase.NewRequestUseCase(txManager, h.investors, h.projects, h.holdings, h.requests, h.banks, h.outbox, h.audit, h.portfolio, idGen, h.metrics, logger)
	h.settleUC = usecase.NewSettlementUseCase(txManager, h.investors, h.projects, h.requests, h.outbox, h.audit, h.ledger, h.portfolio, nil, idGen, h.metrics, logger)
	h.investorUC = usecase.NewInvestorUseCase(h.investors, h.audit, h.portfolio, idGen, logger)
	h.catalogUC = usecase.NewCatalogUseCase(h.projects, h.banks, h.audit, idGen, domain.DefaultSharePrice, logger)
	h.reconUC = usecase.NewReconciliationUseCase(h.investors, h.projects, h.holdings, h.entries)
	return h
}

func (h *harness) investor(id string, kyc domain.KYCStatus) *domain.Investor {
	h.t.Helper()
	inv, err := h.investorUC.Register(h.ctx, adminID, usecase.RegisterInvestorInput{
		ID:        id,
		Name:      "Investor " + id,
		Email:     id + "@example.com",
		KYCStatus: kyc,
	})
	require.NoError(h.t, err)
	return inv
}

func (h *harness) project(name string, target int64) *domain.Project {
	h.t.Helper()
	p, err := h.catalogUC.CreateProject(h.ctx, adminID, usecase.CreateProjectInput{
		Name:              name,
		Type:              domain.ProjectTypeSolar,
		MonthlyReturnRate: decimal.NewFromInt(7),
		FundingTarget:     decimal.NewFromInt(target),
	})
	require.NoError(h.t, err)
	return p
}

// fund deposits amount and approves it.
func (h *harness) fund(investorID string, amount int64) {
	h.t.Helper()
	req, err := h.requestUC.CreateDeposit(h.ctx, usecase.CreateDepositInput{InvestorID: investorID, Amount: decimal.NewFromInt(amount)})
	require.NoError(h.t, err)
	_, err = h.settleUC.Approve(h.ctx, req.ID, adminID, "")
	require.NoError(h.t, err)
}

// buy creates and approves a purchase, returning the settled request.
func (h *harness) buy(investorID, projectID string, shares int64) *domain.Request {
	h.t.Helper()
	req, err := h.requestUC.CreateBuy(h.ctx, usecase.CreateBuyInput{InvestorID: investorID, ProjectID: projectID, Shares: shares})
	require.NoError(h.t, err)
	settled, err := h.settleUC.Approve(h.ctx, req.ID, adminID, "")
	require.NoError(h.t, err)
	return settled
}

func (h *harness) withdrawInput(investorID string, amount int64) usecase.CreateWithdrawInput {
	return usecase.CreateWithdrawInput{
		InvestorID:    investorID,
		Amount:        decimal.NewFromInt(amount),
		IBAN:          "TR330006100519786457841326",
		AccountHolder: "Investor " + investorID,
	}
}

func (h *harness) balance(investorID string) decimal.Decimal {
	h.t.Helper()
	inv, err := h.investors.GetByID(h.ctx, investorID)
	require.NoError(h.t, err)
	return inv.Balance
}

func (h *harness) request(id string) *domain.Request {
	h.t.Helper()
	req, err := h.requests.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return req
}

func (h *harness) funded(projectID string) decimal.Decimal {
	h.t.Helper()
	p, err := h.projects.GetByID(h.ctx, projectID)
	require.NoError(h.t, err)
	return p.FundedAmount
}

func usdQuote(rate string) staticFX {
	return staticFX{quote: domain.FXQuote{
		Pair:      domain.PairUSDTRY,
		Rate:      decimal.RequireFromString(rate),
		FetchedAt: time.Now().UTC(),
	}}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
