package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
)

// PortfolioStore owns holdings and keeps Project.FundedAmount equal to the
// sum of cost basis of the holdings referencing each project.
type PortfolioStore struct {
	investorRepo  InvestorRepository
	projectRepo   ProjectRepository
	holdingRepo   HoldingRepository
	tiers         *domain.TierTable
	fx            FXProvider
	idGen         IDGenerator
	holdingPeriod time.Duration
	logger        zerolog.Logger
}

// NewPortfolioStore creates a new PortfolioStore.
func NewPortfolioStore(
	investorRepo InvestorRepository,
	projectRepo ProjectRepository,
	holdingRepo HoldingRepository,
	tiers *domain.TierTable,
	fx FXProvider,
	idGen IDGenerator,
	holdingPeriod time.Duration,
	logger zerolog.Logger,
) *PortfolioStore {
	if tiers == nil {
		tiers = domain.DefaultTierTable()
	}
	if holdingPeriod <= 0 {
		holdingPeriod = DefaultHoldingPeriod
	}
	return &PortfolioStore{
		investorRepo:  investorRepo,
		projectRepo:   projectRepo,
		holdingRepo:   holdingRepo,
		tiers:         tiers,
		fx:            fx,
		idGen:         idGen,
		holdingPeriod: holdingPeriod,
		logger:        logger,
	}
}

// Tiers returns the table used for settlement and display.
func (s *PortfolioStore) Tiers() *domain.TierTable {
	return s.tiers
}

// AddHolding creates a holding with the tier resolved from costBasis and funds
// project, which the caller has locked inside tx.
func (s *PortfolioStore) AddHolding(ctx context.Context, tx Transaction, investorID string, project *domain.Project, shares int64, costBasis decimal.Decimal, at time.Time) (*domain.Holding, error) {
	if shares <= 0 {
		return nil, domain.ErrInvalidShares
	}
	if costBasis.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if err := project.ValidateFunding(costBasis); err != nil {
		return nil, err
	}

	holding, err := domain.NewHolding(s.idGen.Generate(), investorID, project.ID, shares, costBasis, s.tiers.Resolve(costBasis), at)
	if err != nil {
		return nil, err
	}
	if err := s.holdingRepo.Create(ctx, tx, holding); err != nil {
		return nil, err
	}

	funded := project.FundedAmount.Add(costBasis)
	if err := s.projectRepo.UpdateFundedAmount(ctx, tx, project.ID, funded, at); err != nil {
		return nil, err
	}
	project.FundedAmount = funded
	project.UpdatedAt = at

	return holding, nil
}

// ReduceHolding sells shares from a holding of investorID and returns the
// basis removed. Holdings reaching zero shares are deleted. Locks the holding
// and then its project inside tx.
func (s *PortfolioStore) ReduceHolding(ctx context.Context, tx Transaction, investorID, holdingID string, shares int64, at time.Time) (*domain.Holding, decimal.Decimal, error) {
	if shares <= 0 {
		return nil, decimal.Zero, domain.ErrInvalidShares
	}

	holding, err := s.holdingRepo.GetByIDForUpdate(ctx, tx, holdingID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if holding.InvestorID != investorID {
		return nil, decimal.Zero, domain.ErrHoldingNotFound
	}

	project, err := s.projectRepo.GetByIDForUpdate(ctx, tx, holding.ProjectID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	removed, err := holding.Reduce(shares, at)
	if err != nil {
		return nil, decimal.Zero, err
	}

	funded := project.FundedAmount.Sub(removed)
	if funded.IsNegative() {
		s.logger.Error().
			Str("project_id", project.ID).
			Str("holding_id", holding.ID).
			Str("funded_amount", project.FundedAmount.String()).
			Str("removed_basis", removed.String()).
			Msg("funded amount below holding cost basis")
		return nil, decimal.Zero, domain.ErrFundedAmountMismatch
	}

	if holding.IsEmpty() {
		err = s.holdingRepo.Delete(ctx, tx, holding.ID)
	} else {
		err = s.holdingRepo.Update(ctx, tx, holding)
	}
	if err != nil {
		return nil, decimal.Zero, err
	}

	if err := s.projectRepo.UpdateFundedAmount(ctx, tx, project.ID, funded, at); err != nil {
		return nil, decimal.Zero, err
	}

	return holding, removed, nil
}

// Aggregate builds the portfolio summary of an investor. A failing FX
// provider degrades the USD figures to zero instead of failing the read.
func (s *PortfolioStore) Aggregate(ctx context.Context, investorID string) (domain.PortfolioSummary, error) {
	investor, err := s.investorRepo.GetByID(ctx, investorID)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}

	holdings, err := s.holdingRepo.ListByInvestor(ctx, investorID)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}
	byID := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	return domain.AggregatePortfolio(investor, holdings, byID, s.quote(ctx)), nil
}

// CheckWithdrawal lists the holdings of investorID bought within the holding period.
func (s *PortfolioStore) CheckWithdrawal(ctx context.Context, investorID string) (domain.WithdrawalCheck, error) {
	if _, err := s.investorRepo.GetByID(ctx, investorID); err != nil {
		return domain.WithdrawalCheck{}, err
	}

	holdings, err := s.holdingRepo.ListByInvestor(ctx, investorID)
	if err != nil {
		return domain.WithdrawalCheck{}, err
	}

	return domain.NewWithdrawalCheck(holdings, s.holdingPeriod, time.Now().UTC()), nil
}

func (s *PortfolioStore) quote(ctx context.Context) domain.FXQuote {
	if s.fx == nil {
		return domain.FXQuote{Pair: domain.PairUSDTRY, Stale: true}
	}
	q, err := s.fx.CurrentRate(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("fx rate unavailable, USD figures omitted")
		return domain.FXQuote{Pair: domain.PairUSDTRY, Stale: true}
	}
	return q
}
