package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
	"github.com/iho/gesledger/internal/usecase/mocks"
)

func TestPortfolioStore_Aggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	fx := mocks.NewMockFXProvider(ctrl)
	fx.EXPECT().CurrentRate(gomock.Any()).Return(domain.FXQuote{
		Pair:      domain.PairUSDTRY,
		Rate:      decimal.NewFromInt(32),
		FetchedAt: time.Now().UTC(),
	}, nil)

	h := newHarness(t, fx)
	h.investor("inv-1", domain.KYCStatusApproved)
	solar := h.project("Konya GES", 1_000_000)
	wind := h.project("Izmir RES", 1_000_000)
	h.fund("inv-1", 400_000)
	h.buy("inv-1", solar.ID, 4)
	h.buy("inv-1", wind.ID, 10)

	summary, err := h.portfolio.Aggregate(h.ctx, "inv-1")
	require.NoError(t, err)

	assert.True(t, summary.Balance.Equal(dec(50_000)))
	assert.True(t, summary.TotalInvested.Equal(dec(350_000)))
	assert.Equal(t, int64(14), summary.TotalShares)
	assert.True(t, summary.TotalMonthlyReturn.Equal(dec(27_000)), summary.TotalMonthlyReturn.String())
	assert.True(t, summary.TotalInvestedUSD.Equal(decimal.RequireFromString("10937.5")))
	assert.True(t, summary.TotalMonthlyReturnUSD.Equal(decimal.RequireFromString("843.75")))
	assert.False(t, summary.RateStale)

	require.Len(t, summary.Projects, 2)
	assert.Equal(t, solar.ID, summary.Projects[0].ProjectID)
	assert.Equal(t, "Konya GES", summary.Projects[0].ProjectName)
	assert.True(t, summary.Projects[0].MonthlyReturn.Equal(dec(7_000)))
	assert.Equal(t, wind.ID, summary.Projects[1].ProjectID)
	assert.True(t, summary.Projects[1].MonthlyReturn.Equal(dec(20_000)))
	require.Len(t, summary.Holdings, 2)
}

func TestPortfolioStore_AggregateWithoutFX(t *testing.T) {
	ctrl := gomock.NewController(t)
	fx := mocks.NewMockFXProvider(ctrl)
	fx.EXPECT().CurrentRate(gomock.Any()).Return(domain.FXQuote{}, errors.New("upstream timeout"))

	h := newHarness(t, fx)
	h.investor("inv-1", domain.KYCStatusApproved)
	p := h.project("Konya GES", 1_000_000)
	h.fund("inv-1", 25_000)
	h.buy("inv-1", p.ID, 1)

	summary, err := h.portfolio.Aggregate(h.ctx, "inv-1")
	require.NoError(t, err, "a failing rate source must not fail the read")
	assert.True(t, summary.RateStale)
	assert.True(t, summary.USDRate.IsZero())
	assert.True(t, summary.TotalInvestedUSD.IsZero())
	assert.True(t, summary.TotalInvested.Equal(dec(25_000)))
}

func TestPortfolioStore_AggregateEmpty(t *testing.T) {
	h := newHarness(t, usdQuote("30"))
	h.investor("inv-1", domain.KYCStatusNone)

	summary, err := h.portfolio.Aggregate(h.ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, summary.TotalInvested.IsZero())
	assert.Empty(t, summary.Projects)
	assert.Empty(t, summary.Holdings)

	_, err = h.portfolio.Aggregate(h.ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrInvestorNotFound)
}

func TestPortfolioStore_CheckWithdrawal(t *testing.T) {
	h := newHarness(t, nil)
	h.investor("inv-1", domain.KYCStatusApproved)

	check, err := h.portfolio.CheckWithdrawal(h.ctx, "inv-1")
	require.NoError(t, err)
	assert.False(t, check.HasRecentInvestments)

	p := h.project("Konya GES", 1_000_000)
	h.fund("inv-1", 25_000)
	h.buy("inv-1", p.ID, 1)

	check, err = h.portfolio.CheckWithdrawal(h.ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, check.HasRecentInvestments)
	assert.Len(t, check.RecentInvestments, 1)
}

func TestPortfolioStore_ReduceHoldingChecksOwner(t *testing.T) {
	h := newHarness(t, nil)
	h.investor("inv-1", domain.KYCStatusApproved)
	p := h.project("Konya GES", 1_000_000)
	h.fund("inv-1", 50_000)
	bought := h.buy("inv-1", p.ID, 2)

	tx, err := h.txManager.Begin(h.ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(h.ctx) }()

	_, _, err = h.portfolio.ReduceHolding(h.ctx, tx, "inv-2", bought.HoldingID, 1, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)

	_, _, err = h.portfolio.ReduceHolding(h.ctx, tx, "inv-1", bought.HoldingID, 0, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrInvalidShares)

	holding, removed, err := h.portfolio.ReduceHolding(h.ctx, tx, "inv-1", bought.HoldingID, 1, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, removed.Equal(dec(25_000)))
	assert.Equal(t, int64(1), holding.Shares)
}

func TestPortfolioStore_ReduceHoldingRejectsFundedMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	projects := mocks.NewMockProjectRepository(ctrl)
	holdings := mocks.NewMockHoldingRepository(ctrl)

	holdings.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "hld-1").Return(&domain.Holding{
		ID:         "hld-1",
		InvestorID: "inv-1",
		ProjectID:  "prj-1",
		Shares:     2,
		CostBasis:  decimal.NewFromInt(50_000),
	}, nil)
	projects.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "prj-1").Return(&domain.Project{
		ID:           "prj-1",
		FundedAmount: decimal.NewFromInt(10_000),
	}, nil)

	store := usecase.NewPortfolioStore(nil, projects, holdings, nil, nil, nil, 0, zerolog.Nop())
	_, _, err := store.ReduceHolding(context.Background(), nil, "inv-1", "hld-1", 2, time.Now().UTC())

	assert.ErrorIs(t, err, domain.ErrFundedAmountMismatch)
	assert.False(t, domain.IsRevalidationError(err), "a broken funded invariant is not a stale request")
}
