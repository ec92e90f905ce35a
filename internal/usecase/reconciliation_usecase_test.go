package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
	"github.com/iho/gesledger/internal/usecase/mocks"
)

func TestReconciliation_ConsistentAfterSettlements(t *testing.T) {
	h := newHarness(t, nil)
	h.investor("inv-1", domain.KYCStatusApproved)
	h.investor("inv-2", domain.KYCStatusApproved)
	p := h.project("Konya GES", 1_000_000)
	h.fund("inv-1", 100_000)
	h.fund("inv-2", 300_000)
	bought := h.buy("inv-1", p.ID, 3)
	h.buy("inv-2", p.ID, 10)

	sell, err := h.requestUC.CreateSell(h.ctx, usecase.CreateSellInput{InvestorID: "inv-1", HoldingID: bought.HoldingID, Shares: 1})
	require.NoError(t, err)
	_, err = h.settleUC.Approve(h.ctx, sell.ID, adminID, "")
	require.NoError(t, err)

	report, err := h.reconUC.GenerateReconciliationReport(h.ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.InvestorsChecked)
	assert.Equal(t, 1, report.ProjectsChecked)
	assert.Empty(t, report.Discrepancies)
	assert.True(t, h.funded(p.ID).Equal(dec(300_000)))
}

func TestReconciliation_ReportsDiscrepancies(t *testing.T) {
	ctrl := gomock.NewController(t)
	investors := mocks.NewMockInvestorRepository(ctrl)
	projects := mocks.NewMockProjectRepository(ctrl)
	holdings := mocks.NewMockHoldingRepository(ctrl)
	entries := mocks.NewMockEntryRepository(ctrl)

	investors.EXPECT().List(gomock.Any(), domain.MaxPageSize, 0).Return([]*domain.Investor{
		{ID: "inv-1", Balance: decimal.NewFromInt(100)},
		{ID: "inv-2", Balance: decimal.NewFromInt(50)},
		{ID: "inv-3", Balance: decimal.Zero},
	}, nil)
	entries.EXPECT().SumByInvestor(gomock.Any()).Return(map[string]decimal.Decimal{
		"inv-1": decimal.NewFromInt(100),
		"inv-2": decimal.NewFromInt(40),
	}, nil)
	projects.EXPECT().List(gomock.Any()).Return([]*domain.Project{
		{ID: "prj-1", FundedAmount: decimal.NewFromInt(75_000)},
		{ID: "prj-2", FundedAmount: decimal.Zero},
	}, nil)
	holdings.EXPECT().SumCostBasisByProject(gomock.Any()).Return(map[string]decimal.Decimal{
		"prj-1": decimal.NewFromInt(50_000),
	}, nil)

	uc := usecase.NewReconciliationUseCase(investors, projects, holdings, entries)
	report, err := uc.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Consistent)
	require.Len(t, report.Discrepancies, 2)

	assert.Equal(t, domain.AggregateTypeInvestor, report.Discrepancies[0].ResourceType)
	assert.Equal(t, "inv-2", report.Discrepancies[0].ResourceID)
	assert.True(t, report.Discrepancies[0].Difference.Equal(decimal.NewFromInt(10)))

	assert.Equal(t, "project", report.Discrepancies[1].ResourceType)
	assert.Equal(t, "prj-1", report.Discrepancies[1].ResourceID)
	assert.True(t, report.Discrepancies[1].Difference.Equal(decimal.NewFromInt(25_000)))
}

func TestReconciliation_NegativeBalanceIsNeverReconciled(t *testing.T) {
	ctrl := gomock.NewController(t)
	investors := mocks.NewMockInvestorRepository(ctrl)
	entries := mocks.NewMockEntryRepository(ctrl)

	investors.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*domain.Investor{
		{ID: "inv-1", Balance: decimal.NewFromInt(-5)},
	}, nil)
	entries.EXPECT().SumByInvestor(gomock.Any()).Return(map[string]decimal.Decimal{
		"inv-1": decimal.NewFromInt(-5),
	}, nil)

	uc := usecase.NewReconciliationUseCase(investors, nil, nil, entries)
	results, err := uc.ReconcileInvestors(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsReconciled)
}
