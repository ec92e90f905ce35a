package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/adapter/repository/postgres"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	pgInfra "github.com/iho/gesledger/internal/infrastructure/postgres"
	"github.com/iho/gesledger/internal/usecase"
)

const migrationsPath = "../../../../migrations"

// openTestPool connects to TEST_DATABASE_URL, migrates it and empties every table.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, pgInfra.RunMigrations(dbURL, migrationsPath, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgInfra.NewPool(ctx, dbURL, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE audit_logs, outbox_events, entries, requests, banks, holdings, projects, investors`)
	require.NoError(t, err)
	return pool
}

type integrationApp struct {
	request   *usecase.RequestUseCase
	settle    *usecase.SettlementUseCase
	investor  *usecase.InvestorUseCase
	catalog   *usecase.CatalogUseCase
	recon     *usecase.ReconciliationUseCase
	investors *postgres.InvestorRepository
}

func newIntegrationApp(pool *pgxpool.Pool) *integrationApp {
	log := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())
	idGen := postgres.NewULIDGenerator()

	investors := postgres.NewInvestorRepository(pool)
	projects := postgres.NewProjectRepository(pool)
	holdings := postgres.NewHoldingRepository(pool)
	requests := postgres.NewRequestRepository(pool)
	entries := postgres.NewEntryRepository(pool)
	banks := postgres.NewBankRepository(pool)
	outbox := postgres.NewOutboxRepository(pool)
	audit := postgres.NewAuditRepository(pool)
	txManager := postgres.NewTxManager(pool)

	portfolio := usecase.NewPortfolioStore(investors, projects, holdings, domain.DefaultTierTable(), nil, idGen, usecase.DefaultHoldingPeriod, log)
	ledger := usecase.NewLedger(investors, entries, idGen)
	return &integrationApp{
		request:   usecase.NewRequestUseCase(txManager, investors, projects, holdings, requests, banks, outbox, audit, portfolio, idGen, m, log),
		settle:    usecase.NewSettlementUseCase(txManager, investors, projects, requests, outbox, audit, ledger, portfolio, postgres.NewRetrier(log, m), idGen, m, log),
		investor:  usecase.NewInvestorUseCase(investors, audit, portfolio, idGen, log),
		catalog:   usecase.NewCatalogUseCase(projects, banks, audit, idGen, domain.DefaultSharePrice, log),
		recon:     usecase.NewReconciliationUseCase(investors, projects, holdings, entries),
		investors: investors,
	}
}

func TestIntegration_ConcurrentBuysNeverOverdraw(t *testing.T) {
	pool := openTestPool(t)
	app := newIntegrationApp(pool)
	ctx := context.Background()

	_, err := app.investor.Register(ctx, "admin-1", usecase.RegisterInvestorInput{
		ID: "inv-1", Name: "Ayse", Email: "ayse@example.com", KYCStatus: domain.KYCStatusApproved,
	})
	require.NoError(t, err)
	project, err := app.catalog.CreateProject(ctx, "admin-1", usecase.CreateProjectInput{
		Name: "Konya GES", Type: domain.ProjectTypeSolar,
		MonthlyReturnRate: decimal.NewFromInt(7), FundingTarget: decimal.NewFromInt(10_000_000),
	})
	require.NoError(t, err)

	deposit, err := app.request.CreateDeposit(ctx, usecase.CreateDepositInput{InvestorID: "inv-1", Amount: decimal.NewFromInt(100_000)})
	require.NoError(t, err)
	_, err = app.settle.Approve(ctx, deposit.ID, "admin-1", "")
	require.NoError(t, err)

	// Each buy costs 25000, so only four of ten fit the balance.
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		req, err := app.request.CreateBuy(ctx, usecase.CreateBuyInput{InvestorID: "inv-1", ProjectID: project.ID, Shares: 1})
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = app.settle.Approve(ctx, id, "admin-1", "")
		}(id)
	}
	wg.Wait()

	inv, err := app.investors.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, inv.Balance.IsZero(), inv.Balance.String())

	report, err := app.recon.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent, "%+v", report.Discrepancies)
}

func TestIntegration_ApproveTwice(t *testing.T) {
	pool := openTestPool(t)
	app := newIntegrationApp(pool)
	ctx := context.Background()

	_, err := app.investor.Register(ctx, "admin-1", usecase.RegisterInvestorInput{
		ID: "inv-1", Name: "Ayse", Email: "ayse@example.com", KYCStatus: domain.KYCStatusApproved,
	})
	require.NoError(t, err)

	deposit, err := app.request.CreateDeposit(ctx, usecase.CreateDepositInput{InvestorID: "inv-1", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	_, err = app.settle.Approve(ctx, deposit.ID, "admin-1", "")
	require.NoError(t, err)
	_, err = app.settle.Approve(ctx, deposit.ID, "admin-1", "")
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	inv, err := app.investors.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, inv.Balance.Equal(decimal.NewFromInt(500)))
}
