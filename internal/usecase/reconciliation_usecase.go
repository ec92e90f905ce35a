package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
)

// ReconciliationUseCase checks the ledger and portfolio invariants against
// the stored aggregates.
type ReconciliationUseCase struct {
	investorRepo InvestorRepository
	projectRepo  ProjectRepository
	holdingRepo  HoldingRepository
	entryRepo    EntryRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	investorRepo InvestorRepository,
	projectRepo ProjectRepository,
	holdingRepo HoldingRepository,
	entryRepo EntryRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		investorRepo: investorRepo,
		projectRepo:  projectRepo,
		holdingRepo:  holdingRepo,
		entryRepo:    entryRepo,
	}
}

// ReconciliationResult compares a stored figure with its recomputation.
type ReconciliationResult struct {
	ResourceType string
	ResourceID   string
	Recorded     decimal.Decimal
	Calculated   decimal.Decimal
	Difference   decimal.Decimal
	IsReconciled bool
}

func newResult(resourceType, id string, recorded, calculated decimal.Decimal) *ReconciliationResult {
	diff := recorded.Sub(calculated)
	return &ReconciliationResult{
		ResourceType: resourceType,
		ResourceID:   id,
		Recorded:     recorded,
		Calculated:   calculated,
		Difference:   diff,
		IsReconciled: diff.IsZero(),
	}
}

// ReconcileInvestors compares every investor balance with the sum of their
// ledger entries. Balances are never negative.
func (uc *ReconciliationUseCase) ReconcileInvestors(ctx context.Context) ([]*ReconciliationResult, error) {
	investors, err := uc.investorRepo.List(ctx, domain.MaxPageSize, 0)
	if err != nil {
		return nil, err
	}

	sums, err := uc.entryRepo.SumByInvestor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	results := make([]*ReconciliationResult, 0, len(investors))
	for _, inv := range investors {
		calculated, ok := sums[inv.ID]
		if !ok {
			calculated = decimal.Zero
		}
		result := newResult(domain.AggregateTypeInvestor, inv.ID, inv.Balance, calculated)
		if inv.Balance.IsNegative() {
			result.IsReconciled = false
		}
		results = append(results, result)
	}

	return results, nil
}

// ReconcileProjects compares every project's funded amount with the sum of
// cost basis of its holdings.
func (uc *ReconciliationUseCase) ReconcileProjects(ctx context.Context) ([]*ReconciliationResult, error) {
	projects, err := uc.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	sums, err := uc.holdingRepo.SumCostBasisByProject(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum holdings: %w", err)
	}

	results := make([]*ReconciliationResult, 0, len(projects))
	for _, p := range projects {
		calculated, ok := sums[p.ID]
		if !ok {
			calculated = decimal.Zero
		}
		results = append(results, newResult("project", p.ID, p.FundedAmount, calculated))
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	InvestorsChecked int
	ProjectsChecked  int
	Discrepancies    []*ReconciliationResult
	Consistent       bool
	CheckedAt        time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	investors, err := uc.ReconcileInvestors(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := uc.ReconcileProjects(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		InvestorsChecked: len(investors),
		ProjectsChecked:  len(projects),
		Discrepancies:    make([]*ReconciliationResult, 0),
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range append(investors, projects...) {
		if !result.IsReconciled {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}
	report.Consistent = len(report.Discrepancies) == 0

	return report, nil
}
