package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WarningResponse is returned with 409 when a withdrawal needs acknowledgement.
type WarningResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Check   WithdrawalCheckResponse `json:"withdrawal_check"`
}

// InvestorResponse represents an investor in API responses.
type InvestorResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Balance        decimal.Decimal `json:"balance"`
	BalanceDisplay string          `json:"balance_display"`
	KYCStatus      string          `json:"kyc_status"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InvestorFromDomain converts domain investor to response.
func InvestorFromDomain(i *domain.Investor) *InvestorResponse {
	return &InvestorResponse{
		ID:             i.ID,
		Name:           i.Name,
		Email:          i.Email,
		Balance:        i.Balance,
		BalanceDisplay: FormatTRY(i.Balance),
		KYCStatus:      string(i.KYCStatus),
		Version:        i.Version,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	SharePrice        decimal.Decimal `json:"share_price"`
	MonthlyReturnRate decimal.Decimal `json:"monthly_return_rate"`
	FundingTarget     decimal.Decimal `json:"funding_target"`
	FundedAmount      decimal.Decimal `json:"funded_amount"`
	RemainingCapacity decimal.Decimal `json:"remaining_capacity"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ProjectFromDomain converts domain project to response.
func ProjectFromDomain(p *domain.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:                p.ID,
		Name:              p.Name,
		Type:              string(p.Type),
		SharePrice:        p.SharePrice,
		MonthlyReturnRate: p.MonthlyReturnRate,
		FundingTarget:     p.FundingTarget,
		FundedAmount:      p.FundedAmount,
		RemainingCapacity: p.RemainingCapacity(),
		CreatedAt:         p.CreatedAt,
	}
}

// ProjectsFromDomain converts domain projects to responses.
func ProjectsFromDomain(projects []*domain.Project) []*ProjectResponse {
	result := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = ProjectFromDomain(p)
	}
	return result
}

// HoldingResponse represents a holding in API responses.
type HoldingResponse struct {
	ID               string          `json:"id"`
	ProjectID        string          `json:"project_id"`
	ProjectName      string          `json:"project_name,omitempty"`
	ProjectType      string          `json:"project_type,omitempty"`
	Shares           int64           `json:"shares"`
	Amount           decimal.Decimal `json:"amount"`
	ReturnRate       decimal.Decimal `json:"return_rate"`
	Basis            string          `json:"basis"`
	Tier             string          `json:"tier"`
	MonthlyReturn    decimal.Decimal `json:"monthly_return"`
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	MonthlyReturnUSD decimal.Decimal `json:"monthly_return_usd"`
	PurchasedAt      time.Time       `json:"purchased_at"`
}

// HoldingFromDomain converts a bare holding to response.
func HoldingFromDomain(h *domain.Holding) *HoldingResponse {
	return &HoldingResponse{
		ID:            h.ID,
		ProjectID:     h.ProjectID,
		Shares:        h.Shares,
		Amount:        h.CostBasis,
		ReturnRate:    h.ReturnRate,
		Basis:         string(h.Basis),
		Tier:          h.TierName,
		MonthlyReturn: h.MonthlyReturn(),
		PurchasedAt:   h.PurchasedAt,
	}
}

func holdingFromView(v domain.HoldingView) *HoldingResponse {
	resp := HoldingFromDomain(v.Holding)
	resp.ProjectName = v.ProjectName
	resp.ProjectType = string(v.ProjectType)
	resp.MonthlyReturn = v.MonthlyReturn
	resp.AmountUSD = v.AmountUSD
	resp.MonthlyReturnUSD = v.MonthlyReturnUSD
	return resp
}

// ProjectBreakdownResponse sums holdings of one project.
type ProjectBreakdownResponse struct {
	ProjectID     string          `json:"project_id"`
	ProjectName   string          `json:"project_name"`
	ProjectType   string          `json:"project_type"`
	Shares        int64           `json:"shares"`
	Invested      decimal.Decimal `json:"invested"`
	MonthlyReturn decimal.Decimal `json:"monthly_return"`
	Holdings      int             `json:"holdings"`
}

// PortfolioResponse represents an investor portfolio in API responses.
type PortfolioResponse struct {
	InvestorID                   string                     `json:"investor_id"`
	Balance                      decimal.Decimal            `json:"balance"`
	BalanceDisplay               string                     `json:"balance_display"`
	TotalInvested                decimal.Decimal            `json:"total_invested"`
	TotalInvestedDisplay         string                     `json:"total_invested_display"`
	TotalShares                  int64                      `json:"total_shares"`
	TotalMonthlyReturn           decimal.Decimal            `json:"total_monthly_return"`
	TotalInvestedUSD             decimal.Decimal            `json:"total_invested_usd"`
	TotalMonthlyReturnUSD        decimal.Decimal            `json:"total_monthly_return_usd"`
	TotalMonthlyReturnUSDDisplay string                     `json:"total_monthly_return_usd_display"`
	USDRate                      decimal.Decimal            `json:"usd_rate"`
	RateStale                    bool                       `json:"rate_stale"`
	Projects                     []ProjectBreakdownResponse `json:"projects"`
	Investments                  []*HoldingResponse         `json:"investments"`
}

// PortfolioFromDomain converts a portfolio summary to response.
func PortfolioFromDomain(s domain.PortfolioSummary) *PortfolioResponse {
	resp := &PortfolioResponse{
		InvestorID:                   s.InvestorID,
		Balance:                      s.Balance,
		BalanceDisplay:               FormatTRY(s.Balance),
		TotalInvested:                s.TotalInvested,
		TotalInvestedDisplay:         FormatTRY(s.TotalInvested),
		TotalShares:                  s.TotalShares,
		TotalMonthlyReturn:           s.TotalMonthlyReturn,
		TotalInvestedUSD:             s.TotalInvestedUSD,
		TotalMonthlyReturnUSD:        s.TotalMonthlyReturnUSD,
		TotalMonthlyReturnUSDDisplay: FormatUSD(s.TotalMonthlyReturnUSD),
		USDRate:                      s.USDRate,
		RateStale:                    s.RateStale,
		Projects:                     make([]ProjectBreakdownResponse, len(s.Projects)),
		Investments:                  make([]*HoldingResponse, len(s.Holdings)),
	}
	for i, p := range s.Projects {
		resp.Projects[i] = ProjectBreakdownResponse{
			ProjectID:     p.ProjectID,
			ProjectName:   p.ProjectName,
			ProjectType:   string(p.ProjectType),
			Shares:        p.Shares,
			Invested:      p.Invested,
			MonthlyReturn: p.MonthlyReturn,
			Holdings:      p.Holdings,
		}
	}
	for i, v := range s.Holdings {
		resp.Investments[i] = holdingFromView(v)
	}
	return resp
}

// WithdrawalCheckResponse lists holdings still inside the holding period.
type WithdrawalCheckResponse struct {
	HasRecentInvestments bool               `json:"has_recent_investments"`
	RecentInvestments    []*HoldingResponse `json:"recent_investments"`
	HoldingPeriodDays    int                `json:"holding_period_days"`
}

// WithdrawalCheckFromDomain converts a withdrawal check to response.
func WithdrawalCheckFromDomain(c domain.WithdrawalCheck) WithdrawalCheckResponse {
	resp := WithdrawalCheckResponse{
		HasRecentInvestments: c.HasRecentInvestments,
		RecentInvestments:    make([]*HoldingResponse, len(c.RecentInvestments)),
		HoldingPeriodDays:    int(c.HoldingPeriod / (24 * time.Hour)),
	}
	for i, h := range c.RecentInvestments {
		resp.RecentInvestments[i] = HoldingFromDomain(h)
	}
	return resp
}

// BankDetailsResponse is the payout destination of a withdrawal.
type BankDetailsResponse struct {
	BankID        string `json:"bank_id,omitempty"`
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban"`
	AccountHolder string `json:"account_holder"`
	Source        string `json:"source"`
}

// RequestResponse represents a request in API responses. Sell requests also
// carry sold_shares and sold_amount.
type RequestResponse struct {
	ID                string               `json:"id"`
	InvestorID        string               `json:"investor_id"`
	Type              string               `json:"type"`
	Status            string               `json:"status"`
	Amount            decimal.Decimal      `json:"amount"`
	AmountDisplay     string               `json:"amount_display"`
	Shares            int64                `json:"shares,omitempty"`
	ProjectID         string               `json:"project_id,omitempty"`
	HoldingID         string               `json:"holding_id,omitempty"`
	SoldShares        int64                `json:"sold_shares,omitempty"`
	SoldAmount        *decimal.Decimal     `json:"sold_amount,omitempty"`
	WithdrawalDetails *BankDetailsResponse `json:"withdrawal_details,omitempty"`
	Reason            string               `json:"reason,omitempty"`
	DecidedBy         string               `json:"decided_by,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	DecidedAt         *time.Time           `json:"decided_at,omitempty"`
}

// RequestFromDomain converts domain request to response.
func RequestFromDomain(r *domain.Request) *RequestResponse {
	resp := &RequestResponse{
		ID:            r.ID,
		InvestorID:    r.InvestorID,
		Type:          string(r.Kind),
		Status:        string(r.Status),
		Amount:        r.Amount,
		AmountDisplay: FormatTRY(r.Amount),
		Shares:        r.Shares,
		ProjectID:     r.ProjectID,
		HoldingID:     r.HoldingID,
		Reason:        r.Reason,
		DecidedBy:     r.DecidedBy,
		CreatedAt:     r.CreatedAt,
		DecidedAt:     r.DecidedAt,
	}
	if r.Kind == domain.RequestKindSell {
		amount := r.Amount
		resp.SoldShares = r.Shares
		resp.SoldAmount = &amount
	}
	if r.Bank != nil {
		resp.WithdrawalDetails = &BankDetailsResponse{
			BankID:        r.Bank.BankID,
			BankName:      r.Bank.BankName,
			IBAN:          r.Bank.IBAN,
			AccountHolder: r.Bank.AccountHolder,
			Source:        r.Bank.Source,
		}
	}
	return resp
}

// RequestsFromDomain converts domain requests to responses.
func RequestsFromDomain(requests []*domain.Request) []*RequestResponse {
	result := make([]*RequestResponse, len(requests))
	for i, r := range requests {
		result[i] = RequestFromDomain(r)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string          `json:"id"`
	InvestorID      string          `json:"investor_id"`
	RequestID       string          `json:"request_id"`
	Amount          decimal.Decimal `json:"amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &EntryResponse{
			ID:              e.ID,
			InvestorID:      e.InvestorID,
			RequestID:       e.RequestID,
			Amount:          e.Amount,
			PreviousBalance: e.PreviousBalance,
			CurrentBalance:  e.CurrentBalance,
			Version:         e.Version,
			CreatedAt:       e.CreatedAt,
		}
	}
	return result
}

// BankResponse represents a system bank in API responses.
type BankResponse struct {
	ID            string `json:"bank_id"`
	Name          string `json:"name"`
	IBAN          string `json:"iban"`
	AccountHolder string `json:"account_holder"`
	IsActive      bool   `json:"is_active"`
}

// BankFromDomain converts domain bank to response.
func BankFromDomain(b *domain.Bank) *BankResponse {
	return &BankResponse{ID: b.ID, Name: b.Name, IBAN: b.IBAN, AccountHolder: b.AccountHolder, IsActive: b.IsActive}
}

// BanksFromDomain converts domain banks to responses.
func BanksFromDomain(banks []*domain.Bank) []*BankResponse {
	result := make([]*BankResponse, len(banks))
	for i, b := range banks {
		result[i] = BankFromDomain(b)
	}
	return result
}

// FXResponse is the public USD/TRY quote.
type FXResponse struct {
	Pair       string          `json:"pair"`
	Rate       decimal.Decimal `json:"rate"`
	SharePrice decimal.Decimal `json:"share_price"`
	FetchedAt  *time.Time      `json:"fetched_at,omitempty"`
	Stale      bool            `json:"stale"`
}

// FXFromDomain converts an FX quote to response.
func FXFromDomain(q domain.FXQuote, sharePrice decimal.Decimal) *FXResponse {
	resp := &FXResponse{Pair: domain.PairUSDTRY, Rate: q.Rate, SharePrice: sharePrice, Stale: q.Stale}
	if !q.FetchedAt.IsZero() {
		at := q.FetchedAt
		resp.FetchedAt = &at
	}
	return resp
}

// TierResponse is one row of the return tier table.
type TierResponse struct {
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MinShares int64           `json:"min_shares"`
	Rate      decimal.Decimal `json:"rate"`
	Basis     string          `json:"basis"`
}

// TiersFromDomain converts the tier table to rows. MinShares is the first
// share count reaching the tier at sharePrice.
func TiersFromDomain(table *domain.TierTable, sharePrice decimal.Decimal) []TierResponse {
	tiers := table.Tiers()
	result := make([]TierResponse, len(tiers))
	for i, t := range tiers {
		minShares := int64(1)
		if sharePrice.IsPositive() && t.MinAmount.IsPositive() {
			minShares = t.MinAmount.Div(sharePrice).Ceil().IntPart()
		}
		result[i] = TierResponse{
			Name:      t.Name,
			MinAmount: t.MinAmount,
			MinShares: minShares,
			Rate:      t.Rate,
			Basis:     string(t.Basis),
		}
	}
	return result
}

// InvestorOverviewResponse is an admin console row.
type InvestorOverviewResponse struct {
	Investor           *InvestorResponse `json:"investor"`
	TotalInvested      decimal.Decimal   `json:"total_invested"`
	TotalShares        int64             `json:"total_shares"`
	TotalMonthlyReturn decimal.Decimal   `json:"total_monthly_return"`
	Holdings           int               `json:"holdings"`
}

// OverviewFromDomain converts admin overview rows to responses.
func OverviewFromDomain(rows []usecase.InvestorOverview) []*InvestorOverviewResponse {
	result := make([]*InvestorOverviewResponse, len(rows))
	for i, row := range rows {
		result[i] = &InvestorOverviewResponse{
			Investor:           InvestorFromDomain(row.Investor),
			TotalInvested:      row.Portfolio.TotalInvested,
			TotalShares:        row.Portfolio.TotalShares,
			TotalMonthlyReturn: row.Portfolio.TotalMonthlyReturn,
			Holdings:           len(row.Portfolio.Holdings),
		}
	}
	return result
}

// DiscrepancyResponse is one mismatch found by reconciliation.
type DiscrepancyResponse struct {
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Recorded     decimal.Decimal `json:"recorded"`
	Calculated   decimal.Decimal `json:"calculated"`
	Difference   decimal.Decimal `json:"difference"`
}

// ReconciliationResponse is the invariant report.
type ReconciliationResponse struct {
	Consistent       bool                  `json:"consistent"`
	InvestorsChecked int                   `json:"investors_checked"`
	ProjectsChecked  int                   `json:"projects_checked"`
	Discrepancies    []DiscrepancyResponse `json:"discrepancies"`
	CheckedAt        time.Time             `json:"checked_at"`
}

// ReconciliationFromDomain converts a reconciliation report to response.
func ReconciliationFromDomain(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		Consistent:       r.Consistent,
		InvestorsChecked: r.InvestorsChecked,
		ProjectsChecked:  r.ProjectsChecked,
		Discrepancies:    make([]DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:        r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = DiscrepancyResponse{
			ResourceType: d.ResourceType,
			ResourceID:   d.ResourceID,
			Recorded:     d.Recorded,
			Calculated:   d.Calculated,
			Difference:   d.Difference,
		}
	}
	return resp
}
