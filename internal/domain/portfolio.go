package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HoldingView is a holding enriched with advisory USD figures.
type HoldingView struct {
	Holding          *Holding
	ProjectName      string
	ProjectType      ProjectType
	MonthlyReturn    decimal.Decimal
	AmountUSD        decimal.Decimal
	MonthlyReturnUSD decimal.Decimal
}

// ProjectBreakdown sums an investor's holdings of one project.
type ProjectBreakdown struct {
	ProjectID     string
	ProjectName   string
	ProjectType   ProjectType
	Shares        int64
	Invested      decimal.Decimal
	MonthlyReturn decimal.Decimal
	Holdings      int
}

// PortfolioSummary is the read model of an investor's portfolio.
type PortfolioSummary struct {
	InvestorID            string
	Balance               decimal.Decimal
	TotalInvested         decimal.Decimal
	TotalShares           int64
	TotalMonthlyReturn    decimal.Decimal
	TotalInvestedUSD      decimal.Decimal
	TotalMonthlyReturnUSD decimal.Decimal
	USDRate               decimal.Decimal
	RateStale             bool
	Projects              []ProjectBreakdown
	Holdings              []HoldingView
}

// AggregatePortfolio folds holdings into a summary. projects supplies display
// names; missing projects leave the name empty. USD figures use quote.
func AggregatePortfolio(investor *Investor, holdings []*Holding, projects map[string]*Project, quote FXQuote) PortfolioSummary {
	summary := PortfolioSummary{
		InvestorID:            investor.ID,
		Balance:               investor.Balance,
		TotalInvested:         decimal.Zero,
		TotalMonthlyReturn:    decimal.Zero,
		TotalInvestedUSD:      decimal.Zero,
		TotalMonthlyReturnUSD: decimal.Zero,
		USDRate:               quote.Rate,
		RateStale:             quote.Stale,
		Projects:              []ProjectBreakdown{},
		Holdings:              make([]HoldingView, 0, len(holdings)),
	}

	byProject := make(map[string]*ProjectBreakdown)
	for _, h := range holdings {
		monthly := h.MonthlyReturn()
		view := HoldingView{
			Holding:          h,
			MonthlyReturn:    monthly,
			AmountUSD:        quote.ToUSD(h.CostBasis),
			MonthlyReturnUSD: quote.ToUSD(monthly),
		}
		if p, ok := projects[h.ProjectID]; ok {
			view.ProjectName = p.Name
			view.ProjectType = p.Type
		}
		summary.Holdings = append(summary.Holdings, view)

		summary.TotalInvested = summary.TotalInvested.Add(h.CostBasis)
		summary.TotalShares += h.Shares
		summary.TotalMonthlyReturn = summary.TotalMonthlyReturn.Add(monthly)

		b, ok := byProject[h.ProjectID]
		if !ok {
			b = &ProjectBreakdown{
				ProjectID:     h.ProjectID,
				ProjectName:   view.ProjectName,
				ProjectType:   view.ProjectType,
				Invested:      decimal.Zero,
				MonthlyReturn: decimal.Zero,
			}
			byProject[h.ProjectID] = b
		}
		b.Shares += h.Shares
		b.Invested = b.Invested.Add(h.CostBasis)
		b.MonthlyReturn = b.MonthlyReturn.Add(monthly)
		b.Holdings++
	}

	for _, b := range byProject {
		summary.Projects = append(summary.Projects, *b)
	}
	sort.Slice(summary.Projects, func(i, j int) bool {
		return summary.Projects[i].ProjectID < summary.Projects[j].ProjectID
	})

	summary.TotalInvestedUSD = quote.ToUSD(summary.TotalInvested)
	summary.TotalMonthlyReturnUSD = quote.ToUSD(summary.TotalMonthlyReturn)
	return summary
}
