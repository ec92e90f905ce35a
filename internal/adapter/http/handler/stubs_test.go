package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

var (
	investorPrincipal = domain.Principal{UserID: "inv-1", Role: domain.RoleInvestor}
	adminPrincipal    = domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}
)

// newRequest builds a request carrying p and optional chi URL params
// given as name, value pairs.
func newRequest(method, target string, body any, p *domain.Principal, params ...string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)

	ctx := req.Context()
	if p != nil {
		ctx = domain.WithPrincipal(ctx, *p)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

type requestServiceStub struct {
	depositFn  func(ctx context.Context, input usecase.CreateDepositInput) (*domain.Request, error)
	withdrawFn func(ctx context.Context, input usecase.CreateWithdrawInput) (*domain.Request, error)
	buyFn      func(ctx context.Context, input usecase.CreateBuyInput) (*domain.Request, error)
	sellFn     func(ctx context.Context, input usecase.CreateSellInput) (*domain.Request, error)
	cancelFn   func(ctx context.Context, investorID, requestID string) (*domain.Request, error)
	txFn       func(ctx context.Context, investorID string, limit, offset int) ([]*domain.Request, error)
	listFn     func(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error)
}

func (s *requestServiceStub) CreateDeposit(ctx context.Context, input usecase.CreateDepositInput) (*domain.Request, error) {
	return s.depositFn(ctx, input)
}

func (s *requestServiceStub) CreateWithdraw(ctx context.Context, input usecase.CreateWithdrawInput) (*domain.Request, error) {
	return s.withdrawFn(ctx, input)
}

func (s *requestServiceStub) CreateBuy(ctx context.Context, input usecase.CreateBuyInput) (*domain.Request, error) {
	return s.buyFn(ctx, input)
}

func (s *requestServiceStub) CreateSell(ctx context.Context, input usecase.CreateSellInput) (*domain.Request, error) {
	return s.sellFn(ctx, input)
}

func (s *requestServiceStub) Cancel(ctx context.Context, investorID, requestID string) (*domain.Request, error) {
	return s.cancelFn(ctx, investorID, requestID)
}

func (s *requestServiceStub) ListTransactions(ctx context.Context, investorID string, limit, offset int) ([]*domain.Request, error) {
	return s.txFn(ctx, investorID, limit, offset)
}

func (s *requestServiceStub) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error) {
	return s.listFn(ctx, filter)
}

type catalogServiceStub struct {
	projects []*domain.Project
	banks    []*domain.Bank
	created  usecase.CreateProjectInput
	actor    string
}

func (s *catalogServiceStub) SharePrice() decimal.Decimal { return domain.DefaultSharePrice }

func (s *catalogServiceStub) CreateProject(_ context.Context, actor string, input usecase.CreateProjectInput) (*domain.Project, error) {
	s.actor, s.created = actor, input
	return &domain.Project{ID: "prj-new", Name: input.Name, Type: input.Type, SharePrice: domain.DefaultSharePrice, FundingTarget: input.FundingTarget}, nil
}

func (s *catalogServiceStub) GetProject(_ context.Context, id string) (*domain.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (s *catalogServiceStub) ListProjects(context.Context) ([]*domain.Project, error) {
	return s.projects, nil
}

func (s *catalogServiceStub) CreateBank(_ context.Context, actor string, input usecase.CreateBankInput) (*domain.Bank, error) {
	s.actor = actor
	return &domain.Bank{ID: "bank-new", Name: input.Name, IBAN: input.IBAN, AccountHolder: input.AccountHolder, IsActive: true}, nil
}

func (s *catalogServiceStub) ListBanks(context.Context) ([]*domain.Bank, error) {
	return s.banks, nil
}

type tierSourceStub struct{ table *domain.TierTable }

func (s tierSourceStub) Tiers() *domain.TierTable { return s.table }

type fxStub struct {
	quote domain.FXQuote
	err   error
}

func (s fxStub) CurrentRate(context.Context) (domain.FXQuote, error) { return s.quote, s.err }
