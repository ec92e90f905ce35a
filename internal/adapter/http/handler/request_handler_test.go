package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

func pendingRequest(kind domain.RequestKind) *domain.Request {
	return &domain.Request{
		ID:         "req-1",
		InvestorID: "inv-1",
		Kind:       kind,
		Status:     domain.RequestStatusPending,
		Amount:     decimal.NewFromInt(50_000),
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRequestHandler_CreateDeposit(t *testing.T) {
	var captured usecase.CreateDepositInput
	h := NewRequestHandler(&requestServiceStub{
		depositFn: func(_ context.Context, input usecase.CreateDepositInput) (*domain.Request, error) {
			captured = input
			return pendingRequest(domain.RequestKindDeposit), nil
		},
	})

	rec := httptest.NewRecorder()
	h.CreateDeposit(rec, newRequest(http.MethodPost, "/api/v1/requests/deposit", `{"amount":"50000"}`, &investorPrincipal))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "inv-1", captured.InvestorID)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(50_000)))

	var resp dto.RequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deposit", resp.Type)
	assert.Equal(t, "pending", resp.Status)
}

func TestRequestHandler_CreateRequiresPrincipal(t *testing.T) {
	h := NewRequestHandler(&requestServiceStub{})

	rec := httptest.NewRecorder()
	h.CreateDeposit(rec, newRequest(http.MethodPost, "/api/v1/requests/deposit", `{"amount":"1"}`, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestHandler_CreateWithdraw(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "system bank", body: `{"amount":"1000","bank_id":"bank-1"}`, status: http.StatusCreated},
		{name: "manual iban", body: `{"amount":"1000","iban":"TR12","account_holder":"Ayse"}`, status: http.StatusCreated},
		{name: "no destination", body: `{"amount":"1000"}`, status: http.StatusBadRequest},
		{name: "iban without holder", body: `{"amount":"1000","iban":"TR12"}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"amount":`, status: http.StatusBadRequest},
		{name: "insufficient balance", body: `{"amount":"1000","bank_id":"bank-1"}`, err: domain.ErrInsufficientBalance, status: http.StatusBadRequest},
		{
			name:   "recent investment warning",
			body:   `{"amount":"1000","bank_id":"bank-1"}`,
			err:    &domain.WithdrawalWarning{Check: domain.WithdrawalCheck{HasRecentInvestments: true, HoldingPeriod: 30 * 24 * time.Hour}},
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRequestHandler(&requestServiceStub{
				withdrawFn: func(context.Context, usecase.CreateWithdrawInput) (*domain.Request, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return pendingRequest(domain.RequestKindWithdraw), nil
				},
			})

			rec := httptest.NewRecorder()
			h.CreateWithdraw(rec, newRequest(http.MethodPost, "/api/v1/requests/withdraw", tt.body, &investorPrincipal))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status == http.StatusConflict {
				var warning dto.WarningResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &warning))
				assert.True(t, warning.Check.HasRecentInvestments)
				assert.Equal(t, 30, warning.Check.HoldingPeriodDays)
			}
		})
	}
}

func TestRequestHandler_CreateBuyAndSell(t *testing.T) {
	var buy usecase.CreateBuyInput
	var sell usecase.CreateSellInput
	h := NewRequestHandler(&requestServiceStub{
		buyFn: func(_ context.Context, input usecase.CreateBuyInput) (*domain.Request, error) {
			buy = input
			if input.ProjectID == "closed" {
				return nil, domain.ErrKYCNotApproved
			}
			return pendingRequest(domain.RequestKindBuy), nil
		},
		sellFn: func(_ context.Context, input usecase.CreateSellInput) (*domain.Request, error) {
			sell = input
			return nil, domain.ErrInsufficientShares
		},
	})

	rec := httptest.NewRecorder()
	h.CreateBuy(rec, newRequest(http.MethodPost, "/api/v1/requests/buy", `{"project_id":"prj-1","shares":4}`, &investorPrincipal))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, usecase.CreateBuyInput{InvestorID: "inv-1", ProjectID: "prj-1", Shares: 4}, buy)

	rec = httptest.NewRecorder()
	h.CreateBuy(rec, newRequest(http.MethodPost, "/api/v1/requests/buy", `{"project_id":"prj-1","shares":0}`, &investorPrincipal))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateBuy(rec, newRequest(http.MethodPost, "/api/v1/requests/buy", `{"project_id":"closed","shares":1}`, &investorPrincipal))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateSell(rec, newRequest(http.MethodPost, "/api/v1/requests/sell", `{"holding_id":"hld-1","shares":8}`, &investorPrincipal))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "hld-1", sell.HoldingID)
}

func TestRequestHandler_Cancel(t *testing.T) {
	h := NewRequestHandler(&requestServiceStub{
		cancelFn: func(_ context.Context, investorID, requestID string) (*domain.Request, error) {
			if investorID != "inv-1" {
				return nil, domain.ErrForbidden
			}
			if requestID == "decided" {
				return nil, domain.ErrRequestNotPending
			}
			req := pendingRequest(domain.RequestKindDeposit)
			req.ID = requestID
			req.Status = domain.RequestStatusRejected
			req.Reason = domain.CancelReason
			return req, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Cancel(rec, newRequest(http.MethodPost, "/api/v1/requests/req-9/cancel", nil, &investorPrincipal, "id", "req-9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.CancelReason)

	rec = httptest.NewRecorder()
	h.Cancel(rec, newRequest(http.MethodPost, "/api/v1/requests/decided/cancel", nil, &investorPrincipal, "id", "decided"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	other := domain.Principal{UserID: "inv-2", Role: domain.RoleInvestor}
	rec = httptest.NewRecorder()
	h.Cancel(rec, newRequest(http.MethodPost, "/api/v1/requests/req-9/cancel", nil, &other, "id", "req-9"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestHandler_ListScopesToCaller(t *testing.T) {
	var captured domain.RequestFilter
	h := NewRequestHandler(&requestServiceStub{
		listFn: func(_ context.Context, filter domain.RequestFilter) ([]*domain.Request, error) {
			captured = filter
			return []*domain.Request{pendingRequest(domain.RequestKindBuy)}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/requests?investor_id=inv-2&status=pending&kind=buy,sell", nil, &investorPrincipal))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "inv-1", captured.InvestorID, "investors only list their own requests")
	assert.Equal(t, domain.RequestStatusPending, captured.Status)
	assert.Equal(t, []domain.RequestKind{domain.RequestKindBuy, domain.RequestKindSell}, captured.Kinds)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/requests?kind=transfer", nil, &investorPrincipal))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestHandler_Transactions(t *testing.T) {
	var gotInvestor string
	var gotLimit int
	h := NewRequestHandler(&requestServiceStub{
		txFn: func(_ context.Context, investorID string, limit, offset int) ([]*domain.Request, error) {
			gotInvestor, gotLimit = investorID, limit
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Transactions(rec, newRequest(http.MethodGet, "/api/v1/transactions?limit=10&investor_id=inv-7", nil, &adminPrincipal))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inv-7", gotInvestor)
	assert.Equal(t, 10, gotLimit)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
