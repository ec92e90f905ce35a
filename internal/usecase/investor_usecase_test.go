package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
	"github.com/iho/gesledger/internal/usecase/mocks"
)

func TestInvestorUseCase_Register(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.RegisterInvestorInput
		setupMocks  func(*mocks.MockInvestorRepository, *mocks.MockIDGenerator)
		expectError bool
		errorType   error
	}{
		{
			name:  "generated id",
			input: usecase.RegisterInvestorInput{Name: "Ayse Yilmaz", Email: "Ayse@Example.com"},
			setupMocks: func(repo *mocks.MockInvestorRepository, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("inv-123")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, inv *domain.Investor) error {
					if inv.ID != "inv-123" || inv.Email != "ayse@example.com" || !inv.Balance.IsZero() || inv.KYCStatus != domain.KYCStatusNone {
						return errors.New("unexpected investor")
					}
					return nil
				})
			},
		},
		{
			name:  "identity provider id",
			input: usecase.RegisterInvestorInput{ID: "sub-42", Name: "Mehmet", Email: "m@example.com", KYCStatus: domain.KYCStatusApproved},
			setupMocks: func(repo *mocks.MockInvestorRepository, idGen *mocks.MockIDGenerator) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:        "invalid email",
			input:       usecase.RegisterInvestorInput{Name: "Ayse", Email: "not-an-email"},
			setupMocks:  func(*mocks.MockInvestorRepository, *mocks.MockIDGenerator) {},
			expectError: true,
			errorType:   domain.ErrInvalidInput,
		},
		{
			name:        "empty name",
			input:       usecase.RegisterInvestorInput{Name: "  ", Email: "a@example.com"},
			setupMocks:  func(*mocks.MockInvestorRepository, *mocks.MockIDGenerator) {},
			expectError: true,
			errorType:   domain.ErrInvalidInput,
		},
		{
			name:        "unknown KYC status",
			input:       usecase.RegisterInvestorInput{Name: "Ayse", Email: "a@example.com", KYCStatus: "maybe"},
			setupMocks:  func(*mocks.MockInvestorRepository, *mocks.MockIDGenerator) {},
			expectError: true,
			errorType:   domain.ErrInvalidKYCStatus,
		},
		{
			name:  "duplicate",
			input: usecase.RegisterInvestorInput{ID: "sub-42", Name: "Mehmet", Email: "m@example.com"},
			setupMocks: func(repo *mocks.MockInvestorRepository, idGen *mocks.MockIDGenerator) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateInvestor)
			},
			expectError: true,
			errorType:   domain.ErrDuplicateInvestor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockInvestorRepository(ctrl)
			idGen := mocks.NewMockIDGenerator(ctrl)
			tt.setupMocks(repo, idGen)

			uc := usecase.NewInvestorUseCase(repo, nil, nil, idGen, zerolog.Nop())
			investor, err := uc.Register(context.Background(), adminID, tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errorType)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, investor.ID)
		})
	}
}

func TestInvestorUseCase_SetKYCStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.investor("inv-1", domain.KYCStatusPending)

	inv, err := h.investorUC.SetKYCStatus(h.ctx, adminID, "inv-1", domain.KYCStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusApproved, inv.KYCStatus)

	stored, err := h.investorUC.Get(h.ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, stored.CanTrade())

	_, err = h.investorUC.SetKYCStatus(h.ctx, adminID, "inv-1", "verified")
	assert.ErrorIs(t, err, domain.ErrInvalidKYCStatus)

	_, err = h.investorUC.SetKYCStatus(h.ctx, adminID, "ghost", domain.KYCStatusApproved)
	assert.ErrorIs(t, err, domain.ErrInvestorNotFound)

	logs, err := h.audit.List(h.ctx, domain.AuditFilter{Action: string(domain.AuditActionInvestorKYC)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "approved", logs[0].AfterState["kyc_status"])
}

func TestInvestorUseCase_Overview(t *testing.T) {
	h := newHarness(t, usdQuote("35"))
	h.investor("inv-1", domain.KYCStatusApproved)
	h.investor("inv-2", domain.KYCStatusNone)
	p := h.project("Konya GES", 1_000_000)
	h.fund("inv-1", 70_000)
	h.buy("inv-1", p.ID, 2)

	overview, err := h.investorUC.Overview(h.ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, overview, 2)

	byID := map[string]usecase.InvestorOverview{}
	for _, o := range overview {
		byID[o.Investor.ID] = o
	}
	assert.True(t, byID["inv-1"].Portfolio.TotalInvested.Equal(dec(50_000)))
	assert.True(t, byID["inv-1"].Portfolio.Balance.Equal(dec(20_000)))
	assert.True(t, byID["inv-2"].Portfolio.TotalInvested.IsZero())
}

func TestInvestorUseCase_AuditFailureDoesNotFailRegistration(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockInvestorRepository(ctrl)
	audit := mocks.NewMockAuditRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	idGen.EXPECT().Generate().Return("audit-1")
	audit.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

	uc := usecase.NewInvestorUseCase(repo, audit, nil, idGen, zerolog.Nop())
	_, err := uc.Register(context.Background(), adminID, usecase.RegisterInvestorInput{ID: "sub-1", Name: "Ayse", Email: "a@example.com"})
	assert.NoError(t, err)
}
