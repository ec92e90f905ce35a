package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

// CreateDepositRequest represents a deposit request body.
type CreateDepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDepositRequest) ToUseCaseInput(investorID string) usecase.CreateDepositInput {
	return usecase.CreateDepositInput{InvestorID: investorID, Amount: r.Amount}
}

// CreateWithdrawRequest represents a withdrawal request body. Either bank_id
// or iban with account_holder is required.
type CreateWithdrawRequest struct {
	Amount                       decimal.Decimal `json:"amount"`
	BankID                       string          `json:"bank_id"        validate:"required_without=IBAN"`
	BankName                     string          `json:"bank_name"      validate:"max=100"`
	IBAN                         string          `json:"iban"           validate:"required_without=BankID,max=64"`
	AccountHolder                string          `json:"account_holder" validate:"required_with=IBAN,max=200"`
	AcknowledgeRecentInvestments bool            `json:"acknowledge_recent_investments"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWithdrawRequest) ToUseCaseInput(investorID string) usecase.CreateWithdrawInput {
	return usecase.CreateWithdrawInput{
		InvestorID:                   investorID,
		Amount:                       r.Amount,
		BankID:                       r.BankID,
		BankName:                     r.BankName,
		IBAN:                         r.IBAN,
		AccountHolder:                r.AccountHolder,
		AcknowledgeRecentInvestments: r.AcknowledgeRecentInvestments,
	}
}

// CreateBuyRequest represents a share purchase body.
type CreateBuyRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Shares    int64  `json:"shares"     validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBuyRequest) ToUseCaseInput(investorID string) usecase.CreateBuyInput {
	return usecase.CreateBuyInput{InvestorID: investorID, ProjectID: r.ProjectID, Shares: r.Shares}
}

// CreateSellRequest represents a share sale body.
type CreateSellRequest struct {
	HoldingID string `json:"holding_id" validate:"required"`
	Shares    int64  `json:"shares"     validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSellRequest) ToUseCaseInput(investorID string) usecase.CreateSellInput {
	return usecase.CreateSellInput{InvestorID: investorID, HoldingID: r.HoldingID, Shares: r.Shares}
}

// DecideRequest is the admin decision body.
type DecideRequest struct {
	Decision domain.Decision `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string          `json:"reason"   validate:"max=500"`
}

// ToUseCaseInput converts to use case input.
func (r *DecideRequest) ToUseCaseInput(requestID, adminID string) usecase.DecideInput {
	return usecase.DecideInput{RequestID: requestID, Decision: r.Decision, Reason: r.Reason, AdminID: adminID}
}

// RegisterInvestorRequest represents an investor registration body.
type RegisterInvestorRequest struct {
	ID        string           `json:"id"         validate:"max=64"`
	Name      string           `json:"name"       validate:"required,max=200"`
	Email     string           `json:"email"      validate:"required,email"`
	KYCStatus domain.KYCStatus `json:"kyc_status" validate:"omitempty,oneof=none pending approved"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterInvestorRequest) ToUseCaseInput() usecase.RegisterInvestorInput {
	return usecase.RegisterInvestorInput{ID: r.ID, Name: r.Name, Email: r.Email, KYCStatus: r.KYCStatus}
}

// SetKYCRequest updates an investor's KYC status.
type SetKYCRequest struct {
	Status domain.KYCStatus `json:"status" validate:"required,oneof=none pending approved"`
}

// CreateProjectRequest represents a project registration body.
type CreateProjectRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Type              string          `json:"type" validate:"required"`
	SharePrice        decimal.Decimal `json:"share_price"`
	MonthlyReturnRate decimal.Decimal `json:"monthly_return_rate"`
	FundingTarget     decimal.Decimal `json:"funding_target"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateProjectRequest) ToUseCaseInput() usecase.CreateProjectInput {
	return usecase.CreateProjectInput{
		Name:              r.Name,
		Type:              domain.ProjectType(r.Type),
		SharePrice:        r.SharePrice,
		MonthlyReturnRate: r.MonthlyReturnRate,
		FundingTarget:     r.FundingTarget,
	}
}

// CreateBankRequest represents a system bank registration body.
type CreateBankRequest struct {
	Name          string `json:"name"           validate:"required,max=100"`
	IBAN          string `json:"iban"           validate:"required,max=64"`
	AccountHolder string `json:"account_holder" validate:"required,max=200"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBankRequest) ToUseCaseInput() usecase.CreateBankInput {
	return usecase.CreateBankInput{Name: r.Name, IBAN: r.IBAN, AccountHolder: r.AccountHolder}
}
