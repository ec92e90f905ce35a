package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
)

// InvestorRepository defines data access for investors.
type InvestorRepository interface {
	Create(ctx context.Context, investor *domain.Investor) error
	GetByID(ctx context.Context, id string) (*domain.Investor, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Investor, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	UpdateKYCStatus(ctx context.Context, id string, status domain.KYCStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Investor, error)
}

// ProjectRepository defines data access for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Project, error)
	UpdateFundedAmount(ctx context.Context, tx Transaction, id string, funded decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context) ([]*domain.Project, error)
}

// HoldingRepository defines data access for holdings.
type HoldingRepository interface {
	Create(ctx context.Context, tx Transaction, holding *domain.Holding) error
	GetByID(ctx context.Context, id string) (*domain.Holding, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Holding, error)
	Update(ctx context.Context, tx Transaction, holding *domain.Holding) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByInvestor(ctx context.Context, investorID string) ([]*domain.Holding, error)
	SumCostBasisByProject(ctx context.Context) (map[string]decimal.Decimal, error)
}

// RequestRepository defines data access for requests.
type RequestRepository interface {
	Create(ctx context.Context, tx Transaction, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Request, error)
	UpdateDecision(ctx context.Context, tx Transaction, request *domain.Request) error
	List(ctx context.Context, filter domain.RequestFilter) ([]*domain.Request, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByRequest(ctx context.Context, requestID string) ([]*domain.Entry, error)
	GetByInvestor(ctx context.Context, investorID string, limit, offset int) ([]*domain.Entry, error)
	SumByInvestor(ctx context.Context) (map[string]decimal.Decimal, error)
}

// BankRepository defines data access for the system bank registry.
type BankRepository interface {
	Create(ctx context.Context, bank *domain.Bank) error
	GetByID(ctx context.Context, id string) (*domain.Bank, error)
	ListActive(ctx context.Context) ([]*domain.Bank, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs fn when the storage reports a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// FXProvider supplies the current USD/TRY quote. It never blocks on the
// upstream source; failures surface as a stale quote.
type FXProvider interface {
	CurrentRate(ctx context.Context) (domain.FXQuote, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
