package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
)

// SettlementUseCase applies admin decisions. An approval locks, in order, the
// request, the investor, the holding and the project, re-validates the
// request against current state and applies its effect in one transaction.
type SettlementUseCase struct {
	txManager    TransactionManager
	investorRepo InvestorRepository
	projectRepo  ProjectRepository
	requestRepo  RequestRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	ledger       *Ledger
	portfolio    *PortfolioStore
	retrier      Retrier
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewSettlementUseCase(
	txManager TransactionManager,
	investorRepo InvestorRepository,
	projectRepo ProjectRepository,
	requestRepo RequestRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *Ledger,
	portfolio *PortfolioStore,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:    txManager,
		investorRepo: investorRepo,
		projectRepo:  projectRepo,
		requestRepo:  requestRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		portfolio:    portfolio,
		retrier:      retrier,
		idGen:        idGen,
		metrics:      metrics,
		logger:       logger,
	}
}

// DecideInput represents an admin decision on a pending request.
type DecideInput struct {
	RequestID string
	Decision  domain.Decision
	Reason    string
	AdminID   string
}

// Decide approves or rejects a pending request.
func (uc *SettlementUseCase) Decide(ctx context.Context, input DecideInput) (*domain.Request, error) {
	switch input.Decision {
	case domain.DecisionApprove:
		return uc.Approve(ctx, input.RequestID, input.AdminID, input.Reason)
	case domain.DecisionReject:
		return uc.Reject(ctx, input.RequestID, input.AdminID, input.Reason)
	default:
		return nil, domain.ErrInvalidDecision
	}
}

// settlement collects what an approval changed, for events and metrics.
type settlement struct {
	entries  []*domain.Entry
	events   []*domain.OutboxEvent
	shares   int64
	sideSold bool
}

// Approve re-validates and applies a pending request. A failed re-validation
// returns a *domain.StaleRequestError and leaves the request pending.
func (uc *SettlementUseCase) Approve(ctx context.Context, requestID, adminID, reason string) (*domain.Request, error) {
	start := time.Now()

	var (
		req    *domain.Request
		result *settlement
	)
	err := uc.withRetry(ctx, func() error {
		var err error
		req, result, err = uc.approveOnce(ctx, requestID, adminID, reason)
		return err
	})
	if err != nil {
		uc.recordFailure(requestID, req, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RequestsDecided.WithLabelValues(string(req.Kind), string(domain.DecisionApprove)).Inc()
		uc.metrics.SettlementTime.Observe(time.Since(start).Seconds())
		recordMutations(uc.metrics, result.entries...)
		if result.shares > 0 {
			side := "buy"
			if result.sideSold {
				side = "sell"
				uc.metrics.HoldingsReduced.Inc()
			} else {
				uc.metrics.HoldingsCreated.Inc()
			}
			uc.metrics.SharesTraded.WithLabelValues(side).Add(float64(result.shares))
		}
	}

	uc.logger.Info().
		Str("request_id", req.ID).
		Str("investor_id", req.InvestorID).
		Str("kind", string(req.Kind)).
		Str("amount", req.Amount.String()).
		Str("decided_by", adminID).
		Str("decision", string(domain.DecisionApprove)).
		Msg("request settled")

	return req, nil
}

func (uc *SettlementUseCase) approveOnce(ctx context.Context, requestID, adminID, reason string) (*domain.Request, *settlement, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	req, err := uc.requestRepo.GetByIDForUpdate(txCtx, tx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.IsTerminal() {
		return req, nil, domain.ErrRequestNotPending
	}
	before := domain.MarshalState(req)

	investor, err := uc.investorRepo.GetByIDForUpdate(txCtx, tx, req.InvestorID)
	if err != nil {
		return req, nil, err
	}

	now := time.Now().UTC()
	result, err := uc.apply(txCtx, tx, req, investor, now)
	if err != nil {
		if domain.IsRevalidationError(err) {
			return req, nil, domain.NewStaleRequestError(req.ID, err)
		}
		return req, nil, err
	}

	if err := req.Approve(adminID, reason, now); err != nil {
		return req, nil, err
	}
	if err := uc.requestRepo.UpdateDecision(txCtx, tx, req); err != nil {
		return req, nil, err
	}

	events := append([]*domain.OutboxEvent{
		domain.NewRequestEvent(uc.idGen.Generate(), domain.EventTypeRequestApproved, req, now),
	}, result.events...)
	for _, event := range events {
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return req, nil, err
		}
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionRequestApprove, adminID, req, before, now); err != nil {
		return req, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return req, nil, err
	}

	return req, result, nil
}

// apply performs the effect of req on the locked investor.
func (uc *SettlementUseCase) apply(ctx context.Context, tx Transaction, req *domain.Request, investor *domain.Investor, now time.Time) (*settlement, error) {
	result := &settlement{}

	switch req.Kind {
	case domain.RequestKindDeposit:
		entry, err := uc.ledger.Credit(ctx, tx, investor, req.Amount, req.ID, now)
		if err != nil {
			return nil, err
		}
		result.entries = append(result.entries, entry)

	case domain.RequestKindWithdraw:
		entry, err := uc.ledger.Debit(ctx, tx, investor, req.Amount, req.ID, now)
		if err != nil {
			return nil, err
		}
		result.entries = append(result.entries, entry)

	case domain.RequestKindBuy:
		if !investor.CanTrade() {
			return nil, domain.ErrKYCNotApproved
		}
		project, err := uc.projectRepo.GetByIDForUpdate(ctx, tx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		cost := project.Cost(req.Shares)
		entry, err := uc.ledger.Debit(ctx, tx, investor, cost, req.ID, now)
		if err != nil {
			return nil, err
		}
		holding, err := uc.portfolio.AddHolding(ctx, tx, investor.ID, project, req.Shares, cost, now)
		if err != nil {
			return nil, err
		}
		req.Amount = cost
		req.HoldingID = holding.ID
		result.entries = append(result.entries, entry)
		result.shares = req.Shares
		result.events = append(result.events,
			domain.NewHoldingEvent(uc.idGen.Generate(), domain.EventTypeHoldingCreated, holding, req.Shares, cost.String(), now))

	case domain.RequestKindSell:
		holding, removed, err := uc.portfolio.ReduceHolding(ctx, tx, investor.ID, req.HoldingID, req.Shares, now)
		if err != nil {
			return nil, err
		}
		entry, err := uc.ledger.Credit(ctx, tx, investor, removed, req.ID, now)
		if err != nil {
			return nil, err
		}
		req.Amount = removed
		result.entries = append(result.entries, entry)
		result.shares = req.Shares
		result.sideSold = true
		result.events = append(result.events,
			domain.NewHoldingEvent(uc.idGen.Generate(), domain.EventTypeHoldingReduced, holding, -req.Shares, removed.String(), now))

	default:
		return nil, domain.ErrInvalidRequestKind
	}

	return result, nil
}

// Reject closes a pending request without any balance or holding change.
func (uc *SettlementUseCase) Reject(ctx context.Context, requestID, adminID, reason string) (*domain.Request, error) {
	var req *domain.Request
	err := uc.withRetry(ctx, func() error {
		var err error
		req, err = uc.rejectOnce(ctx, requestID, adminID, reason)
		return err
	})
	if err != nil {
		uc.recordFailure(requestID, req, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RequestsDecided.WithLabelValues(string(req.Kind), string(domain.DecisionReject)).Inc()
	}

	uc.logger.Info().
		Str("request_id", req.ID).
		Str("investor_id", req.InvestorID).
		Str("kind", string(req.Kind)).
		Str("decided_by", adminID).
		Str("decision", string(domain.DecisionReject)).
		Str("reason", reason).
		Msg("request rejected")

	return req, nil
}

func (uc *SettlementUseCase) rejectOnce(ctx context.Context, requestID, adminID, reason string) (*domain.Request, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	req, err := uc.requestRepo.GetByIDForUpdate(txCtx, tx, requestID)
	if err != nil {
		return nil, err
	}
	before := domain.MarshalState(req)

	now := time.Now().UTC()
	if err := req.Reject(adminID, reason, now); err != nil {
		return req, err
	}
	if err := uc.requestRepo.UpdateDecision(txCtx, tx, req); err != nil {
		return req, err
	}

	event := domain.NewRequestEvent(uc.idGen.Generate(), domain.EventTypeRequestRejected, req, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return req, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionRequestReject, adminID, req, before, now); err != nil {
		return req, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return req, err
	}

	return req, nil
}

func (uc *SettlementUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, actor string, req *domain.Request, before domain.JSON, at time.Time) error {
	if uc.auditRepo == nil {
		return nil
	}
	auditLog := domain.NewAuditLog(uc.idGen.Generate(), actor, action, req.ID, before, domain.MarshalState(req), at)
	if err := uc.auditRepo.CreateTx(ctx, tx, auditLog); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(auditLog.Action, auditLog.Status).Inc()
	}
	return nil
}

func (uc *SettlementUseCase) withRetry(ctx context.Context, fn func() error) error {
	if uc.retrier == nil {
		return fn()
	}
	return uc.retrier.Retry(ctx, fn)
}

func (uc *SettlementUseCase) recordFailure(requestID string, req *domain.Request, err error) {
	kind := "unknown"
	if req != nil {
		kind = string(req.Kind)
	}

	var stale *domain.StaleRequestError
	if errors.As(err, &stale) {
		if uc.metrics != nil {
			uc.metrics.RequestsStale.WithLabelValues(kind).Inc()
		}
		uc.logger.Warn().
			Str("request_id", requestID).
			Str("kind", kind).
			Err(stale.Cause).
			Msg("request is stale, reject it instead")
		return
	}

	if uc.metrics != nil {
		uc.metrics.SettlementErrors.WithLabelValues(kind).Inc()
	}
	uc.logger.Error().
		Str("request_id", requestID).
		Str("kind", kind).
		Err(err).
		Msg("settlement failed")
}
