package domain

import "time"

// Event types
const (
	EventTypeRequestCreated  = "request.created"
	EventTypeRequestApproved = "request.approved"
	EventTypeRequestRejected = "request.rejected"
	EventTypeHoldingCreated  = "holding.created"
	EventTypeHoldingReduced  = "holding.reduced"
	EventTypeInvestorCreated = "investor.created"
)

// Aggregate types
const (
	AggregateTypeRequest  = "request"
	AggregateTypeHolding  = "holding"
	AggregateTypeInvestor = "investor"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published later by the outbox worker.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// RequestEvent payload
type RequestEvent struct {
	RequestID  string `json:"request_id"`
	InvestorID string `json:"investor_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	Shares     int64  `json:"shares,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	HoldingID  string `json:"holding_id,omitempty"`
	DecidedBy  string `json:"decided_by,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// HoldingEvent payload
type HoldingEvent struct {
	HoldingID  string `json:"holding_id"`
	InvestorID string `json:"investor_id"`
	ProjectID  string `json:"project_id"`
	Shares     int64  `json:"shares"`
	Delta      int64  `json:"delta"`
	CostBasis  string `json:"cost_basis"`
	Amount     string `json:"amount"`
	Tier       string `json:"tier,omitempty"`
}

// InvestorCreatedEvent payload
type InvestorCreatedEvent struct {
	InvestorID string `json:"investor_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// NewRequestEvent builds the outbox event for a request transition.
func NewRequestEvent(id, eventType string, r *Request, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   r.ID,
		AggregateType: AggregateTypeRequest,
		EventType:     eventType,
		Payload: map[string]any{
			"request_id":  r.ID,
			"investor_id": r.InvestorID,
			"kind":        string(r.Kind),
			"status":      string(r.Status),
			"amount":      r.Amount.String(),
			"shares":      r.Shares,
			"project_id":  r.ProjectID,
			"holding_id":  r.HoldingID,
			"decided_by":  r.DecidedBy,
			"reason":      r.Reason,
		},
		CreatedAt: at,
	}
}

// NewHoldingEvent builds the outbox event for a holding change. delta is the
// signed share change and amount the basis added or removed.
func NewHoldingEvent(id, eventType string, h *Holding, delta int64, amount string, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   h.ID,
		AggregateType: AggregateTypeHolding,
		EventType:     eventType,
		Payload: map[string]any{
			"holding_id":  h.ID,
			"investor_id": h.InvestorID,
			"project_id":  h.ProjectID,
			"shares":      h.Shares,
			"delta":       delta,
			"cost_basis":  h.CostBasis.String(),
			"amount":      amount,
			"tier":        h.TierName,
		},
		CreatedAt: at,
	}
}
