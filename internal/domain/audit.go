package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// AuditActorSystem is recorded when no caller identity is available.
const AuditActorSystem = "system"

// AuditAction names an administrative or investor action as
// "<resource>.<verb>".
type AuditAction string

const (
	AuditActionRequestApprove AuditAction = "request.approve"
	AuditActionRequestReject  AuditAction = "request.reject"
	AuditActionRequestCancel  AuditAction = "request.cancel"
	AuditActionInvestorCreate AuditAction = "investor.create"
	AuditActionInvestorKYC    AuditAction = "investor.kyc"
	AuditActionProjectCreate  AuditAction = "project.create"
	AuditActionBankCreate     AuditAction = "bank.create"
)

// ResourceType is the part of the action before the dot.
func (a AuditAction) ResourceType() string {
	resource, _, _ := strings.Cut(string(a), ".")
	return resource
}

// AuditStatus is the outcome of an audited action.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// JSON is a free-form state snapshot.
type JSON map[string]any

// AuditLog records who decided what, with before and after snapshots. Only
// successful actions are written; a failed settlement leaves no trace here.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	UserAgent    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// NewAuditLog builds a successful audit record for action on resourceID.
func NewAuditLog(id, actor string, action AuditAction, resourceID string, before, after JSON, at time.Time) *AuditLog {
	if actor == "" {
		actor = AuditActorSystem
	}
	return &AuditLog{
		ID:           id,
		UserID:       actor,
		Action:       string(action),
		ResourceType: action.ResourceType(),
		ResourceID:   resourceID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(AuditStatusSuccess),
		CreatedAt:    at,
	}
}

// MarshalState snapshots v through its JSON form. Values that cannot be
// encoded produce a snapshot carrying only an error key.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "state is not an object"}
	}
	return result
}

// AuditFilter narrows an audit log listing. Zero fields match everything.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
