package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestAuditAction_ResourceType(t *testing.T) {
	tests := map[AuditAction]string{
		AuditActionRequestApprove: "request",
		AuditActionInvestorKYC:    "investor",
		AuditActionBankCreate:     "bank",
		AuditAction("custom"):     "custom",
	}
	for action, want := range tests {
		if got := action.ResourceType(); got != want {
			t.Errorf("%s: expected %q, got %q", action, want, got)
		}
	}
}

func TestNewAuditLog(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	log := NewAuditLog("aud-1", "", AuditActionRequestCancel, "req-1", JSON{"status": "pending"}, JSON{"status": "rejected"}, at)

	if log.UserID != AuditActorSystem {
		t.Fatalf("expected system actor, got %q", log.UserID)
	}
	if log.Action != "request.cancel" || log.ResourceType != AggregateTypeRequest || log.ResourceID != "req-1" {
		t.Fatalf("unexpected resource: %+v", log)
	}
	if log.Status != string(AuditStatusSuccess) || !log.CreatedAt.Equal(at) {
		t.Fatalf("unexpected status or time: %+v", log)
	}
	if log.BeforeState["status"] != "pending" {
		t.Fatalf("expected before snapshot, got %v", log.BeforeState)
	}
}

func TestMarshalState(t *testing.T) {
	if MarshalState(nil) != nil {
		t.Fatalf("expected nil snapshot for nil value")
	}

	state := MarshalState(struct {
		KYC string `json:"kyc_status"`
	}{KYC: "approved"})
	if !reflect.DeepEqual(state, JSON{"kyc_status": "approved"}) {
		t.Fatalf("unexpected snapshot: %v", state)
	}

	if got := MarshalState([]int{1, 2}); got["error"] != "state is not an object" {
		t.Fatalf("expected object error, got %v", got)
	}
	if got := MarshalState(func() {}); got["error"] != "failed to marshal state" {
		t.Fatalf("expected marshal error, got %v", got)
	}
}
