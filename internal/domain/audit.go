package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditLog records who performed an admin-gated action, for after-the-fact
// review. Only mutating decisions are audited.
type AuditLog struct {
	ID           string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	AfterState   JSON
	Status       string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionMilestoneApprove AuditAction = "milestone.approve"
	AuditActionMilestoneReject  AuditAction = "milestone.reject"
	AuditActionPayoutDecide     AuditAction = "payout.decide"
	AuditActionEscrowRefund     AuditAction = "escrow.refund"
	AuditActionAdjustmentCreate AuditAction = "adjustment.create"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
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
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

type adminIDKey struct{}

// WithAdminID attaches the acting admin's identity to the context. The
// admin decision surface supplies it; usecases read it for attribution.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey{}, adminID)
}

// AdminIDFromContext returns the acting admin's identity, if present.
func AdminIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey{}).(string)
	return id, ok && id != ""
}
