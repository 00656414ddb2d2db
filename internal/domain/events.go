package domain

import "time"

// Event types emitted through the outbox. The notification service consumes
// these; the engine never formats or delivers messages itself.
const (
	EventTypeDepositVerified   = "deposit.verified"
	EventTypeMilestoneReleased = "milestone.released"
	EventTypeCommissionAccrued = "commission.accrued"
	EventTypePayoutPaid        = "payout.paid"
	EventTypeEscrowRefunded    = "escrow.refunded"
)

// Aggregate types
const (
	AggregateTypeProject   = "project"
	AggregateTypeMilestone = "milestone"
	AggregateTypePayout    = "payout"
)

// OutboxEvent represents an event to be published
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

// DepositVerifiedEvent payload
type DepositVerifiedEvent struct {
	ProjectID string `json:"project_id"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// MilestoneReleasedEvent payload
type MilestoneReleasedEvent struct {
	MilestoneID string `json:"milestone_id"`
	ProjectID   string `json:"project_id"`
	Amount      string `json:"amount"`
	EntryID     string `json:"entry_id"`
}

// PayoutPaidEvent payload
type PayoutPaidEvent struct {
	PayoutRequestID string `json:"payout_request_id"`
	BeneficiaryID   string `json:"beneficiary_id"`
	Destination     string `json:"destination"`
	Amount          string `json:"amount"`
}

// EscrowRefundedEvent payload
type EscrowRefundedEvent struct {
	ProjectID string `json:"project_id"`
	Amount    string `json:"amount"`
}
