package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus is the decision lifecycle of a payout request.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
	PayoutStatusPaid     PayoutStatus = "paid"
)

// PayoutDecision is an admin's verdict on a pending request.
type PayoutDecision string

const (
	PayoutDecisionApprove PayoutDecision = "approve"
	PayoutDecisionReject  PayoutDecision = "reject"
)

// PayoutRequest draws a beneficiary's accrued commissions down into a single
// payment to their registered destination. A commission may only ever be
// linked to one non-terminal request at a time.
type PayoutRequest struct {
	RequestedAt   time.Time
	DecidedAt     *time.Time
	ID            string
	BeneficiaryID string
	Destination   string
	Status        PayoutStatus
	DecidedBy     string
	CommissionIDs []string
	Amount        decimal.Decimal
}

// Open reports whether the request still reserves its commissions.
func (r *PayoutRequest) Open() bool {
	return r.Status == PayoutStatusPending || r.Status == PayoutStatusApproved
}

// Decide applies an admin decision to a pending request. Approval marks the
// request paid in the same step; rejection is terminal and frees the linked
// commissions for a later request.
func (r *PayoutRequest) Decide(decision PayoutDecision, adminID string, at time.Time) error {
	if r.Status != PayoutStatusPending {
		return fmt.Errorf("%w: request %s is %s", ErrPayoutNotPending, r.ID, r.Status)
	}

	switch decision {
	case PayoutDecisionApprove:
		r.Status = PayoutStatusPaid
	case PayoutDecisionReject:
		r.Status = PayoutStatusRejected
	default:
		return fmt.Errorf("unknown payout decision %q", decision)
	}

	r.DecidedBy = adminID
	r.DecidedAt = &at
	return nil
}
