package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MilestoneStatus is the delivery lifecycle of a milestone.
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusSubmitted  MilestoneStatus = "submitted"
	MilestoneStatusApproved   MilestoneStatus = "approved"
	MilestoneStatusRejected   MilestoneStatus = "rejected"
)

// ChecklistItem is one deliverable line inside a milestone.
type ChecklistItem struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// Milestone is a contract-value-weighted unit of work gating partial fund
// release. PercentAmount is its share of the project's total value.
type Milestone struct {
	CreatedAt      time.Time
	SubmittedAt    *time.Time
	DecidedAt      *time.Time
	ID             string
	ProjectID      string
	Title          string
	Status         MilestoneStatus
	DecidedBy      string
	ReleaseEntryID string
	Checklist      []ChecklistItem
	PercentAmount  decimal.Decimal
	ReleasedAmount decimal.Decimal
}

var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:    {MilestoneStatusInProgress},
	MilestoneStatusInProgress: {MilestoneStatusSubmitted},
	MilestoneStatusSubmitted:  {MilestoneStatusApproved, MilestoneStatusInProgress},
}

// Transition moves the milestone to target, or reports an error without
// mutating anything. A rejection is modeled as submitted -> in_progress.
func (m *Milestone) Transition(target MilestoneStatus) error {
	for _, s := range milestoneTransitions[m.Status] {
		if s == target {
			m.Status = target
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (milestone %s)", ErrInvalidMilestoneTransition, m.Status, target, m.ID)
}

// ReleaseAmount is the escrow amount this milestone unlocks:
// percentAmount * totalValue / 100.
func (m *Milestone) ReleaseAmount(totalValue decimal.Decimal) decimal.Decimal {
	return m.PercentAmount.Mul(totalValue).Div(decimal.NewFromInt(100))
}

// Validate checks a newly defined milestone.
func (m *Milestone) Validate() error {
	if m.PercentAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if m.PercentAmount.GreaterThan(decimal.NewFromInt(100)) {
		return ErrMilestonePercentExceeded
	}
	return nil
}

// ValidatePercentBudget checks that adding percent to the already allocated
// share of a project stays within 100.
func ValidatePercentBudget(allocated, percent decimal.Decimal) error {
	if allocated.Add(percent).GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: %s already allocated, %s requested",
			ErrMilestonePercentExceeded, allocated, percent)
	}
	return nil
}
