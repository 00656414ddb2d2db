package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EscrowState is the funding lifecycle state of a project.
type EscrowState string

const (
	EscrowStateDepositPending EscrowState = "deposit_pending"
	EscrowStateVerified       EscrowState = "verified"
	EscrowStateActive         EscrowState = "active"
	EscrowStateCompleted      EscrowState = "completed"
	EscrowStateRefunded       EscrowState = "refunded"
)

// Project is the escrow account for one contracted engagement. HeldBalance,
// ReleasedTotal and State are a materialized index over the ledger: they are
// only ever written in the same transaction as the entry that changed them.
type Project struct {
	ID               string
	Title            string
	ClientID         string
	CommissionerID   string
	TotalValue       decimal.Decimal
	State            EscrowState
	HeldBalance      decimal.Decimal
	ReleasedTotal    decimal.Decimal
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// escrowTransitions enumerates every reachable state change. Anything not
// listed is rejected.
var escrowTransitions = map[EscrowState][]EscrowState{
	EscrowStateDepositPending: {EscrowStateVerified},
	EscrowStateVerified:       {EscrowStateActive, EscrowStateRefunded},
	EscrowStateActive:         {EscrowStateCompleted, EscrowStateRefunded},
}

// CanTransition reports whether moving from the current state to target is
// a reachable transition.
func (p *Project) CanTransition(target EscrowState) bool {
	for _, s := range escrowTransitions[p.State] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the project to target, or reports
// ErrInvalidStateTransition without mutating anything.
func (p *Project) Transition(target EscrowState) error {
	if !p.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s (project %s)", ErrInvalidStateTransition, p.State, target, p.ID)
	}
	p.State = target
	return nil
}

// Terminal reports whether the project can no longer move funds.
func (p *Project) Terminal() bool {
	return p.State == EscrowStateCompleted || p.State == EscrowStateRefunded
}

// Validate checks a newly registered project.
func (p *Project) Validate() error {
	if p.TotalValue.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
