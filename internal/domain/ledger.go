package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry by the movement it records.
type EntryKind string

const (
	EntryKindDeposit          EntryKind = "deposit"
	EntryKindMilestoneRelease EntryKind = "milestone_release"
	EntryKindCommission       EntryKind = "commission"
	EntryKindRefund           EntryKind = "refund"
	EntryKindAdjustment       EntryKind = "adjustment"
)

// EntryStatus is the lifecycle status of a ledger entry. Entries are never
// edited in place; a committed entry is superseded by a later compensating
// entry, at which point both carry the reversed status.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusReversed  EntryStatus = "reversed"
)

// LedgerEntry is one immutable signed movement against a project's escrow
// balance. BalanceAfter snapshots the running balance at append time.
type LedgerEntry struct {
	CreatedAt      time.Time
	ID             string
	ProjectID      string
	Kind           EntryKind
	Status         EntryStatus
	Description    string
	Reference      string
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	ProjectVersion int64
}

// allowsNegativeBalance reports whether this entry kind is an explicitly
// authorized path to a negative running balance.
func (k EntryKind) allowsNegativeBalance() bool {
	return k == EntryKindRefund || k == EntryKindAdjustment
}

// ValidateAppend checks that appending amount of the given kind to the
// current balance preserves the non-negative balance invariant.
func ValidateAppend(balance, amount decimal.Decimal, kind EntryKind) error {
	next := balance.Add(amount)
	if next.IsNegative() && !kind.allowsNegativeBalance() {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientEscrowFunds, balance, amount.Neg())
	}
	return nil
}

// VerifyChain replays entries in creation order and checks that every
// BalanceAfter equals the prior BalanceAfter plus the entry amount, and
// that the running balance never goes negative except through a refund or
// adjustment. It returns the final balance, or the first divergent entry.
func VerifyChain(entries []*LedgerEntry) (decimal.Decimal, error) {
	running := decimal.Zero
	for _, e := range entries {
		running = running.Add(e.Amount)
		if !running.Equal(e.BalanceAfter) {
			return running, fmt.Errorf("%w: entry %s expected balance %s, recorded %s",
				ErrLedgerInconsistent, e.ID, running, e.BalanceAfter)
		}
		if running.IsNegative() && !e.Kind.allowsNegativeBalance() {
			return running, fmt.Errorf("%w: entry %s drove balance to %s",
				ErrLedgerInconsistent, e.ID, running)
		}
	}
	return running, nil
}
