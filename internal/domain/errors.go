package domain

import "errors"

var (
	// Ledger errors
	ErrInsufficientEscrowFunds = errors.New("insufficient escrow funds")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrDuplicateReference      = errors.New("payment reference already recorded")
	ErrLedgerInconsistent      = errors.New("ledger chain is inconsistent")

	// Project / escrow state errors
	ErrProjectNotFound        = errors.New("project not found")
	ErrInvalidStateTransition = errors.New("invalid escrow state transition")

	// Milestone errors
	ErrMilestoneNotFound          = errors.New("milestone not found")
	ErrMilestonePercentExceeded   = errors.New("milestone percentages exceed 100")
	ErrMilestoneNotSubmitted      = errors.New("milestone is not awaiting approval")
	ErrInvalidMilestoneTransition = errors.New("invalid milestone status transition")

	// Commission errors
	ErrCommissionNotFound   = errors.New("commission not found")
	ErrCommissionNotOwned   = errors.New("commission does not belong to beneficiary")
	ErrCommissionNotAccrued = errors.New("commission is not in an unpaid requestable state")

	// Payout errors
	ErrPayoutNotFound           = errors.New("payout request not found")
	ErrPayoutNotPending         = errors.New("payout request already decided")
	ErrMissingPayoutDestination = errors.New("beneficiary has no registered payout destination")
	ErrDoubleSpendCommission    = errors.New("commission already linked to an open payout request")

	// Profile errors
	ErrProfileNotFound = errors.New("commissioner profile not found")
)
