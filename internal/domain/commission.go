package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionerTier determines the direct commission rate a commissioner
// earns on released funds.
type CommissionerTier string

const (
	TierStandard CommissionerTier = "standard"
	TierSilver   CommissionerTier = "silver"
	TierGold     CommissionerTier = "gold"
)

// CommissionType discriminates the direct commission from the single-level
// upline override.
type CommissionType string

const (
	CommissionTypeDirect   CommissionType = "direct"
	CommissionTypeOverride CommissionType = "override"
)

// BeneficiaryRole identifies how a beneficiary relates to the project.
type BeneficiaryRole string

const (
	RoleCommissioner   BeneficiaryRole = "commissioner"
	RoleUplineReferrer BeneficiaryRole = "upline_referrer"
)

// CommissionStatus is the payout lifecycle of an accrued commission.
type CommissionStatus string

const (
	CommissionStatusAccrued       CommissionStatus = "accrued"
	CommissionStatusPendingPayout CommissionStatus = "pending_payout"
	CommissionStatusPaid          CommissionStatus = "paid"
	CommissionStatusRejected      CommissionStatus = "rejected"
)

// Commission is one party's earned share of a released amount. Accrual does
// not move escrow funds; the payout workflow draws accrued commissions down.
type Commission struct {
	CreatedAt       time.Time
	PaidAt          *time.Time
	ID              string
	ProjectID       string
	EntryID         string
	BeneficiaryID   string
	BeneficiaryRole BeneficiaryRole
	Tier            CommissionerTier
	Type            CommissionType
	Status          CommissionStatus
	PayoutRequestID string
	BasisAmount     decimal.Decimal
	Rate            decimal.Decimal
	Amount          decimal.Decimal
}

// Requestable reports whether the commission can be pulled into a new
// payout request.
func (c *Commission) Requestable() bool {
	return c.Status == CommissionStatusAccrued
}

// CommissionPolicy holds the platform's rate table. Rates are fractions of
// the released amount (0.25 = 25%).
type CommissionPolicy struct {
	DirectRates  map[CommissionerTier]decimal.Decimal
	OverrideRate decimal.Decimal
	HardCap      decimal.Decimal
}

// DefaultCommissionPolicy returns the platform defaults: 25/27/30% direct
// by tier, 5% single-level override, 35% combined hard cap.
func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{
		DirectRates: map[CommissionerTier]decimal.Decimal{
			TierStandard: decimal.RequireFromString("0.25"),
			TierSilver:   decimal.RequireFromString("0.27"),
			TierGold:     decimal.RequireFromString("0.30"),
		},
		OverrideRate: decimal.RequireFromString("0.05"),
		HardCap:      decimal.RequireFromString("0.35"),
	}
}

// DirectRate returns the direct rate for a tier, falling back to standard
// for an unknown tier.
func (p CommissionPolicy) DirectRate(tier CommissionerTier) decimal.Decimal {
	if rate, ok := p.DirectRates[tier]; ok {
		return rate
	}
	return p.DirectRates[TierStandard]
}

// CommissionShare is one planned slice of a released amount.
type CommissionShare struct {
	BeneficiaryID   string
	BeneficiaryRole BeneficiaryRole
	Type            CommissionType
	Tier            CommissionerTier
	Rate            decimal.Decimal
	Amount          decimal.Decimal
}

// PlanCommissions computes the direct and override shares of a released
// amount under the policy's hard cap. When the combined rate exceeds the
// cap the override is reduced first, down to zero, and only then is the
// direct rate clamped, so the direct seller is protected at the referrer's
// expense. The override goes one level up only.
func (p CommissionPolicy) PlanCommissions(
	releasedAmount decimal.Decimal,
	commissionerID string,
	tier CommissionerTier,
	uplineReferrerID string,
) []CommissionShare {
	directRate := p.DirectRate(tier)
	if directRate.GreaterThan(p.HardCap) {
		directRate = p.HardCap
	}

	shares := []CommissionShare{{
		BeneficiaryID:   commissionerID,
		BeneficiaryRole: RoleCommissioner,
		Type:            CommissionTypeDirect,
		Tier:            tier,
		Rate:            directRate,
		Amount:          releasedAmount.Mul(directRate),
	}}

	if uplineReferrerID == "" {
		return shares
	}

	overrideRate := p.OverrideRate
	if room := p.HardCap.Sub(directRate); overrideRate.GreaterThan(room) {
		overrideRate = room
	}
	if !overrideRate.IsPositive() {
		return shares
	}

	return append(shares, CommissionShare{
		BeneficiaryID:   uplineReferrerID,
		BeneficiaryRole: RoleUplineReferrer,
		Type:            CommissionTypeOverride,
		Tier:            tier,
		Rate:            overrideRate,
		Amount:          releasedAmount.Mul(overrideRate),
	})
}
