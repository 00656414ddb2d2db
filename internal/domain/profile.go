package domain

import "time"

// CommissionerProfile is the read-only view of a commissioner the engine
// needs: their rate tier, who referred them (one level), and where payouts
// go. The profile service owns this data; the engine never writes it.
type CommissionerProfile struct {
	UserID            string
	Tier              CommissionerTier
	UplineReferrerID  string
	PayoutDestination string
	CreatedAt         time.Time
}

// HasPayoutDestination reports whether a payout can be addressed to this
// beneficiary.
func (p *CommissionerProfile) HasPayoutDestination() bool {
	return p.PayoutDestination != ""
}
