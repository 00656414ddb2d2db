package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
)

// ProfileRepository implements usecase.ProfileDirectory against a local
// replica of the profile service's data. The engine only reads it.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByUserID retrieves a commissioner profile by user ID.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.CommissionerProfile, error) {
	var (
		p                 domain.CommissionerProfile
		tier              string
		uplineReferrerID  pgtype.Text
		payoutDestination pgtype.Text
		createdAt         pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, `
		SELECT user_id, tier, upline_referrer_id, payout_destination, created_at
		FROM commissioner_profiles
		WHERE user_id = $1`, userID).Scan(
		&p.UserID,
		&tier,
		&uplineReferrerID,
		&payoutDestination,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}

		return nil, err
	}

	p.Tier = domain.CommissionerTier(tier)
	p.UplineReferrerID = uplineReferrerID.String
	p.PayoutDestination = payoutDestination.String
	p.CreatedAt = createdAt.Time

	return &p, nil
}
