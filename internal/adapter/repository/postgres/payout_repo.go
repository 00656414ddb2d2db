package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const payoutColumns = `id, beneficiary_id, destination, status, amount,
	commission_ids, decided_by, requested_at, decided_at`

// PayoutRepository implements usecase.PayoutRepository.
type PayoutRepository struct {
	pool *pgxpool.Pool
}

// NewPayoutRepository creates a new PayoutRepository.
func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

// Create inserts a payout request inside the caller's transaction, in the
// same transaction that reserves its commissions.
func (r *PayoutRepository) Create(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO payout_requests (`+payoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		request.ID,
		request.BeneficiaryID,
		request.Destination,
		string(request.Status),
		decimalToNumeric(request.Amount),
		request.CommissionIDs,
		nullableText(request.DecidedBy),
		timeToPg(request.RequestedAt),
		timePtrToPg(request.DecidedAt),
	)

	return err
}

// GetByID retrieves a payout request by ID.
func (r *PayoutRepository) GetByID(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payout_requests
		WHERE id = $1`, id)

	return scanPayout(row)
}

// GetByIDForUpdate retrieves a payout request by ID with a FOR UPDATE lock.
func (r *PayoutRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PayoutRequest, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payout_requests
		WHERE id = $1
		FOR UPDATE`, id)

	return scanPayout(row)
}

// UpdateDecision persists the decision fields inside the caller's
// transaction.
func (r *PayoutRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE payout_requests
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1`,
		request.ID,
		string(request.Status),
		nullableText(request.DecidedBy),
		timePtrToPg(request.DecidedAt),
	)

	return err
}

// ListByBeneficiary lists payout requests of a beneficiary, newest first.
func (r *PayoutRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payout_requests
		WHERE beneficiary_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, beneficiaryID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.PayoutRequest, 0, limit)

	for rows.Next() {
		request, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}

		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func scanPayout(row pgx.Row) (*domain.PayoutRequest, error) {
	var (
		p           domain.PayoutRequest
		status      string
		amount      pgtype.Numeric
		decidedBy   pgtype.Text
		requestedAt pgtype.Timestamptz
		decidedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID,
		&p.BeneficiaryID,
		&p.Destination,
		&status,
		&amount,
		&p.CommissionIDs,
		&decidedBy,
		&requestedAt,
		&decidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPayoutNotFound
		}

		return nil, err
	}

	p.Status = domain.PayoutStatus(status)
	p.Amount = numericToDecimal(amount)
	p.DecidedBy = decidedBy.String
	p.RequestedAt = requestedAt.Time
	p.DecidedAt = pgToTimePtr(decidedAt)

	return &p, nil
}
