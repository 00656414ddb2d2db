package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const commissionColumns = `id, project_id, entry_id, beneficiary_id,
	beneficiary_role, tier, type, status, payout_request_id,
	basis_amount, rate, amount, paid_at, created_at`

// CommissionRepository implements usecase.CommissionRepository.
type CommissionRepository struct {
	pool *pgxpool.Pool
}

// NewCommissionRepository creates a new CommissionRepository.
func NewCommissionRepository(pool *pgxpool.Pool) *CommissionRepository {
	return &CommissionRepository{pool: pool}
}

// CreateBatch inserts the accrued commissions of one release inside the
// caller's transaction.
func (r *CommissionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, commissions []*domain.Commission) error {
	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}

	for _, c := range commissions {
		batch.Queue(`
			INSERT INTO commissions (`+commissionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			c.ID,
			c.ProjectID,
			c.EntryID,
			c.BeneficiaryID,
			string(c.BeneficiaryRole),
			string(c.Tier),
			string(c.Type),
			string(c.Status),
			nullableText(c.PayoutRequestID),
			decimalToNumeric(c.BasisAmount),
			decimalToNumeric(c.Rate),
			decimalToNumeric(c.Amount),
			timePtrToPg(c.PaidAt),
			timeToPg(c.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range commissions {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// GetByIDsForUpdate retrieves commissions by IDs with FOR UPDATE locks.
// Callers pass IDs in sorted order so concurrent requests lock the same
// rows in the same sequence.
func (r *CommissionRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Commission, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommissions(rows, len(ids))
}

// UpdateStatusBatch moves commissions to status inside the caller's
// transaction. An empty payoutRequestID clears the link; paidAt is stamped
// only when non-nil.
func (r *CommissionRepository) UpdateStatusBatch(ctx context.Context, tx usecase.Transaction, ids []string, status domain.CommissionStatus, payoutRequestID string, paidAt *time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE commissions
		SET status = $2, payout_request_id = $3, paid_at = $4
		WHERE id = ANY($1)`,
		ids,
		string(status),
		nullableText(payoutRequestID),
		timePtrToPg(paidAt),
	)

	return err
}

// ListByBeneficiary lists commissions earned by a beneficiary, newest first.
func (r *CommissionRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE beneficiary_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, beneficiaryID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommissions(rows, limit)
}

// ListByProject lists commissions accrued against a project, newest first.
func (r *CommissionRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Commission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE project_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, projectID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommissions(rows, limit)
}

func scanCommissions(rows pgx.Rows, sizeHint int) ([]*domain.Commission, error) {
	commissions := make([]*domain.Commission, 0, sizeHint)

	for rows.Next() {
		var (
			c               domain.Commission
			role            string
			tier            string
			commissionType  string
			status          string
			payoutRequestID pgtype.Text
			basisAmount     pgtype.Numeric
			rate            pgtype.Numeric
			amount          pgtype.Numeric
			paidAt          pgtype.Timestamptz
			createdAt       pgtype.Timestamptz
		)

		err := rows.Scan(
			&c.ID,
			&c.ProjectID,
			&c.EntryID,
			&c.BeneficiaryID,
			&role,
			&tier,
			&commissionType,
			&status,
			&payoutRequestID,
			&basisAmount,
			&rate,
			&amount,
			&paidAt,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		c.BeneficiaryRole = domain.BeneficiaryRole(role)
		c.Tier = domain.CommissionerTier(tier)
		c.Type = domain.CommissionType(commissionType)
		c.Status = domain.CommissionStatus(status)
		c.PayoutRequestID = payoutRequestID.String
		c.BasisAmount = numericToDecimal(basisAmount)
		c.Rate = numericToDecimal(rate)
		c.Amount = numericToDecimal(amount)
		c.PaidAt = pgToTimePtr(paidAt)
		c.CreatedAt = createdAt.Time

		commissions = append(commissions, &c)
	}

	return commissions, rows.Err()
}
