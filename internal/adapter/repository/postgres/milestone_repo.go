package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const milestoneColumns = `id, project_id, title, status, percent_amount,
	released_amount, release_entry_id, checklist, decided_by,
	submitted_at, decided_at, created_at`

// MilestoneRepository implements usecase.MilestoneRepository.
type MilestoneRepository struct {
	pool *pgxpool.Pool
}

// NewMilestoneRepository creates a new MilestoneRepository.
func NewMilestoneRepository(pool *pgxpool.Pool) *MilestoneRepository {
	return &MilestoneRepository{pool: pool}
}

// Create inserts a new milestone inside the caller's transaction, which
// holds the project row lock for the percent budget check.
func (r *MilestoneRepository) Create(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	checklist, err := json.Marshal(milestone.Checklist)
	if err != nil {
		return err
	}

	pgxTx := tx.(*Tx).PgxTx()

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO milestones (`+milestoneColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		milestone.ID,
		milestone.ProjectID,
		milestone.Title,
		string(milestone.Status),
		decimalToNumeric(milestone.PercentAmount),
		decimalToNumeric(milestone.ReleasedAmount),
		nullableText(milestone.ReleaseEntryID),
		checklist,
		nullableText(milestone.DecidedBy),
		timePtrToPg(milestone.SubmittedAt),
		timePtrToPg(milestone.DecidedAt),
		timeToPg(milestone.CreatedAt),
	)

	return err
}

// GetByID retrieves a milestone by ID.
func (r *MilestoneRepository) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE id = $1`, id)

	return scanMilestone(row)
}

// GetByIDForUpdate retrieves a milestone by ID with a FOR UPDATE lock.
// Callers lock the project row first; milestone after project is the fixed
// lock order.
func (r *MilestoneRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Milestone, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE id = $1
		FOR UPDATE`, id)

	return scanMilestone(row)
}

// Update persists a milestone's decision fields inside the caller's
// transaction.
func (r *MilestoneRepository) Update(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	pgxTx := tx.(*Tx).PgxTx()

	checklist, err := json.Marshal(milestone.Checklist)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		UPDATE milestones
		SET status = $2, released_amount = $3, release_entry_id = $4,
			checklist = $5, decided_by = $6, submitted_at = $7, decided_at = $8
		WHERE id = $1`,
		milestone.ID,
		string(milestone.Status),
		decimalToNumeric(milestone.ReleasedAmount),
		nullableText(milestone.ReleaseEntryID),
		checklist,
		nullableText(milestone.DecidedBy),
		timePtrToPg(milestone.SubmittedAt),
		timePtrToPg(milestone.DecidedAt),
	)

	return err
}

// UpdateChecklist replaces the checklist of a milestone.
func (r *MilestoneRepository) UpdateChecklist(ctx context.Context, id string, checklist []domain.ChecklistItem) error {
	data, err := json.Marshal(checklist)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE milestones SET checklist = $2 WHERE id = $1`, id, data)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMilestoneNotFound
	}

	return nil
}

// ListByProject lists milestones for a project in definition order.
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE project_id = $1
		ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]*domain.Milestone, 0)

	for rows.Next() {
		milestone, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}

		milestones = append(milestones, milestone)
	}

	return milestones, rows.Err()
}

// AllocatedPercent sums the percent shares already defined for a project.
// It reads through the caller's transaction so the sum is taken under the
// project row lock.
func (r *MilestoneRepository) AllocatedPercent(ctx context.Context, tx usecase.Transaction, projectID string) (decimal.Decimal, error) {
	var total pgtype.Numeric

	pgxTx := tx.(*Tx).PgxTx()

	err := pgxTx.QueryRow(ctx, `
		SELECT COALESCE(SUM(percent_amount), 0)
		FROM milestones
		WHERE project_id = $1`, projectID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// CountByProject counts the milestones defined for a project.
func (r *MilestoneRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM milestones WHERE project_id = $1`, projectID).Scan(&count)

	return count, err
}

// CountUnapproved counts milestones not yet approved, inside the caller's
// transaction. Zero means the project is fully delivered.
func (r *MilestoneRepository) CountUnapproved(ctx context.Context, tx usecase.Transaction, projectID string) (int, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var count int

	err := pgxTx.QueryRow(ctx, `
		SELECT COUNT(*) FROM milestones
		WHERE project_id = $1 AND status <> $2`, projectID, string(domain.MilestoneStatusApproved)).Scan(&count)

	return count, err
}

func scanMilestone(row pgx.Row) (*domain.Milestone, error) {
	var (
		m              domain.Milestone
		status         string
		percentAmount  pgtype.Numeric
		releasedAmount pgtype.Numeric
		releaseEntryID pgtype.Text
		checklist      []byte
		decidedBy      pgtype.Text
		submittedAt    pgtype.Timestamptz
		decidedAt      pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.Title,
		&status,
		&percentAmount,
		&releasedAmount,
		&releaseEntryID,
		&checklist,
		&decidedBy,
		&submittedAt,
		&decidedAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMilestoneNotFound
		}

		return nil, err
	}

	m.Status = domain.MilestoneStatus(status)
	m.PercentAmount = numericToDecimal(percentAmount)
	m.ReleasedAmount = numericToDecimal(releasedAmount)
	m.ReleaseEntryID = releaseEntryID.String
	m.DecidedBy = decidedBy.String
	m.SubmittedAt = pgToTimePtr(submittedAt)
	m.DecidedAt = pgToTimePtr(decidedAt)
	m.CreatedAt = createdAt.Time

	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &m.Checklist); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
