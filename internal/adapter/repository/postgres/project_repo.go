package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const projectColumns = `id, title, client_id, commissioner_id, total_value, state,
	held_balance, released_total, version, created_at, updated_at`

// ProjectRepository implements usecase.ProjectRepository.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create creates a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		project.ID,
		project.Title,
		project.ClientID,
		project.CommissionerID,
		decimalToNumeric(project.TotalValue),
		string(project.State),
		decimalToNumeric(project.HeldBalance),
		decimalToNumeric(project.ReleasedTotal),
		project.Version,
		timeToPg(project.CreatedAt),
		timeToPg(project.UpdatedAt),
	)

	return err
}

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1`, id)

	return scanProject(row)
}

// GetByIDForUpdate retrieves a project by ID with a FOR UPDATE lock. The
// project row is the serialization point for every fund movement on it.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
		FOR UPDATE`, id)

	return scanProject(row)
}

// UpdateEscrow persists the materialized escrow fields inside the caller's
// transaction.
func (r *ProjectRepository) UpdateEscrow(ctx context.Context, tx usecase.Transaction, project *domain.Project, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE projects
		SET state = $2, held_balance = $3, released_total = $4, version = $5, updated_at = $6
		WHERE id = $1`,
		project.ID,
		string(project.State),
		decimalToNumeric(project.HeldBalance),
		decimalToNumeric(project.ReleasedTotal),
		project.Version,
		timeToPg(updatedAt),
	)

	return err
}

// List lists projects with pagination, newest first.
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0, limit)

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	return projects, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p             domain.Project
		state         string
		totalValue    pgtype.Numeric
		heldBalance   pgtype.Numeric
		releasedTotal pgtype.Numeric
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.ClientID,
		&p.CommissionerID,
		&totalValue,
		&state,
		&heldBalance,
		&releasedTotal,
		&p.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}

		return nil, err
	}

	p.State = domain.EscrowState(state)
	p.TotalValue = numericToDecimal(totalValue)
	p.HeldBalance = numericToDecimal(heldBalance)
	p.ReleasedTotal = numericToDecimal(releasedTotal)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
