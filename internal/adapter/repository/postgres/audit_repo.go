package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const auditInsert = `
	INSERT INTO audit_logs (id, actor_id, action, resource_type, resource_id, after_state, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create stores an audit log outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	afterState, err := json.Marshal(log.AfterState)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, auditInsert,
		log.ID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		afterState,
		log.Status,
		timeToPg(log.CreatedAt),
	)

	return err
}

// CreateTx stores an audit log inside the caller's transaction, so the
// record commits or rolls back with the decision it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	afterState, err := json.Marshal(log.AfterState)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, auditInsert,
		log.ID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		afterState,
		log.Status,
		timeToPg(log.CreatedAt),
	)

	return err
}
