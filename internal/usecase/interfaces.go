package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
)

// ProjectRepository defines data access for projects (escrow accounts).
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Project, error)
	// UpdateEscrow persists the materialized escrow fields (state, held
	// balance, released total, version) inside the same transaction as the
	// ledger entry that changed them.
	UpdateEscrow(ctx context.Context, tx Transaction, project *domain.Project, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Project, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// ListAllByProject returns every entry for a project in creation order,
	// for chain verification.
	ListAllByProject(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error)
	HasReference(ctx context.Context, tx Transaction, projectID, reference string) (bool, error)
}

// MilestoneRepository defines data access for milestones.
type MilestoneRepository interface {
	Create(ctx context.Context, tx Transaction, milestone *domain.Milestone) error
	GetByID(ctx context.Context, id string) (*domain.Milestone, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Milestone, error)
	Update(ctx context.Context, tx Transaction, milestone *domain.Milestone) error
	UpdateChecklist(ctx context.Context, id string, checklist []domain.ChecklistItem) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	// AllocatedPercent sums the percent amounts of a project's milestones.
	// Callers hold the project row lock so the sum cannot move under them.
	AllocatedPercent(ctx context.Context, tx Transaction, projectID string) (decimal.Decimal, error)
	CountByProject(ctx context.Context, projectID string) (int, error)
	CountUnapproved(ctx context.Context, tx Transaction, projectID string) (int, error)
}

// CommissionRepository defines data access for commissions.
type CommissionRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, commissions []*domain.Commission) error
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Commission, error)
	// UpdateStatusBatch moves commissions to status, stamping the linked
	// payout request (empty clears it) and paidAt when non-nil.
	UpdateStatusBatch(ctx context.Context, tx Transaction, ids []string, status domain.CommissionStatus, payoutRequestID string, paidAt *time.Time) error
	ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Commission, error)
}

// PayoutRepository defines data access for payout requests.
type PayoutRepository interface {
	Create(ctx context.Context, tx Transaction, request *domain.PayoutRequest) error
	GetByID(ctx context.Context, id string) (*domain.PayoutRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.PayoutRequest, error)
	UpdateDecision(ctx context.Context, tx Transaction, request *domain.PayoutRequest) error
	ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error)
}

// ProfileDirectory resolves commissioner tiers, upline referrers and payout
// destinations. Read-only; the profile service owns the data.
type ProfileDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*domain.CommissionerProfile, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage failures. Domain errors
// are never retried.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
