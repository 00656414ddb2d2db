package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/infrastructure/metrics"
)

// EscrowUseCase drives the project funding lifecycle: registration, deposit
// verification, activation, refund and manual adjustments. Every ledger
// mutation locks the project row, so appends for one project serialize while
// different projects proceed independently.
type EscrowUseCase struct {
	txManager     TransactionManager
	projectRepo   ProjectRepository
	entryRepo     EntryRepository
	milestoneRepo MilestoneRepository
	outboxRepo    OutboxRepository
	auditRepo     AuditRepository
	idGen         IDGenerator
	retrier       Retrier
	metrics       *metrics.Metrics
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(
	txManager TransactionManager,
	projectRepo ProjectRepository,
	entryRepo EntryRepository,
	milestoneRepo MilestoneRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *EscrowUseCase {
	return &EscrowUseCase{
		txManager:     txManager,
		projectRepo:   projectRepo,
		entryRepo:     entryRepo,
		milestoneRepo: milestoneRepo,
		outboxRepo:    outboxRepo,
		auditRepo:     auditRepo,
		idGen:         idGen,
		retrier:       retrier,
		metrics:       metrics,
	}
}

// runTx executes op under the transaction timeout, retrying transient
// storage failures when a retrier is configured.
func (uc *EscrowUseCase) runTx(ctx context.Context, op func(ctx context.Context) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	if uc.retrier == nil {
		return op(txCtx)
	}

	return uc.retrier.Retry(txCtx, func() error { return op(txCtx) })
}

// RegisterProjectInput represents input for registering a project.
type RegisterProjectInput struct {
	Title          string
	ClientID       string
	CommissionerID string
	TotalValue     decimal.Decimal
}

// RegisterProject creates a project awaiting its deposit.
func (uc *EscrowUseCase) RegisterProject(ctx context.Context, input RegisterProjectInput) (*domain.Project, error) {
	now := time.Now().UTC()
	project := &domain.Project{
		ID:             uc.idGen.Generate(),
		Title:          input.Title,
		ClientID:       input.ClientID,
		CommissionerID: input.CommissionerID,
		TotalValue:     input.TotalValue,
		State:          domain.EscrowStateDepositPending,
		HeldBalance:    decimal.Zero,
		ReleasedTotal:  decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := uc.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ProjectsRegistered.Inc()
	}

	return project, nil
}

// VerifyDepositInput is the payload the payment verification source emits
// when an external deposit is confirmed.
type VerifyDepositInput struct {
	ProjectID string
	Amount    decimal.Decimal
	Reference string
}

// VerifyDeposit moves a project from deposit_pending to verified and appends
// the deposit entry, atomically. A reference already on the ledger is
// rejected, so replayed webhooks are harmless.
func (uc *EscrowUseCase) VerifyDeposit(ctx context.Context, input VerifyDepositInput) (*domain.LedgerEntry, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	start := time.Now()

	var entry *domain.LedgerEntry
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		project, err := uc.projectRepo.GetByIDForUpdate(ctx, tx, input.ProjectID)
		if err != nil {
			return err
		}

		if input.Reference != "" {
			seen, err := uc.entryRepo.HasReference(ctx, tx, project.ID, input.Reference)
			if err != nil {
				return err
			}
			if seen {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, input.Reference)
			}
		}

		if err := project.Transition(domain.EscrowStateVerified); err != nil {
			return err
		}

		now := time.Now().UTC()
		entry = &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			ProjectID:      project.ID,
			Kind:           domain.EntryKindDeposit,
			Status:         domain.EntryStatusCompleted,
			Description:    "verified client deposit",
			Reference:      input.Reference,
			Amount:         input.Amount,
			BalanceAfter:   project.HeldBalance.Add(input.Amount),
			ProjectVersion: project.Version + 1,
			CreatedAt:      now,
		}

		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		project.HeldBalance = entry.BalanceAfter
		project.Version++
		if err := uc.projectRepo.UpdateEscrow(ctx, tx, project, now); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   project.ID,
			AggregateType: domain.AggregateTypeProject,
			EventType:     domain.EventTypeDepositVerified,
			Payload: map[string]any{
				"project_id": project.ID,
				"amount":     input.Amount.String(),
				"reference":  input.Reference,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsVerified.Inc()
		amt, _ := input.Amount.Float64()
		uc.metrics.DepositAmount.Observe(amt)
		uc.metrics.LedgerOpDuration.Observe(time.Since(start).Seconds())
	}

	return entry, nil
}

// Activate moves a verified project with at least one milestone to active.
// No ledger effect.
func (uc *EscrowUseCase) Activate(ctx context.Context, projectID string) (*domain.Project, error) {
	var project *domain.Project
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		project, err = uc.projectRepo.GetByIDForUpdate(ctx, tx, projectID)
		if err != nil {
			return err
		}

		count, err := uc.milestoneRepo.CountByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s -> %s requires a defined milestone",
				domain.ErrInvalidStateTransition, project.State, domain.EscrowStateActive)
		}

		if err := project.Transition(domain.EscrowStateActive); err != nil {
			return err
		}

		if err := uc.projectRepo.UpdateEscrow(ctx, tx, project, time.Now().UTC()); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// Refund terminates a verified or active project, returning the full
// remaining held balance in one refund entry. Further releases are forbidden
// by the terminal state.
func (uc *EscrowUseCase) Refund(ctx context.Context, projectID string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		project, err := uc.projectRepo.GetByIDForUpdate(ctx, tx, projectID)
		if err != nil {
			return err
		}

		if err := project.Transition(domain.EscrowStateRefunded); err != nil {
			return err
		}

		now := time.Now().UTC()
		refundAmount := project.HeldBalance

		entry = &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			ProjectID:      project.ID,
			Kind:           domain.EntryKindRefund,
			Status:         domain.EntryStatusCompleted,
			Description:    "escrow refund of remaining held balance",
			Amount:         refundAmount.Neg(),
			BalanceAfter:   decimal.Zero,
			ProjectVersion: project.Version + 1,
			CreatedAt:      now,
		}

		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		project.HeldBalance = decimal.Zero
		project.Version++
		if err := uc.projectRepo.UpdateEscrow(ctx, tx, project, now); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   project.ID,
			AggregateType: domain.AggregateTypeProject,
			EventType:     domain.EventTypeEscrowRefunded,
			Payload: map[string]any{
				"project_id": project.ID,
				"amount":     refundAmount.String(),
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, domain.AuditActionEscrowRefund, domain.AggregateTypeProject, project.ID, entry); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsIssued.Inc()
	}

	return entry, nil
}

// RecordAdjustmentInput represents input for a manual compensating entry.
type RecordAdjustmentInput struct {
	ProjectID string
	Amount    decimal.Decimal
	Reason    string
}

// RecordAdjustment appends a signed adjustment entry. Committed history is
// never edited or deleted; this is the only correction mechanism, and it is
// allowed to drive the balance negative.
func (uc *EscrowUseCase) RecordAdjustment(ctx context.Context, input RecordAdjustmentInput) (*domain.LedgerEntry, error) {
	if input.Amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	var entry *domain.LedgerEntry
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		project, err := uc.projectRepo.GetByIDForUpdate(ctx, tx, input.ProjectID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		entry = &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			ProjectID:      project.ID,
			Kind:           domain.EntryKindAdjustment,
			Status:         domain.EntryStatusCompleted,
			Description:    input.Reason,
			Amount:         input.Amount,
			BalanceAfter:   project.HeldBalance.Add(input.Amount),
			ProjectVersion: project.Version + 1,
			CreatedAt:      now,
		}

		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		project.HeldBalance = entry.BalanceAfter
		project.Version++
		if err := uc.projectRepo.UpdateEscrow(ctx, tx, project, now); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, domain.AuditActionAdjustmentCreate, domain.AggregateTypeProject, project.ID, entry); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetProject retrieves a project by ID.
func (uc *EscrowUseCase) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return uc.projectRepo.GetByID(ctx, id)
}

// ListProjects lists projects with pagination.
func (uc *EscrowUseCase) ListProjects(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	limit, offset = clampPage(limit, offset)
	return uc.projectRepo.List(ctx, limit, offset)
}

func (uc *EscrowUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceType, resourceID string, after any) error {
	if uc.auditRepo == nil {
		return nil
	}

	actor := "system"
	if adminID, ok := domain.AdminIDFromContext(ctx); ok {
		actor = adminID
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		ActorID:      actor,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
