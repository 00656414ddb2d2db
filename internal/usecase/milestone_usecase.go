package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/infrastructure/metrics"
)

// MilestoneUseCase is the release gate: it owns milestone lifecycle and, on
// approval, releases escrow funds and accrues commissions off the released
// amount in one atomic unit.
type MilestoneUseCase struct {
	txManager      TransactionManager
	projectRepo    ProjectRepository
	milestoneRepo  MilestoneRepository
	entryRepo      EntryRepository
	commissionRepo CommissionRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	profiles       ProfileDirectory
	policy         domain.CommissionPolicy
	idGen          IDGenerator
	retrier        Retrier
	metrics        *metrics.Metrics
}

// NewMilestoneUseCase creates a new MilestoneUseCase.
func NewMilestoneUseCase(
	txManager TransactionManager,
	projectRepo ProjectRepository,
	milestoneRepo MilestoneRepository,
	entryRepo EntryRepository,
	commissionRepo CommissionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	profiles ProfileDirectory,
	policy domain.CommissionPolicy,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *MilestoneUseCase {
	return &MilestoneUseCase{
		txManager:      txManager,
		projectRepo:    projectRepo,
		milestoneRepo:  milestoneRepo,
		entryRepo:      entryRepo,
		commissionRepo: commissionRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		profiles:       profiles,
		policy:         policy,
		idGen:          idGen,
		retrier:        retrier,
		metrics:        metrics,
	}
}

func (uc *MilestoneUseCase) runTx(ctx context.Context, op func(ctx context.Context) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	if uc.retrier == nil {
		return op(txCtx)
	}

	return uc.retrier.Retry(txCtx, func() error { return op(txCtx) })
}

// DefineMilestoneInput represents input for defining a milestone.
type DefineMilestoneInput struct {
	ProjectID     string
	Title         string
	PercentAmount decimal.Decimal
	Checklist     []domain.ChecklistItem
}

// DefineMilestone adds a milestone to a non-terminal project, keeping the
// project's percent allocation within 100. The project row is locked for the
// budget check so concurrent defines serialize on it.
func (uc *MilestoneUseCase) DefineMilestone(ctx context.Context, input DefineMilestoneInput) (*domain.Milestone, error) {
	milestone := &domain.Milestone{
		ID:            uc.idGen.Generate(),
		ProjectID:     input.ProjectID,
		Title:         input.Title,
		Status:        domain.MilestoneStatusPending,
		Checklist:     input.Checklist,
		PercentAmount: input.PercentAmount,
		CreatedAt:     time.Now().UTC(),
	}

	if err := milestone.Validate(); err != nil {
		return nil, err
	}

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

		if project.Terminal() {
			return fmt.Errorf("%w: project %s is %s", domain.ErrInvalidStateTransition, project.ID, project.State)
		}

		allocated, err := uc.milestoneRepo.AllocatedPercent(ctx, tx, input.ProjectID)
		if err != nil {
			return err
		}
		if err := domain.ValidatePercentBudget(allocated, input.PercentAmount); err != nil {
			return err
		}

		if err := uc.milestoneRepo.Create(ctx, tx, milestone); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return milestone, nil
}

// Start moves a pending milestone into progress.
func (uc *MilestoneUseCase) Start(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return uc.transition(ctx, milestoneID, domain.MilestoneStatusInProgress)
}

// Submit marks an in-progress milestone as awaiting approval.
func (uc *MilestoneUseCase) Submit(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	m, err := uc.transition(ctx, milestoneID, domain.MilestoneStatusSubmitted)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (uc *MilestoneUseCase) transition(ctx context.Context, milestoneID string, target domain.MilestoneStatus) (*domain.Milestone, error) {
	var milestone *domain.Milestone
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		milestone, err = uc.milestoneRepo.GetByIDForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}

		if err := milestone.Transition(target); err != nil {
			return err
		}

		if target == domain.MilestoneStatusSubmitted {
			now := time.Now().UTC()
			milestone.SubmittedAt = &now
		}

		if err := uc.milestoneRepo.Update(ctx, tx, milestone); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return milestone, nil
}

// UpdateChecklist replaces the checklist of a milestone still being worked.
func (uc *MilestoneUseCase) UpdateChecklist(ctx context.Context, milestoneID string, checklist []domain.ChecklistItem) error {
	milestone, err := uc.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}

	if milestone.Status != domain.MilestoneStatusPending && milestone.Status != domain.MilestoneStatusInProgress {
		return fmt.Errorf("%w: checklist frozen once %s", domain.ErrInvalidMilestoneTransition, milestone.Status)
	}

	return uc.milestoneRepo.UpdateChecklist(ctx, milestoneID, checklist)
}

// GetMilestone retrieves a milestone by ID.
func (uc *MilestoneUseCase) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	return uc.milestoneRepo.GetByID(ctx, id)
}

// ListByProject lists a project's milestones.
func (uc *MilestoneUseCase) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	return uc.milestoneRepo.ListByProject(ctx, projectID)
}

// ReleaseResult is what an approved milestone produced.
type ReleaseResult struct {
	Milestone   *domain.Milestone
	Entry       *domain.LedgerEntry
	Commissions []*domain.Commission
}

// Approve releases a submitted milestone: it appends the milestone_release
// entry for percentAmount * totalValue / 100, accrues commissions off the
// amount actually released, and completes the project when it was the last
// open milestone. Everything commits or nothing does; an underfunded escrow
// fails with ErrInsufficientEscrowFunds and leaves milestone, ledger and
// commissions untouched.
func (uc *MilestoneUseCase) Approve(ctx context.Context, milestoneID string) (*ReleaseResult, error) {
	start := time.Now()

	// Resolve the commissioner profile before taking any locks; it is a
	// read-only lookup owned by the profile service.
	peek, err := uc.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	projectPeek, err := uc.projectRepo.GetByID(ctx, peek.ProjectID)
	if err != nil {
		return nil, err
	}

	profile, err := uc.profiles.GetByUserID(ctx, projectPeek.CommissionerID)
	if err != nil {
		return nil, err
	}

	var result *ReleaseResult
	err = uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		// Project row first, then milestone: fixed lock order across all
		// release and refund paths.
		project, err := uc.projectRepo.GetByIDForUpdate(ctx, tx, peek.ProjectID)
		if err != nil {
			return err
		}

		milestone, err := uc.milestoneRepo.GetByIDForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}

		if milestone.Status != domain.MilestoneStatusSubmitted {
			return fmt.Errorf("%w: milestone %s is %s", domain.ErrMilestoneNotSubmitted, milestone.ID, milestone.Status)
		}

		// The first approval on a verified project is the signal that funds
		// are held and work is underway.
		if project.State == domain.EscrowStateVerified {
			if err := project.Transition(domain.EscrowStateActive); err != nil {
				return err
			}
		}
		if project.State != domain.EscrowStateActive {
			return fmt.Errorf("%w: cannot release from %s", domain.ErrInvalidStateTransition, project.State)
		}

		releaseAmount := milestone.ReleaseAmount(project.TotalValue)
		if err := domain.ValidateAppend(project.HeldBalance, releaseAmount.Neg(), domain.EntryKindMilestoneRelease); err != nil {
			return err
		}

		now := time.Now().UTC()
		entry := &domain.LedgerEntry{
			ID:             uc.idGen.Generate(),
			ProjectID:      project.ID,
			Kind:           domain.EntryKindMilestoneRelease,
			Status:         domain.EntryStatusCompleted,
			Description:    fmt.Sprintf("release for milestone %q", milestone.Title),
			Amount:         releaseAmount.Neg(),
			BalanceAfter:   project.HeldBalance.Sub(releaseAmount),
			ProjectVersion: project.Version + 1,
			CreatedAt:      now,
		}
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		if err := milestone.Transition(domain.MilestoneStatusApproved); err != nil {
			return err
		}
		milestone.ReleasedAmount = releaseAmount
		milestone.ReleaseEntryID = entry.ID
		milestone.DecidedAt = &now
		if adminID, ok := domain.AdminIDFromContext(ctx); ok {
			milestone.DecidedBy = adminID
		}
		if err := uc.milestoneRepo.Update(ctx, tx, milestone); err != nil {
			return err
		}

		// Commissions are computed off money actually released, not the
		// nominal contract value.
		shares := uc.policy.PlanCommissions(releaseAmount, project.CommissionerID, profile.Tier, profile.UplineReferrerID)
		commissions := make([]*domain.Commission, 0, len(shares))
		for _, s := range shares {
			commissions = append(commissions, &domain.Commission{
				ID:              uc.idGen.Generate(),
				ProjectID:       project.ID,
				EntryID:         entry.ID,
				BeneficiaryID:   s.BeneficiaryID,
				BeneficiaryRole: s.BeneficiaryRole,
				Tier:            s.Tier,
				Type:            s.Type,
				Status:          domain.CommissionStatusAccrued,
				BasisAmount:     releaseAmount,
				Rate:            s.Rate,
				Amount:          s.Amount,
				CreatedAt:       now,
			})
		}
		if err := uc.commissionRepo.CreateBatch(ctx, tx, commissions); err != nil {
			return err
		}

		project.HeldBalance = entry.BalanceAfter
		project.ReleasedTotal = project.ReleasedTotal.Add(releaseAmount)
		project.Version++

		remaining, err := uc.milestoneRepo.CountUnapproved(ctx, tx, project.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := project.Transition(domain.EscrowStateCompleted); err != nil {
				return err
			}
		}

		if err := uc.projectRepo.UpdateEscrow(ctx, tx, project, now); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   milestone.ID,
			AggregateType: domain.AggregateTypeMilestone,
			EventType:     domain.EventTypeMilestoneReleased,
			Payload: map[string]any{
				"milestone_id": milestone.ID,
				"project_id":   project.ID,
				"amount":       releaseAmount.String(),
				"entry_id":     entry.ID,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, domain.AuditActionMilestoneApprove, domain.AggregateTypeMilestone, milestone.ID, milestone); err != nil {
			return err
		}

		result = &ReleaseResult{Milestone: milestone, Entry: entry, Commissions: commissions}
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MilestonesReleased.Inc()
		amt, _ := result.Entry.Amount.Neg().Float64()
		uc.metrics.ReleaseAmount.Observe(amt)
		uc.metrics.CommissionsAccrued.Add(float64(len(result.Commissions)))
		uc.metrics.LedgerOpDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

// Reject sends a submitted milestone back to in_progress. No ledger effect.
func (uc *MilestoneUseCase) Reject(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	var milestone *domain.Milestone
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		milestone, err = uc.milestoneRepo.GetByIDForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}

		if milestone.Status != domain.MilestoneStatusSubmitted {
			return fmt.Errorf("%w: milestone %s is %s", domain.ErrMilestoneNotSubmitted, milestone.ID, milestone.Status)
		}

		if err := milestone.Transition(domain.MilestoneStatusInProgress); err != nil {
			return err
		}

		now := time.Now().UTC()
		milestone.DecidedAt = &now
		if adminID, ok := domain.AdminIDFromContext(ctx); ok {
			milestone.DecidedBy = adminID
		}

		if err := uc.milestoneRepo.Update(ctx, tx, milestone); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, domain.AuditActionMilestoneReject, domain.AggregateTypeMilestone, milestone.ID, milestone); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return milestone, nil
}

func (uc *MilestoneUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceType, resourceID string, after any) error {
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
