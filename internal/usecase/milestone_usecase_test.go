package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
	"github.com/devmarket/escrow/internal/usecase/mocks"
)

type milestoneFixture struct {
	projectRepo    *mocks.FakeProjectRepository
	milestoneRepo  *mocks.FakeMilestoneRepository
	entryRepo      *mocks.FakeEntryRepository
	commissionRepo *mocks.FakeCommissionRepository
	outboxRepo     *mocks.FakeOutboxRepository
	profiles       *mocks.FakeProfileDirectory
	txMgr          *mocks.FakeTransactionManager
	uc             *usecase.MilestoneUseCase
}

func newMilestoneFixture() *milestoneFixture {
	f := &milestoneFixture{
		projectRepo:    mocks.NewFakeProjectRepository(),
		milestoneRepo:  mocks.NewFakeMilestoneRepository(),
		entryRepo:      mocks.NewFakeEntryRepository(),
		commissionRepo: mocks.NewFakeCommissionRepository(),
		outboxRepo:     mocks.NewFakeOutboxRepository(),
		profiles:       mocks.NewFakeProfileDirectory(),
		txMgr:          mocks.NewFakeTransactionManager(),
	}
	f.uc = usecase.NewMilestoneUseCase(
		f.txMgr,
		f.projectRepo,
		f.milestoneRepo,
		f.entryRepo,
		f.commissionRepo,
		f.outboxRepo,
		mocks.NewFakeAuditRepository(),
		f.profiles,
		domain.DefaultCommissionPolicy(),
		mocks.NewFakeIDGenerator(),
		nil,
		nil,
	)
	return f
}

func TestMilestoneUseCase_DefineMilestone(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.DefineMilestoneInput
		seed        func(*milestoneFixture)
		expectError bool
		errorType   error
	}{
		{
			name: "successful definition",
			input: usecase.DefineMilestoneInput{
				ProjectID:     "proj-1",
				Title:         "backend API",
				PercentAmount: decimal.NewFromInt(40),
				Checklist: []domain.ChecklistItem{
					{Label: "endpoints implemented"},
					{Label: "integration tests green"},
				},
			},
			seed: func(f *milestoneFixture) {
				f.projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateVerified, TotalValue: decimal.NewFromInt(100000)})
			},
		},
		{
			name: "reject percent budget overrun",
			input: usecase.DefineMilestoneInput{
				ProjectID:     "proj-1",
				Title:         "second half",
				PercentAmount: decimal.NewFromInt(60),
			},
			seed: func(f *milestoneFixture) {
				f.projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateVerified, TotalValue: decimal.NewFromInt(100000)})
				f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-0", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(50)})
			},
			expectError: true,
			errorType:   domain.ErrMilestonePercentExceeded,
		},
		{
			name: "reject milestone on refunded project",
			input: usecase.DefineMilestoneInput{
				ProjectID:     "proj-1",
				Title:         "too late",
				PercentAmount: decimal.NewFromInt(10),
			},
			seed: func(f *milestoneFixture) {
				f.projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateRefunded, TotalValue: decimal.NewFromInt(100000)})
			},
			expectError: true,
			errorType:   domain.ErrInvalidStateTransition,
		},
		{
			name: "reject zero percent",
			input: usecase.DefineMilestoneInput{
				ProjectID:     "proj-1",
				Title:         "free work",
				PercentAmount: decimal.Zero,
			},
			seed: func(f *milestoneFixture) {
				f.projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateVerified, TotalValue: decimal.NewFromInt(100000)})
			},
			expectError: true,
			errorType:   domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMilestoneFixture()
			tt.seed(f)

			milestone, err := f.uc.DefineMilestone(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorType != nil && !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if milestone.Status != domain.MilestoneStatusPending {
				t.Errorf("expected status %s, got %s", domain.MilestoneStatusPending, milestone.Status)
			}
		})
	}
}

// Two sessions defining milestones at once must serialize on the project row
// lock: the allocated sum is read inside the transaction, after the lock, so
// the second define sees the first one's row and gets rejected.
func TestMilestoneUseCase_DefineMilestoneSerializesOnProjectLock(t *testing.T) {
	f := newMilestoneFixture()

	committed := false
	rolledBack := false
	f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return &mocks.FakeTransaction{
			CommitFunc:   func(ctx context.Context) error { committed = true; return nil },
			RollbackFunc: func(ctx context.Context) error { rolledBack = true; return nil },
		}, nil
	}

	locked := false
	f.projectRepo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
		locked = true
		return &domain.Project{ID: id, State: domain.EscrowStateVerified, TotalValue: decimal.NewFromInt(100000)}, nil
	}

	// The sum a competing define committed while we waited on the lock.
	f.milestoneRepo.AllocatedPercentFunc = func(ctx context.Context, tx usecase.Transaction, projectID string) (decimal.Decimal, error) {
		if !locked {
			t.Fatal("allocated percent read before the project row lock")
		}
		if tx == nil {
			t.Fatal("allocated percent read outside the transaction")
		}
		return decimal.NewFromInt(80), nil
	}

	created := false
	f.milestoneRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
		created = true
		return nil
	}

	_, err := f.uc.DefineMilestone(context.Background(), usecase.DefineMilestoneInput{
		ProjectID:     "proj-1",
		Title:         "overlapping define",
		PercentAmount: decimal.NewFromInt(30),
	})
	if !errors.Is(err, domain.ErrMilestonePercentExceeded) {
		t.Fatalf("expected %v, got %v", domain.ErrMilestonePercentExceeded, err)
	}
	if created {
		t.Error("milestone must not be inserted when the in-transaction sum is over budget")
	}
	if committed {
		t.Error("expected the transaction not to commit")
	}
	if !rolledBack {
		t.Error("expected the transaction to roll back")
	}
}

func TestMilestoneUseCase_StartAndSubmit(t *testing.T) {
	f := newMilestoneFixture()
	f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(50)})

	m, err := f.uc.Start(context.Background(), "ms-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != domain.MilestoneStatusInProgress {
		t.Errorf("expected status %s, got %s", domain.MilestoneStatusInProgress, m.Status)
	}

	m, err = f.uc.Submit(context.Background(), "ms-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != domain.MilestoneStatusSubmitted {
		t.Errorf("expected status %s, got %s", domain.MilestoneStatusSubmitted, m.Status)
	}
	if m.SubmittedAt == nil {
		t.Error("expected SubmittedAt to be stamped")
	}

	// pending -> submitted must not skip in_progress
	f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(10)})
	if _, err := f.uc.Submit(context.Background(), "ms-2"); !errors.Is(err, domain.ErrInvalidMilestoneTransition) {
		t.Errorf("expected %v, got %v", domain.ErrInvalidMilestoneTransition, err)
	}
}

func TestMilestoneUseCase_UpdateChecklist(t *testing.T) {
	f := newMilestoneFixture()
	f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusInProgress, PercentAmount: decimal.NewFromInt(50)})
	f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})

	checklist := []domain.ChecklistItem{{Label: "deployed to staging", Done: true}}

	if err := f.uc.UpdateChecklist(context.Background(), "ms-1", checklist); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, _ := f.milestoneRepo.GetByID(context.Background(), "ms-1")
	if len(m.Checklist) != 1 || !m.Checklist[0].Done {
		t.Errorf("checklist not updated: %v", m.Checklist)
	}

	// Frozen once submitted.
	if err := f.uc.UpdateChecklist(context.Background(), "ms-2", checklist); !errors.Is(err, domain.ErrInvalidMilestoneTransition) {
		t.Errorf("expected %v, got %v", domain.ErrInvalidMilestoneTransition, err)
	}
}

func TestMilestoneUseCase_Approve(t *testing.T) {
	const (
		commissioner = "comm-1"
		upline       = "ref-1"
	)

	seedFunded := func(f *milestoneFixture, state domain.EscrowState) {
		f.projectRepo.Seed(&domain.Project{
			ID:             "proj-1",
			CommissionerID: commissioner,
			TotalValue:     decimal.NewFromInt(100000),
			State:          state,
			HeldBalance:    decimal.NewFromInt(100000),
		})
		f.profiles.Seed(&domain.CommissionerProfile{
			UserID:           commissioner,
			Tier:             domain.TierStandard,
			UplineReferrerID: upline,
		})
	}

	t.Run("release with direct and override commissions", func(t *testing.T) {
		f := newMilestoneFixture()
		seedFunded(f, domain.EscrowStateActive)
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusInProgress, PercentAmount: decimal.NewFromInt(50)})

		result, err := f.uc.Approve(domain.WithAdminID(context.Background(), "admin-1"), "ms-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Milestone.Status != domain.MilestoneStatusApproved {
			t.Errorf("expected status %s, got %s", domain.MilestoneStatusApproved, result.Milestone.Status)
		}
		if result.Milestone.DecidedBy != "admin-1" {
			t.Errorf("expected DecidedBy admin-1, got %s", result.Milestone.DecidedBy)
		}
		if !result.Milestone.ReleasedAmount.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected released amount 50000, got %s", result.Milestone.ReleasedAmount)
		}

		if !result.Entry.Amount.Equal(decimal.NewFromInt(-50000)) {
			t.Errorf("expected entry amount -50000, got %s", result.Entry.Amount)
		}
		if !result.Entry.BalanceAfter.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected balance after 50000, got %s", result.Entry.BalanceAfter)
		}

		if len(result.Commissions) != 2 {
			t.Fatalf("expected 2 commissions, got %d", len(result.Commissions))
		}
		direct, override := result.Commissions[0], result.Commissions[1]
		if direct.BeneficiaryID != commissioner || !direct.Amount.Equal(decimal.NewFromInt(12500)) {
			t.Errorf("expected direct commission of 12500 for %s, got %s for %s", commissioner, direct.Amount, direct.BeneficiaryID)
		}
		if override.BeneficiaryID != upline || !override.Amount.Equal(decimal.NewFromInt(2500)) {
			t.Errorf("expected override commission of 2500 for %s, got %s for %s", upline, override.Amount, override.BeneficiaryID)
		}
		for _, c := range result.Commissions {
			if c.Status != domain.CommissionStatusAccrued {
				t.Errorf("expected commission %s accrued, got %s", c.ID, c.Status)
			}
			if !c.BasisAmount.Equal(decimal.NewFromInt(50000)) {
				t.Errorf("expected basis 50000, got %s", c.BasisAmount)
			}
		}

		project, _ := f.projectRepo.GetByID(context.Background(), "proj-1")
		if project.State != domain.EscrowStateActive {
			t.Errorf("expected project to stay active, got %s", project.State)
		}
		if !project.HeldBalance.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected held balance 50000, got %s", project.HeldBalance)
		}
		if !project.ReleasedTotal.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected released total 50000, got %s", project.ReleasedTotal)
		}
	})

	t.Run("first approval activates a verified project", func(t *testing.T) {
		f := newMilestoneFixture()
		seedFunded(f, domain.EscrowStateVerified)
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(30)})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(70)})

		if _, err := f.uc.Approve(context.Background(), "ms-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		project, _ := f.projectRepo.GetByID(context.Background(), "proj-1")
		if project.State != domain.EscrowStateActive {
			t.Errorf("expected state %s, got %s", domain.EscrowStateActive, project.State)
		}
	})

	t.Run("approving the last milestone completes the project", func(t *testing.T) {
		f := newMilestoneFixture()
		seedFunded(f, domain.EscrowStateActive)
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusApproved, PercentAmount: decimal.NewFromInt(50)})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})

		if _, err := f.uc.Approve(context.Background(), "ms-2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		project, _ := f.projectRepo.GetByID(context.Background(), "proj-1")
		if project.State != domain.EscrowStateCompleted {
			t.Errorf("expected state %s, got %s", domain.EscrowStateCompleted, project.State)
		}
	})

	t.Run("insufficient escrow funds leaves everything untouched", func(t *testing.T) {
		f := newMilestoneFixture()
		f.projectRepo.Seed(&domain.Project{
			ID:             "proj-1",
			CommissionerID: commissioner,
			TotalValue:     decimal.NewFromInt(100000),
			State:          domain.EscrowStateActive,
			HeldBalance:    decimal.NewFromInt(10000),
		})
		f.profiles.Seed(&domain.CommissionerProfile{UserID: commissioner, Tier: domain.TierStandard})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})

		var committed bool
		f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			return &mocks.FakeTransaction{
				CommitFunc: func(ctx context.Context) error { committed = true; return nil },
			}, nil
		}

		_, err := f.uc.Approve(context.Background(), "ms-1")
		if !errors.Is(err, domain.ErrInsufficientEscrowFunds) {
			t.Fatalf("expected %v, got %v", domain.ErrInsufficientEscrowFunds, err)
		}
		if committed {
			t.Error("transaction committed despite underfunded escrow")
		}
		if len(f.entryRepo.Entries()) != 0 {
			t.Error("ledger entry written despite underfunded escrow")
		}
	})

	t.Run("reject approval of unsubmitted milestone", func(t *testing.T) {
		f := newMilestoneFixture()
		seedFunded(f, domain.EscrowStateActive)
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusInProgress, PercentAmount: decimal.NewFromInt(50)})

		if _, err := f.uc.Approve(context.Background(), "ms-1"); !errors.Is(err, domain.ErrMilestoneNotSubmitted) {
			t.Errorf("expected %v, got %v", domain.ErrMilestoneNotSubmitted, err)
		}
	})

	t.Run("no override without an upline referrer", func(t *testing.T) {
		f := newMilestoneFixture()
		f.projectRepo.Seed(&domain.Project{
			ID:             "proj-1",
			CommissionerID: commissioner,
			TotalValue:     decimal.NewFromInt(100000),
			State:          domain.EscrowStateActive,
			HeldBalance:    decimal.NewFromInt(100000),
		})
		f.profiles.Seed(&domain.CommissionerProfile{UserID: commissioner, Tier: domain.TierGold})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})
		f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-2", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(50)})

		result, err := f.uc.Approve(context.Background(), "ms-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Commissions) != 1 {
			t.Fatalf("expected 1 commission, got %d", len(result.Commissions))
		}
		if !result.Commissions[0].Amount.Equal(decimal.NewFromInt(15000)) {
			t.Errorf("expected gold direct commission 15000, got %s", result.Commissions[0].Amount)
		}
	})
}

func TestMilestoneUseCase_Reject(t *testing.T) {
	f := newMilestoneFixture()
	f.milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusSubmitted, PercentAmount: decimal.NewFromInt(50)})

	m, err := f.uc.Reject(domain.WithAdminID(context.Background(), "admin-1"), "ms-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != domain.MilestoneStatusInProgress {
		t.Errorf("expected status %s, got %s", domain.MilestoneStatusInProgress, m.Status)
	}
	if m.DecidedBy != "admin-1" {
		t.Errorf("expected DecidedBy admin-1, got %s", m.DecidedBy)
	}

	// No ledger effect on rejection.
	if len(f.entryRepo.Entries()) != 0 {
		t.Error("rejection wrote a ledger entry")
	}

	// The milestone can be resubmitted and released later.
	if _, err := f.uc.Submit(context.Background(), "ms-1"); err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
}
