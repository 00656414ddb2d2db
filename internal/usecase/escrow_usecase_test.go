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

func newEscrowUseCase(
	projectRepo *mocks.FakeProjectRepository,
	entryRepo *mocks.FakeEntryRepository,
	milestoneRepo *mocks.FakeMilestoneRepository,
	outboxRepo *mocks.FakeOutboxRepository,
) *usecase.EscrowUseCase {
	return usecase.NewEscrowUseCase(
		mocks.NewFakeTransactionManager(),
		projectRepo,
		entryRepo,
		milestoneRepo,
		outboxRepo,
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		nil,
		nil,
	)
}

func TestEscrowUseCase_RegisterProject(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.RegisterProjectInput
		expectError bool
		errorType   error
	}{
		{
			name: "successful registration",
			input: usecase.RegisterProjectInput{
				Title:          "CRM rebuild",
				ClientID:       "client-1",
				CommissionerID: "comm-1",
				TotalValue:     decimal.NewFromInt(100000),
			},
		},
		{
			name: "reject zero total value",
			input: usecase.RegisterProjectInput{
				Title:          "empty",
				ClientID:       "client-1",
				CommissionerID: "comm-1",
				TotalValue:     decimal.Zero,
			},
			expectError: true,
			errorType:   domain.ErrInvalidAmount,
		},
		{
			name: "reject negative total value",
			input: usecase.RegisterProjectInput{
				Title:          "negative",
				ClientID:       "client-1",
				CommissionerID: "comm-1",
				TotalValue:     decimal.NewFromInt(-1),
			},
			expectError: true,
			errorType:   domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := mocks.NewFakeProjectRepository()
			uc := newEscrowUseCase(projectRepo, mocks.NewFakeEntryRepository(), mocks.NewFakeMilestoneRepository(), mocks.NewFakeOutboxRepository())

			project, err := uc.RegisterProject(context.Background(), tt.input)

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
			if project.State != domain.EscrowStateDepositPending {
				t.Errorf("expected state %s, got %s", domain.EscrowStateDepositPending, project.State)
			}
			if !project.HeldBalance.IsZero() {
				t.Errorf("expected zero held balance, got %s", project.HeldBalance)
			}
		})
	}
}

func TestEscrowUseCase_VerifyDeposit(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.VerifyDepositInput
		seed        func(*mocks.FakeProjectRepository, *mocks.FakeEntryRepository)
		expectError bool
		errorType   error
	}{
		{
			name: "successful verification",
			input: usecase.VerifyDepositInput{
				ProjectID: "proj-1",
				Amount:    decimal.NewFromInt(100000),
				Reference: "bank-tx-001",
			},
			seed: func(projectRepo *mocks.FakeProjectRepository, entryRepo *mocks.FakeEntryRepository) {
				projectRepo.Seed(&domain.Project{
					ID:          "proj-1",
					TotalValue:  decimal.NewFromInt(100000),
					State:       domain.EscrowStateDepositPending,
					HeldBalance: decimal.Zero,
				})
			},
		},
		{
			name: "reject replayed reference",
			input: usecase.VerifyDepositInput{
				ProjectID: "proj-1",
				Amount:    decimal.NewFromInt(100000),
				Reference: "bank-tx-001",
			},
			seed: func(projectRepo *mocks.FakeProjectRepository, entryRepo *mocks.FakeEntryRepository) {
				projectRepo.Seed(&domain.Project{
					ID:          "proj-1",
					TotalValue:  decimal.NewFromInt(100000),
					State:       domain.EscrowStateDepositPending,
					HeldBalance: decimal.Zero,
				})
				entryRepo.Create(context.Background(), nil, &domain.LedgerEntry{
					ID:        "entry-0",
					ProjectID: "proj-1",
					Kind:      domain.EntryKindDeposit,
					Reference: "bank-tx-001",
				})
			},
			expectError: true,
			errorType:   domain.ErrDuplicateReference,
		},
		{
			name: "reject deposit on already verified project",
			input: usecase.VerifyDepositInput{
				ProjectID: "proj-1",
				Amount:    decimal.NewFromInt(50000),
				Reference: "bank-tx-002",
			},
			seed: func(projectRepo *mocks.FakeProjectRepository, entryRepo *mocks.FakeEntryRepository) {
				projectRepo.Seed(&domain.Project{
					ID:          "proj-1",
					TotalValue:  decimal.NewFromInt(100000),
					State:       domain.EscrowStateVerified,
					HeldBalance: decimal.NewFromInt(100000),
				})
			},
			expectError: true,
			errorType:   domain.ErrInvalidStateTransition,
		},
		{
			name: "reject non-positive amount",
			input: usecase.VerifyDepositInput{
				ProjectID: "proj-1",
				Amount:    decimal.Zero,
				Reference: "bank-tx-003",
			},
			seed:        func(*mocks.FakeProjectRepository, *mocks.FakeEntryRepository) {},
			expectError: true,
			errorType:   domain.ErrInvalidAmount,
		},
		{
			name: "unknown project",
			input: usecase.VerifyDepositInput{
				ProjectID: "missing",
				Amount:    decimal.NewFromInt(100),
				Reference: "bank-tx-004",
			},
			seed:        func(*mocks.FakeProjectRepository, *mocks.FakeEntryRepository) {},
			expectError: true,
			errorType:   domain.ErrProjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := mocks.NewFakeProjectRepository()
			entryRepo := mocks.NewFakeEntryRepository()
			outboxRepo := mocks.NewFakeOutboxRepository()
			tt.seed(projectRepo, entryRepo)

			uc := newEscrowUseCase(projectRepo, entryRepo, mocks.NewFakeMilestoneRepository(), outboxRepo)

			entry, err := uc.VerifyDeposit(context.Background(), tt.input)

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
			if entry.Kind != domain.EntryKindDeposit {
				t.Errorf("expected kind %s, got %s", domain.EntryKindDeposit, entry.Kind)
			}
			if !entry.BalanceAfter.Equal(tt.input.Amount) {
				t.Errorf("expected balance after %s, got %s", tt.input.Amount, entry.BalanceAfter)
			}

			project, _ := projectRepo.GetByID(context.Background(), tt.input.ProjectID)
			if project.State != domain.EscrowStateVerified {
				t.Errorf("expected state %s, got %s", domain.EscrowStateVerified, project.State)
			}
			if !project.HeldBalance.Equal(tt.input.Amount) {
				t.Errorf("expected held balance %s, got %s", tt.input.Amount, project.HeldBalance)
			}

			events := outboxRepo.Events()
			if len(events) != 1 || events[0].EventType != domain.EventTypeDepositVerified {
				t.Errorf("expected one %s outbox event, got %v", domain.EventTypeDepositVerified, events)
			}
		})
	}
}

func TestEscrowUseCase_Activate(t *testing.T) {
	tests := []struct {
		name        string
		seed        func(*mocks.FakeProjectRepository, *mocks.FakeMilestoneRepository)
		expectError bool
		errorType   error
	}{
		{
			name: "verified project with milestone activates",
			seed: func(projectRepo *mocks.FakeProjectRepository, milestoneRepo *mocks.FakeMilestoneRepository) {
				projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateVerified, HeldBalance: decimal.NewFromInt(1000)})
				milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(50)})
			},
		},
		{
			name: "reject activation without milestones",
			seed: func(projectRepo *mocks.FakeProjectRepository, milestoneRepo *mocks.FakeMilestoneRepository) {
				projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateVerified, HeldBalance: decimal.NewFromInt(1000)})
			},
			expectError: true,
			errorType:   domain.ErrInvalidStateTransition,
		},
		{
			name: "reject activation before deposit",
			seed: func(projectRepo *mocks.FakeProjectRepository, milestoneRepo *mocks.FakeMilestoneRepository) {
				projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateDepositPending})
				milestoneRepo.Seed(&domain.Milestone{ID: "ms-1", ProjectID: "proj-1", Status: domain.MilestoneStatusPending, PercentAmount: decimal.NewFromInt(50)})
			},
			expectError: true,
			errorType:   domain.ErrInvalidStateTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := mocks.NewFakeProjectRepository()
			milestoneRepo := mocks.NewFakeMilestoneRepository()
			tt.seed(projectRepo, milestoneRepo)

			uc := newEscrowUseCase(projectRepo, mocks.NewFakeEntryRepository(), milestoneRepo, mocks.NewFakeOutboxRepository())

			project, err := uc.Activate(context.Background(), "proj-1")

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
			if project.State != domain.EscrowStateActive {
				t.Errorf("expected state %s, got %s", domain.EscrowStateActive, project.State)
			}
		})
	}
}

func TestEscrowUseCase_Refund(t *testing.T) {
	projectRepo := mocks.NewFakeProjectRepository()
	entryRepo := mocks.NewFakeEntryRepository()
	outboxRepo := mocks.NewFakeOutboxRepository()
	projectRepo.Seed(&domain.Project{
		ID:            "proj-1",
		State:         domain.EscrowStateActive,
		HeldBalance:   decimal.NewFromInt(60000),
		ReleasedTotal: decimal.NewFromInt(40000),
		Version:       2,
	})

	uc := newEscrowUseCase(projectRepo, entryRepo, mocks.NewFakeMilestoneRepository(), outboxRepo)

	entry, err := uc.Refund(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Kind != domain.EntryKindRefund {
		t.Errorf("expected kind %s, got %s", domain.EntryKindRefund, entry.Kind)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(-60000)) {
		t.Errorf("expected amount -60000, got %s", entry.Amount)
	}
	if !entry.BalanceAfter.IsZero() {
		t.Errorf("expected zero balance after, got %s", entry.BalanceAfter)
	}

	project, _ := projectRepo.GetByID(context.Background(), "proj-1")
	if project.State != domain.EscrowStateRefunded {
		t.Errorf("expected state %s, got %s", domain.EscrowStateRefunded, project.State)
	}
	if !project.HeldBalance.IsZero() {
		t.Errorf("expected zero held balance, got %s", project.HeldBalance)
	}

	// A refunded project is terminal.
	if _, err := uc.Refund(context.Background(), "proj-1"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("expected %v on second refund, got %v", domain.ErrInvalidStateTransition, err)
	}
}

func TestEscrowUseCase_RecordAdjustment(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.RecordAdjustmentInput
		held        decimal.Decimal
		wantBalance decimal.Decimal
		expectError bool
		errorType   error
	}{
		{
			name: "positive correction",
			input: usecase.RecordAdjustmentInput{
				ProjectID: "proj-1",
				Amount:    decimal.NewFromInt(500),
				Reason:    "bank reconciliation surplus",
			},
			held:        decimal.NewFromInt(1000),
			wantBalance: decimal.NewFromInt(1500),
		},
		{
			name: "negative correction may drive the balance negative",
			input: usecase.RecordAdjustmentInput{
				ProjectID: "proj-1",
				Amount:    decimal.NewFromInt(-1500),
				Reason:    "chargeback on deposit",
			},
			held:        decimal.NewFromInt(1000),
			wantBalance: decimal.NewFromInt(-500),
		},
		{
			name: "reject zero adjustment",
			input: usecase.RecordAdjustmentInput{
				ProjectID: "proj-1",
				Amount:    decimal.Zero,
				Reason:    "noop",
			},
			expectError: true,
			errorType:   domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := mocks.NewFakeProjectRepository()
			projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateActive, HeldBalance: tt.held})

			auditRepo := mocks.NewFakeAuditRepository()
			uc := usecase.NewEscrowUseCase(
				mocks.NewFakeTransactionManager(),
				projectRepo,
				mocks.NewFakeEntryRepository(),
				mocks.NewFakeMilestoneRepository(),
				mocks.NewFakeOutboxRepository(),
				auditRepo,
				mocks.NewFakeIDGenerator(),
				nil,
				nil,
			)

			entry, err := uc.RecordAdjustment(domain.WithAdminID(context.Background(), "admin-7"), tt.input)

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
			if !entry.BalanceAfter.Equal(tt.wantBalance) {
				t.Errorf("expected balance after %s, got %s", tt.wantBalance, entry.BalanceAfter)
			}

			project, _ := projectRepo.GetByID(context.Background(), "proj-1")
			if !project.HeldBalance.Equal(tt.wantBalance) {
				t.Errorf("expected held balance %s, got %s", tt.wantBalance, project.HeldBalance)
			}

			logs := auditRepo.Logs()
			if len(logs) != 1 {
				t.Fatalf("expected one audit log, got %d", len(logs))
			}
			if logs[0].ActorID != "admin-7" {
				t.Errorf("expected actor admin-7, got %s", logs[0].ActorID)
			}
		})
	}
}

func TestEscrowUseCase_RollbackOnFailure(t *testing.T) {
	projectRepo := mocks.NewFakeProjectRepository()
	projectRepo.Seed(&domain.Project{ID: "proj-1", State: domain.EscrowStateDepositPending, HeldBalance: decimal.Zero})

	entryRepo := mocks.NewFakeEntryRepository()
	entryRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		return errors.New("write failed")
	}

	txMgr := mocks.NewFakeTransactionManager()
	var rolledBack, committed bool
	txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return &mocks.FakeTransaction{
			CommitFunc:   func(ctx context.Context) error { committed = true; return nil },
			RollbackFunc: func(ctx context.Context) error { rolledBack = true; return nil },
		}, nil
	}

	uc := usecase.NewEscrowUseCase(
		txMgr,
		projectRepo,
		entryRepo,
		mocks.NewFakeMilestoneRepository(),
		mocks.NewFakeOutboxRepository(),
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		nil,
		nil,
	)

	_, err := uc.VerifyDeposit(context.Background(), usecase.VerifyDepositInput{
		ProjectID: "proj-1",
		Amount:    decimal.NewFromInt(100),
		Reference: "bank-tx-010",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if committed {
		t.Error("transaction committed despite entry write failure")
	}
	if !rolledBack {
		t.Error("transaction was not rolled back")
	}
}
