package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
	"github.com/devmarket/escrow/internal/usecase/mocks"
)

func seedEntry(entryRepo *mocks.FakeEntryRepository, id string, kind domain.EntryKind, amount, after int64) {
	entryRepo.Create(context.Background(), nil, &domain.LedgerEntry{
		ID:           id,
		ProjectID:    "proj-1",
		Kind:         kind,
		Status:       domain.EntryStatusCompleted,
		Amount:       decimal.NewFromInt(amount),
		BalanceAfter: decimal.NewFromInt(after),
	})
}

func TestLedgerUseCase_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	projectRepo := mocks.NewMockProjectRepository(ctrl)
	uc := usecase.NewLedgerUseCase(projectRepo, mocks.NewMockEntryRepository(ctrl))

	projectRepo.EXPECT().GetByID(gomock.Any(), "proj-1").Return(&domain.Project{
		ID:            "proj-1",
		State:         domain.EscrowStateActive,
		HeldBalance:   decimal.NewFromInt(50000),
		ReleasedTotal: decimal.NewFromInt(50000),
	}, nil)

	balance, err := uc.GetBalance(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.HeldBalance.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected held balance 50000, got %s", balance.HeldBalance)
	}
	if !balance.ReleasedTotal.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected released total 50000, got %s", balance.ReleasedTotal)
	}

	projectRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrProjectNotFound)

	if _, err := uc.GetBalance(context.Background(), "missing"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected %v, got %v", domain.ErrProjectNotFound, err)
	}
}

func TestLedgerUseCase_VerifyLedger(t *testing.T) {
	tests := []struct {
		name           string
		held           int64
		seed           func(*mocks.FakeEntryRepository)
		wantConsistent bool
		wantReplayed   int64
	}{
		{
			name: "consistent chain",
			held: 50000,
			seed: func(entryRepo *mocks.FakeEntryRepository) {
				seedEntry(entryRepo, "e-1", domain.EntryKindDeposit, 100000, 100000)
				seedEntry(entryRepo, "e-2", domain.EntryKindMilestoneRelease, -50000, 50000)
			},
			wantConsistent: true,
			wantReplayed:   50000,
		},
		{
			name: "broken balance snapshot",
			held: 50000,
			seed: func(entryRepo *mocks.FakeEntryRepository) {
				seedEntry(entryRepo, "e-1", domain.EntryKindDeposit, 100000, 100000)
				seedEntry(entryRepo, "e-2", domain.EntryKindMilestoneRelease, -50000, 40000)
			},
			wantReplayed: 50000,
		},
		{
			name: "materialized balance drifted from the ledger",
			held: 99999,
			seed: func(entryRepo *mocks.FakeEntryRepository) {
				seedEntry(entryRepo, "e-1", domain.EntryKindDeposit, 100000, 100000)
				seedEntry(entryRepo, "e-2", domain.EntryKindMilestoneRelease, -50000, 50000)
			},
			wantReplayed: 50000,
		},
		{
			name:           "empty ledger is consistent at zero",
			held:           0,
			seed:           func(*mocks.FakeEntryRepository) {},
			wantConsistent: true,
			wantReplayed:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := mocks.NewFakeProjectRepository()
			projectRepo.Seed(&domain.Project{
				ID:          "proj-1",
				State:       domain.EscrowStateActive,
				HeldBalance: decimal.NewFromInt(tt.held),
			})
			entryRepo := mocks.NewFakeEntryRepository()
			tt.seed(entryRepo)

			uc := usecase.NewLedgerUseCase(projectRepo, entryRepo)

			report, err := uc.VerifyLedger(context.Background(), "proj-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.Consistent != tt.wantConsistent {
				t.Errorf("expected consistent=%v, got %v (fault: %s)", tt.wantConsistent, report.Consistent, report.Fault)
			}
			if !tt.wantConsistent && report.Fault == "" {
				t.Error("expected a fault description on an inconsistent ledger")
			}
			if !report.ReplayedBalance.Equal(decimal.NewFromInt(tt.wantReplayed)) {
				t.Errorf("expected replayed balance %d, got %s", tt.wantReplayed, report.ReplayedBalance)
			}
		})
	}
}

func TestLedgerUseCase_ListEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	uc := usecase.NewLedgerUseCase(mocks.NewMockProjectRepository(ctrl), entryRepo)

	entryRepo.EXPECT().ListByProject(gomock.Any(), "proj-1", 10, 0).Return([]*domain.LedgerEntry{
		{ID: "e-1", ProjectID: "proj-1", Kind: domain.EntryKindDeposit, Amount: decimal.NewFromInt(100000)},
		{ID: "e-2", ProjectID: "proj-1", Kind: domain.EntryKindMilestoneRelease, Amount: decimal.NewFromInt(-50000)},
	}, nil)

	entries, err := uc.ListEntries(context.Background(), usecase.ListEntriesInput{ProjectID: "proj-1", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestLedgerUseCase_ListEntriesClampsPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	uc := usecase.NewLedgerUseCase(mocks.NewMockProjectRepository(ctrl), entryRepo)

	entryRepo.EXPECT().ListByProject(gomock.Any(), "proj-1", 20, 0).Return(nil, nil)

	if _, err := uc.ListEntries(context.Background(), usecase.ListEntriesInput{ProjectID: "proj-1", Limit: 0, Offset: -5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
