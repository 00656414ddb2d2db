package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
)

// LedgerUseCase serves read paths over the append-only ledger and verifies
// the balance chain.
type LedgerUseCase struct {
	projectRepo ProjectRepository
	entryRepo   EntryRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(projectRepo ProjectRepository, entryRepo EntryRepository) *LedgerUseCase {
	return &LedgerUseCase{
		projectRepo: projectRepo,
		entryRepo:   entryRepo,
	}
}

// ListEntriesInput represents input for listing ledger entries.
type ListEntriesInput struct {
	ProjectID string
	Limit     int
	Offset    int
}

// ListEntries lists a project's ledger entries in creation order.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := clampPage(input.Limit, input.Offset)
	return uc.entryRepo.ListByProject(ctx, input.ProjectID, limit, offset)
}

// Balance is the materialized escrow position of a project.
type Balance struct {
	ProjectID     string
	State         domain.EscrowState
	HeldBalance   decimal.Decimal
	ReleasedTotal decimal.Decimal
}

// GetBalance returns the project's current escrow position.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, projectID string) (*Balance, error) {
	project, err := uc.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Balance{
		ProjectID:     project.ID,
		State:         project.State,
		HeldBalance:   project.HeldBalance,
		ReleasedTotal: project.ReleasedTotal,
	}, nil
}

// VerificationReport is the outcome of replaying a project's ledger.
type VerificationReport struct {
	ProjectID       string
	EntryCount      int
	ReplayedBalance decimal.Decimal
	HeldBalance     decimal.Decimal
	Consistent      bool
	Fault           string
}

// VerifyLedger replays every entry for the project, checks each BalanceAfter
// snapshot against the recomputed running total, and compares the final
// balance with the materialized held balance. The materialized record is an
// index over the ledger; any divergence means it has drifted.
func (uc *LedgerUseCase) VerifyLedger(ctx context.Context, projectID string) (*VerificationReport, error) {
	project, err := uc.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListAllByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		ProjectID:   projectID,
		EntryCount:  len(entries),
		HeldBalance: project.HeldBalance,
	}

	final, err := domain.VerifyChain(entries)
	report.ReplayedBalance = final
	if err != nil {
		report.Fault = err.Error()
		return report, nil
	}

	if !final.Equal(project.HeldBalance) {
		report.Fault = "materialized held balance diverges from replayed ledger"
		return report, nil
	}

	report.Consistent = true
	return report, nil
}
