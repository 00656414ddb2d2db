package dto

import (
	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// RegisterProjectRequest represents a request to register a project.
type RegisterProjectRequest struct {
	Title          string          `json:"title"`
	ClientID       string          `json:"client_id"`
	CommissionerID string          `json:"commissioner_id"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterProjectRequest) ToUseCaseInput() usecase.RegisterProjectInput {
	return usecase.RegisterProjectInput{
		Title:          r.Title,
		ClientID:       r.ClientID,
		CommissionerID: r.CommissionerID,
		TotalValue:     r.TotalValue,
	}
}

// VerifyDepositRequest is the payload the payment verification source posts
// when an external deposit has cleared.
type VerifyDepositRequest struct {
	ProjectID string          `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// ToUseCaseInput converts to use case input.
func (r *VerifyDepositRequest) ToUseCaseInput() usecase.VerifyDepositInput {
	return usecase.VerifyDepositInput{
		ProjectID: r.ProjectID,
		Amount:    r.Amount,
		Reference: r.Reference,
	}
}

// DefineMilestoneRequest represents a request to define a milestone.
type DefineMilestoneRequest struct {
	Title         string                 `json:"title"`
	PercentAmount decimal.Decimal        `json:"percent_amount"`
	Checklist     []domain.ChecklistItem `json:"checklist,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DefineMilestoneRequest) ToUseCaseInput(projectID string) usecase.DefineMilestoneInput {
	return usecase.DefineMilestoneInput{
		ProjectID:     projectID,
		Title:         r.Title,
		PercentAmount: r.PercentAmount,
		Checklist:     r.Checklist,
	}
}

// UpdateChecklistRequest represents a request to replace a milestone's
// checklist.
type UpdateChecklistRequest struct {
	Checklist []domain.ChecklistItem `json:"checklist"`
}

// RecordAdjustmentRequest represents a request for a manual compensating
// entry.
type RecordAdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordAdjustmentRequest) ToUseCaseInput(projectID string) usecase.RecordAdjustmentInput {
	return usecase.RecordAdjustmentInput{
		ProjectID: projectID,
		Amount:    r.Amount,
		Reason:    r.Reason,
	}
}

// RequestPayoutRequest represents a request to pay out accrued commissions.
type RequestPayoutRequest struct {
	BeneficiaryID string   `json:"beneficiary_id"`
	CommissionIDs []string `json:"commission_ids"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestPayoutRequest) ToUseCaseInput() usecase.RequestPayoutInput {
	return usecase.RequestPayoutInput{
		BeneficiaryID: r.BeneficiaryID,
		CommissionIDs: r.CommissionIDs,
	}
}

// DecidePayoutRequest represents an admin decision on a payout request.
type DecidePayoutRequest struct {
	Action domain.PayoutDecision `json:"action"`
}
