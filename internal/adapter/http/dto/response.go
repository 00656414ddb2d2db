package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	ClientID       string          `json:"client_id"`
	CommissionerID string          `json:"commissioner_id"`
	TotalValue     decimal.Decimal `json:"total_value"`
	State          string          `json:"state"`
	HeldBalance    decimal.Decimal `json:"held_balance"`
	ReleasedTotal  decimal.Decimal `json:"released_total"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProjectFromDomain converts a domain project to a response.
func ProjectFromDomain(p *domain.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:             p.ID,
		Title:          p.Title,
		ClientID:       p.ClientID,
		CommissionerID: p.CommissionerID,
		TotalValue:     p.TotalValue,
		State:          string(p.State),
		HeldBalance:    p.HeldBalance,
		ReleasedTotal:  p.ReleasedTotal,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ProjectsFromDomain converts domain projects to responses.
func ProjectsFromDomain(projects []*domain.Project) []*ProjectResponse {
	result := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = ProjectFromDomain(p)
	}
	return result
}

// ListProjectsResponse wraps a page of projects.
type ListProjectsResponse struct {
	Projects []*ProjectResponse `json:"projects"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"project_id"`
	Kind           string          `json:"kind"`
	Status         string          `json:"status"`
	Description    string          `json:"description,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	ProjectVersion int64           `json:"project_version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		ProjectID:      e.ProjectID,
		Kind:           string(e.Kind),
		Status:         string(e.Status),
		Description:    e.Description,
		Reference:      e.Reference,
		Amount:         e.Amount,
		BalanceAfter:   e.BalanceAfter,
		ProjectVersion: e.ProjectVersion,
		CreatedAt:      e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// MilestoneResponse represents a milestone in API responses.
type MilestoneResponse struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"project_id"`
	Title          string                 `json:"title"`
	Status         string                 `json:"status"`
	PercentAmount  decimal.Decimal        `json:"percent_amount"`
	ReleasedAmount decimal.Decimal        `json:"released_amount"`
	ReleaseEntryID string                 `json:"release_entry_id,omitempty"`
	Checklist      []domain.ChecklistItem `json:"checklist,omitempty"`
	DecidedBy      string                 `json:"decided_by,omitempty"`
	SubmittedAt    *time.Time             `json:"submitted_at,omitempty"`
	DecidedAt      *time.Time             `json:"decided_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// MilestoneFromDomain converts a domain milestone to a response.
func MilestoneFromDomain(m *domain.Milestone) *MilestoneResponse {
	return &MilestoneResponse{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		Title:          m.Title,
		Status:         string(m.Status),
		PercentAmount:  m.PercentAmount,
		ReleasedAmount: m.ReleasedAmount,
		ReleaseEntryID: m.ReleaseEntryID,
		Checklist:      m.Checklist,
		DecidedBy:      m.DecidedBy,
		SubmittedAt:    m.SubmittedAt,
		DecidedAt:      m.DecidedAt,
		CreatedAt:      m.CreatedAt,
	}
}

// MilestonesFromDomain converts domain milestones to responses.
func MilestonesFromDomain(milestones []*domain.Milestone) []*MilestoneResponse {
	result := make([]*MilestoneResponse, len(milestones))
	for i, m := range milestones {
		result[i] = MilestoneFromDomain(m)
	}
	return result
}

// CommissionResponse represents a commission in API responses.
type CommissionResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	EntryID         string          `json:"entry_id"`
	BeneficiaryID   string          `json:"beneficiary_id"`
	BeneficiaryRole string          `json:"beneficiary_role"`
	Tier            string          `json:"tier"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	PayoutRequestID string          `json:"payout_request_id,omitempty"`
	BasisAmount     decimal.Decimal `json:"basis_amount"`
	Rate            decimal.Decimal `json:"rate"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CommissionFromDomain converts a domain commission to a response.
func CommissionFromDomain(c *domain.Commission) *CommissionResponse {
	return &CommissionResponse{
		ID:              c.ID,
		ProjectID:       c.ProjectID,
		EntryID:         c.EntryID,
		BeneficiaryID:   c.BeneficiaryID,
		BeneficiaryRole: string(c.BeneficiaryRole),
		Tier:            string(c.Tier),
		Type:            string(c.Type),
		Status:          string(c.Status),
		PayoutRequestID: c.PayoutRequestID,
		BasisAmount:     c.BasisAmount,
		Rate:            c.Rate,
		Amount:          c.Amount,
		PaidAt:          c.PaidAt,
		CreatedAt:       c.CreatedAt,
	}
}

// CommissionsFromDomain converts domain commissions to responses.
func CommissionsFromDomain(commissions []*domain.Commission) []*CommissionResponse {
	result := make([]*CommissionResponse, len(commissions))
	for i, c := range commissions {
		result[i] = CommissionFromDomain(c)
	}
	return result
}

// ReleaseResponse is the outcome of approving a milestone: the updated
// milestone, the ledger entry it appended and the commissions it accrued.
type ReleaseResponse struct {
	Milestone   *MilestoneResponse    `json:"milestone"`
	Entry       *EntryResponse        `json:"entry"`
	Commissions []*CommissionResponse `json:"commissions"`
}

// ReleaseFromResult converts a release result to a response.
func ReleaseFromResult(r *usecase.ReleaseResult) *ReleaseResponse {
	return &ReleaseResponse{
		Milestone:   MilestoneFromDomain(r.Milestone),
		Entry:       EntryFromDomain(r.Entry),
		Commissions: CommissionsFromDomain(r.Commissions),
	}
}

// PayoutResponse represents a payout request in API responses.
type PayoutResponse struct {
	ID            string          `json:"id"`
	BeneficiaryID string          `json:"beneficiary_id"`
	Destination   string          `json:"destination"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	CommissionIDs []string        `json:"commission_ids"`
	DecidedBy     string          `json:"decided_by,omitempty"`
	RequestedAt   time.Time       `json:"requested_at"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
}

// PayoutFromDomain converts a domain payout request to a response.
func PayoutFromDomain(p *domain.PayoutRequest) *PayoutResponse {
	return &PayoutResponse{
		ID:            p.ID,
		BeneficiaryID: p.BeneficiaryID,
		Destination:   p.Destination,
		Status:        string(p.Status),
		Amount:        p.Amount,
		CommissionIDs: p.CommissionIDs,
		DecidedBy:     p.DecidedBy,
		RequestedAt:   p.RequestedAt,
		DecidedAt:     p.DecidedAt,
	}
}

// PayoutsFromDomain converts domain payout requests to responses.
func PayoutsFromDomain(requests []*domain.PayoutRequest) []*PayoutResponse {
	result := make([]*PayoutResponse, len(requests))
	for i, p := range requests {
		result[i] = PayoutFromDomain(p)
	}
	return result
}

// BalanceResponse is a project's materialized escrow position.
type BalanceResponse struct {
	ProjectID     string          `json:"project_id"`
	State         string          `json:"state"`
	HeldBalance   decimal.Decimal `json:"held_balance"`
	ReleasedTotal decimal.Decimal `json:"released_total"`
}

// BalanceFromUseCase converts a balance to a response.
func BalanceFromUseCase(b *usecase.Balance) *BalanceResponse {
	return &BalanceResponse{
		ProjectID:     b.ProjectID,
		State:         string(b.State),
		HeldBalance:   b.HeldBalance,
		ReleasedTotal: b.ReleasedTotal,
	}
}

// VerificationResponse is the outcome of replaying a project's ledger.
type VerificationResponse struct {
	ProjectID       string          `json:"project_id"`
	EntryCount      int             `json:"entry_count"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	HeldBalance     decimal.Decimal `json:"held_balance"`
	Consistent      bool            `json:"consistent"`
	Fault           string          `json:"fault,omitempty"`
}

// VerificationFromUseCase converts a verification report to a response.
func VerificationFromUseCase(r *usecase.VerificationReport) *VerificationResponse {
	return &VerificationResponse{
		ProjectID:       r.ProjectID,
		EntryCount:      r.EntryCount,
		ReplayedBalance: r.ReplayedBalance,
		HeldBalance:     r.HeldBalance,
		Consistent:      r.Consistent,
		Fault:           r.Fault,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
