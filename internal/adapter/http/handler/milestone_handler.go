package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devmarket/escrow/internal/adapter/http/dto"
	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// MilestoneService defines the behavior needed by MilestoneHandler.
type MilestoneService interface {
	DefineMilestone(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error)
	Start(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	Submit(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	UpdateChecklist(ctx context.Context, milestoneID string, checklist []domain.ChecklistItem) error
	Approve(ctx context.Context, milestoneID string) (*usecase.ReleaseResult, error)
	Reject(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	GetMilestone(ctx context.Context, id string) (*domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error)
}

// MilestoneHandler handles milestone HTTP requests.
type MilestoneHandler struct {
	milestoneUC MilestoneService
}

// NewMilestoneHandler creates a new MilestoneHandler.
func NewMilestoneHandler(milestoneUC MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneUC: milestoneUC}
}

// Define adds a milestone to a project.
func (h *MilestoneHandler) Define(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req dto.DefineMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	milestone, err := h.milestoneUC.DefineMilestone(r.Context(), req.ToUseCaseInput(projectID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to define milestone", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MilestoneFromDomain(milestone))
}

// Start moves a milestone into progress.
func (h *MilestoneHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.milestoneUC.Start)
}

// Submit marks a milestone delivered and awaiting approval.
func (h *MilestoneHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.milestoneUC.Submit)
}

func (h *MilestoneHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*domain.Milestone, error)) {
	id := chi.URLParam(r, "id")

	milestone, err := op(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update milestone", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MilestoneFromDomain(milestone))
}

// UpdateChecklist replaces a milestone's checklist.
func (h *MilestoneHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.milestoneUC.UpdateChecklist(r.Context(), id, req.Checklist); err != nil {
		writeError(w, mapDomainError(err), "failed to update checklist", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve releases a submitted milestone's funds and accrues commissions.
func (h *MilestoneHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.milestoneUC.Approve(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to approve milestone", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReleaseFromResult(result))
}

// Reject sends a submitted milestone back to the commissioner.
func (h *MilestoneHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	milestone, err := h.milestoneUC.Reject(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reject milestone", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MilestoneFromDomain(milestone))
}

// Get retrieves a milestone by ID.
func (h *MilestoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing milestone ID", "")
		return
	}

	milestone, err := h.milestoneUC.GetMilestone(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get milestone", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MilestoneFromDomain(milestone))
}

// ListByProject lists a project's milestones.
func (h *MilestoneHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	milestones, err := h.milestoneUC.ListByProject(r.Context(), projectID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list milestones", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MilestonesFromDomain(milestones))
}
