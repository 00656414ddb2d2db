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

// EscrowService defines the behavior needed by ProjectHandler.
type EscrowService interface {
	RegisterProject(ctx context.Context, input usecase.RegisterProjectInput) (*domain.Project, error)
	VerifyDeposit(ctx context.Context, input usecase.VerifyDepositInput) (*domain.LedgerEntry, error)
	Activate(ctx context.Context, projectID string) (*domain.Project, error)
	Refund(ctx context.Context, projectID string) (*domain.LedgerEntry, error)
	RecordAdjustment(ctx context.Context, input usecase.RecordAdjustmentInput) (*domain.LedgerEntry, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]*domain.Project, error)
}

// ProjectHandler handles project and escrow lifecycle HTTP requests.
type ProjectHandler struct {
	escrowUC EscrowService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(escrowUC EscrowService) *ProjectHandler {
	return &ProjectHandler{escrowUC: escrowUC}
}

// Register registers a new project awaiting its deposit.
func (h *ProjectHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	project, err := h.escrowUC.RegisterProject(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register project", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ProjectFromDomain(project))
}

// VerifyDeposit records a confirmed external deposit. The payment
// verification source calls it; a replayed reference is a conflict, not a
// second deposit.
func (h *ProjectHandler) VerifyDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.escrowUC.VerifyDeposit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify deposit", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Activate moves a verified project into active delivery.
func (h *ProjectHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	project, err := h.escrowUC.Activate(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to activate project", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectFromDomain(project))
}

// Refund returns the remaining held balance to the client and closes the
// escrow.
func (h *ProjectHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.escrowUC.Refund(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to refund escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Adjust appends a manual compensating entry.
func (h *ProjectHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.RecordAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.escrowUC.RecordAdjustment(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record adjustment", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves a project by ID.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	project, err := h.escrowUC.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get project", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectFromDomain(project))
}

// List lists projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	projects, err := h.escrowUC.ListProjects(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list projects", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListProjectsResponse{
		Projects: dto.ProjectsFromDomain(projects),
		Total:    int64(len(projects)),
	})
}
