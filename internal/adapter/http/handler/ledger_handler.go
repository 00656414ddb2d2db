package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devmarket/escrow/internal/adapter/http/dto"
	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
	GetBalance(ctx context.Context, projectID string) (*usecase.Balance, error)
	VerifyLedger(ctx context.Context, projectID string) (*usecase.VerificationReport, error)
}

// LedgerHandler handles ledger read and verification HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// ListByProject lists a project's ledger entries.
func (h *LedgerHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		ProjectID: projectID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// GetBalance returns a project's escrow position.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	balance, err := h.ledgerUC.GetBalance(r.Context(), projectID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}

// Verify replays a project's ledger and reports any divergence. An
// inconsistent chain is reported in the body, not as an HTTP failure.
func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	report, err := h.ledgerUC.VerifyLedger(r.Context(), projectID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromUseCase(report))
}
