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

// PayoutService defines the behavior needed by PayoutHandler.
type PayoutService interface {
	RequestPayout(ctx context.Context, input usecase.RequestPayoutInput) (*domain.PayoutRequest, error)
	Decide(ctx context.Context, requestID string, decision domain.PayoutDecision) (*domain.PayoutRequest, error)
	GetPayout(ctx context.Context, id string) (*domain.PayoutRequest, error)
	ListPayoutsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error)
	ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error)
}

// PayoutHandler handles payout and commission HTTP requests.
type PayoutHandler struct {
	payoutUC PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutUC PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutUC: payoutUC}
}

// Request creates a pending payout request over accrued commissions.
func (h *PayoutHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	request, err := h.payoutUC.RequestPayout(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to request payout", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PayoutFromDomain(request))
}

// Decide applies an admin decision to a pending payout request.
func (h *PayoutHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.DecidePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	request, err := h.payoutUC.Decide(r.Context(), id, req.Action)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to decide payout", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PayoutFromDomain(request))
}

// Get retrieves a payout request by ID.
func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing payout request ID", "")
		return
	}

	request, err := h.payoutUC.GetPayout(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get payout request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PayoutFromDomain(request))
}

// ListByBeneficiary lists a beneficiary's payout requests.
func (h *PayoutHandler) ListByBeneficiary(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	requests, err := h.payoutUC.ListPayoutsByBeneficiary(r.Context(), beneficiaryID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list payouts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PayoutsFromDomain(requests))
}

// ListCommissions lists a beneficiary's commissions.
func (h *PayoutHandler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	commissions, err := h.payoutUC.ListCommissionsByBeneficiary(r.Context(), beneficiaryID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list commissions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CommissionsFromDomain(commissions))
}
