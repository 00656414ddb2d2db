package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/devmarket/escrow/internal/adapter/http/dto"
	"github.com/devmarket/escrow/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrMilestoneNotFound),
		errors.Is(err, domain.ErrCommissionNotFound),
		errors.Is(err, domain.ErrPayoutNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrInvalidMilestoneTransition),
		errors.Is(err, domain.ErrMilestoneNotSubmitted),
		errors.Is(err, domain.ErrDoubleSpendCommission),
		errors.Is(err, domain.ErrCommissionNotAccrued),
		errors.Is(err, domain.ErrPayoutNotPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientEscrowFunds),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMilestonePercentExceeded),
		errors.Is(err, domain.ErrMissingPayoutDestination),
		errors.Is(err, domain.ErrCommissionNotOwned):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
