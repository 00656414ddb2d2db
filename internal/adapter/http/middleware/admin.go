package middleware

import (
	"net/http"

	"github.com/devmarket/escrow/internal/domain"
)

// AdminIDHeader carries the acting admin's identity on decision endpoints.
// The API gateway authenticates the admin and sets it; this service only
// attributes.
const AdminIDHeader = "X-Admin-ID"

// AdminIdentity rejects requests without an admin identity and attaches it
// to the context for audit attribution.
func AdminIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID := r.Header.Get(AdminIDHeader)
		if adminID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing admin identity"}`))
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithAdminID(r.Context(), adminID)))
	})
}
