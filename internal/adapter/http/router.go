package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devmarket/escrow/internal/adapter/http/handler"
	"github.com/devmarket/escrow/internal/adapter/http/middleware"
	"github.com/devmarket/escrow/internal/infrastructure/metrics"
	"github.com/devmarket/escrow/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ProjectHandler   *handler.ProjectHandler
	MilestoneHandler *handler.MilestoneHandler
	PayoutHandler    *handler.PayoutHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	Metrics          *metrics.Metrics
	Logging          *middleware.LoggingMiddleware
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logging != nil {
		r.Use(cfg.Logging.Wrap)
	}
	r.Use(middleware.Recovery)

	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and ops endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Payment verification source webhook
		r.Post("/payments/verified", cfg.ProjectHandler.VerifyDeposit)

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", cfg.ProjectHandler.Register)
			r.Get("/", cfg.ProjectHandler.List)
			r.Get("/{id}", cfg.ProjectHandler.Get)
			r.Post("/{id}/activate", cfg.ProjectHandler.Activate)
			r.Get("/{id}/ledger", cfg.LedgerHandler.ListByProject)
			r.Get("/{id}/ledger/verify", cfg.LedgerHandler.Verify)
			r.Get("/{id}/balance", cfg.LedgerHandler.GetBalance)
			r.Post("/{id}/milestones", cfg.MilestoneHandler.Define)
			r.Get("/{id}/milestones", cfg.MilestoneHandler.ListByProject)

			// Admin decisions
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminIdentity)
				r.Post("/{id}/refund", cfg.ProjectHandler.Refund)
				r.Post("/{id}/adjustments", cfg.ProjectHandler.Adjust)
			})
		})

		// Milestones
		r.Route("/milestones", func(r chi.Router) {
			r.Get("/{id}", cfg.MilestoneHandler.Get)
			r.Post("/{id}/start", cfg.MilestoneHandler.Start)
			r.Post("/{id}/submit", cfg.MilestoneHandler.Submit)
			r.Put("/{id}/checklist", cfg.MilestoneHandler.UpdateChecklist)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminIdentity)
				r.Post("/{id}/approve", cfg.MilestoneHandler.Approve)
				r.Post("/{id}/reject", cfg.MilestoneHandler.Reject)
			})
		})

		// Payouts
		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", cfg.PayoutHandler.Request)
			r.Get("/{id}", cfg.PayoutHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminIdentity)
				r.Post("/{id}/decide", cfg.PayoutHandler.Decide)
			})
		})

		// Beneficiaries
		r.Route("/beneficiaries", func(r chi.Router) {
			r.Get("/{id}/commissions", cfg.PayoutHandler.ListCommissions)
			r.Get("/{id}/payouts", cfg.PayoutHandler.ListByBeneficiary)
		})
	})

	return r
}
