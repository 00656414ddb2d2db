package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/adapter/http/handler"
	apimiddleware "github.com/devmarket/escrow/internal/adapter/http/middleware"
	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"title":"Backend","client_id":"client-1","commissioner_id":"comm-1","total_value":"50000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_AdminGateRejectsAnonymousDecision(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/milestones/ms-1/approve", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin identity, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/milestones/ms-1/approve", nil)
	req.Header.Set(apimiddleware.AdminIDHeader, "admin-1")
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin identity, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/payments/verified",
		"POST /api/v1/projects/",
		"GET /api/v1/projects/{id}",
		"POST /api/v1/projects/{id}/activate",
		"POST /api/v1/projects/{id}/refund",
		"GET /api/v1/projects/{id}/ledger",
		"GET /api/v1/projects/{id}/ledger/verify",
		"GET /api/v1/projects/{id}/balance",
		"POST /api/v1/projects/{id}/milestones",
		"POST /api/v1/milestones/{id}/approve",
		"POST /api/v1/payouts/",
		"POST /api/v1/payouts/{id}/decide",
		"GET /api/v1/beneficiaries/{id}/commissions",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:    &handler.HealthHandler{},
		ProjectHandler:   handler.NewProjectHandler(&stubEscrowService{}),
		MilestoneHandler: handler.NewMilestoneHandler(&stubMilestoneService{}),
		PayoutHandler:    handler.NewPayoutHandler(&stubPayoutService{}),
		LedgerHandler:    handler.NewLedgerHandler(usecase.NewLedgerUseCase(&stubProjectRepository{}, &stubEntryRepository{})),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubEscrowService struct{}

func (stubEscrowService) RegisterProject(ctx context.Context, input usecase.RegisterProjectInput) (*domain.Project, error) {
	return &domain.Project{ID: "proj"}, nil
}

func (stubEscrowService) VerifyDeposit(ctx context.Context, input usecase.VerifyDepositInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "entry"}, nil
}

func (stubEscrowService) Activate(ctx context.Context, projectID string) (*domain.Project, error) {
	return &domain.Project{ID: projectID}, nil
}

func (stubEscrowService) Refund(ctx context.Context, projectID string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "entry"}, nil
}

func (stubEscrowService) RecordAdjustment(ctx context.Context, input usecase.RecordAdjustmentInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "entry"}, nil
}

func (stubEscrowService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return &domain.Project{ID: id}, nil
}

func (stubEscrowService) ListProjects(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	return []*domain.Project{}, nil
}

type stubMilestoneService struct{}

func (stubMilestoneService) DefineMilestone(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error) {
	return &domain.Milestone{ID: "ms"}, nil
}

func (stubMilestoneService) Start(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return &domain.Milestone{ID: milestoneID}, nil
}

func (stubMilestoneService) Submit(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return &domain.Milestone{ID: milestoneID}, nil
}

func (stubMilestoneService) UpdateChecklist(ctx context.Context, milestoneID string, checklist []domain.ChecklistItem) error {
	return nil
}

func (stubMilestoneService) Approve(ctx context.Context, milestoneID string) (*usecase.ReleaseResult, error) {
	return &usecase.ReleaseResult{
		Milestone: &domain.Milestone{ID: milestoneID},
		Entry:     &domain.LedgerEntry{ID: "entry"},
	}, nil
}

func (stubMilestoneService) Reject(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return &domain.Milestone{ID: milestoneID}, nil
}

func (stubMilestoneService) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	return &domain.Milestone{ID: id}, nil
}

func (stubMilestoneService) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	return []*domain.Milestone{}, nil
}

type stubPayoutService struct{}

func (stubPayoutService) RequestPayout(ctx context.Context, input usecase.RequestPayoutInput) (*domain.PayoutRequest, error) {
	return &domain.PayoutRequest{ID: "po"}, nil
}

func (stubPayoutService) Decide(ctx context.Context, requestID string, decision domain.PayoutDecision) (*domain.PayoutRequest, error) {
	return &domain.PayoutRequest{ID: requestID}, nil
}

func (stubPayoutService) GetPayout(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	return &domain.PayoutRequest{ID: id}, nil
}

func (stubPayoutService) ListPayoutsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error) {
	return []*domain.PayoutRequest{}, nil
}

func (stubPayoutService) ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error) {
	return []*domain.Commission{}, nil
}

type stubProjectRepository struct{}

func (stubProjectRepository) Create(ctx context.Context, project *domain.Project) error { return nil }

func (stubProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return &domain.Project{ID: id, HeldBalance: decimal.Zero, ReleasedTotal: decimal.Zero}, nil
}

func (stubProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	return &domain.Project{ID: id}, nil
}

func (stubProjectRepository) UpdateEscrow(ctx context.Context, tx usecase.Transaction, project *domain.Project, updatedAt time.Time) error {
	return nil
}

func (stubProjectRepository) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	return []*domain.Project{}, nil
}

type stubEntryRepository struct{}

func (stubEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return nil
}

func (stubEntryRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	return []*domain.LedgerEntry{}, nil
}

func (stubEntryRepository) ListAllByProject(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error) {
	return []*domain.LedgerEntry{}, nil
}

func (stubEntryRepository) HasReference(ctx context.Context, tx usecase.Transaction, projectID, reference string) (bool, error) {
	return false, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
