package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/adapter/http/dto"
	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

type milestoneServiceStub struct {
	defineFn    func(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error)
	approveFn   func(ctx context.Context, milestoneID string) (*usecase.ReleaseResult, error)
	rejectFn    func(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	startFn     func(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	submitFn    func(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	checklistFn func(ctx context.Context, milestoneID string, checklist []domain.ChecklistItem) error
	getFn       func(ctx context.Context, id string) (*domain.Milestone, error)
	listFn      func(ctx context.Context, projectID string) ([]*domain.Milestone, error)
}

func (s *milestoneServiceStub) DefineMilestone(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error) {
	return s.defineFn(ctx, input)
}

func (s *milestoneServiceStub) Start(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return s.startFn(ctx, milestoneID)
}

func (s *milestoneServiceStub) Submit(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return s.submitFn(ctx, milestoneID)
}

func (s *milestoneServiceStub) UpdateChecklist(ctx context.Context, milestoneID string, checklist []domain.ChecklistItem) error {
	return s.checklistFn(ctx, milestoneID, checklist)
}

func (s *milestoneServiceStub) Approve(ctx context.Context, milestoneID string) (*usecase.ReleaseResult, error) {
	return s.approveFn(ctx, milestoneID)
}

func (s *milestoneServiceStub) Reject(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	return s.rejectFn(ctx, milestoneID)
}

func (s *milestoneServiceStub) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	return s.getFn(ctx, id)
}

func (s *milestoneServiceStub) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	return s.listFn(ctx, projectID)
}

func newMilestoneStub() *milestoneServiceStub {
	return &milestoneServiceStub{
		defineFn: func(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error) {
			return &domain.Milestone{ID: "ms-1", ProjectID: input.ProjectID}, nil
		},
		startFn: func(ctx context.Context, id string) (*domain.Milestone, error) {
			return &domain.Milestone{ID: id, Status: domain.MilestoneStatusInProgress}, nil
		},
		submitFn: func(ctx context.Context, id string) (*domain.Milestone, error) {
			return &domain.Milestone{ID: id, Status: domain.MilestoneStatusSubmitted}, nil
		},
		checklistFn: func(ctx context.Context, id string, checklist []domain.ChecklistItem) error {
			return nil
		},
		approveFn: func(ctx context.Context, id string) (*usecase.ReleaseResult, error) {
			return &usecase.ReleaseResult{
				Milestone: &domain.Milestone{ID: id, Status: domain.MilestoneStatusApproved},
				Entry:     &domain.LedgerEntry{ID: "entry-1"},
			}, nil
		},
		rejectFn: func(ctx context.Context, id string) (*domain.Milestone, error) {
			return &domain.Milestone{ID: id, Status: domain.MilestoneStatusInProgress}, nil
		},
		getFn: func(ctx context.Context, id string) (*domain.Milestone, error) {
			return &domain.Milestone{ID: id}, nil
		},
		listFn: func(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
			return []*domain.Milestone{}, nil
		},
	}
}

func TestMilestoneHandler_Define_Success(t *testing.T) {
	stub := newMilestoneStub()
	var captured usecase.DefineMilestoneInput
	stub.defineFn = func(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error) {
		captured = input
		return &domain.Milestone{ID: "ms-1", ProjectID: input.ProjectID}, nil
	}

	handler := NewMilestoneHandler(stub)

	body, _ := json.Marshal(dto.DefineMilestoneRequest{
		Title:         "MVP backend",
		PercentAmount: decimal.NewFromInt(40),
	})
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/milestones", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Define(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.ProjectID != "proj-1" || !captured.PercentAmount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
}

func TestMilestoneHandler_Define_PercentExceeded(t *testing.T) {
	stub := newMilestoneStub()
	stub.defineFn = func(ctx context.Context, input usecase.DefineMilestoneInput) (*domain.Milestone, error) {
		return nil, domain.ErrMilestonePercentExceeded
	}

	handler := NewMilestoneHandler(stub)

	body, _ := json.Marshal(dto.DefineMilestoneRequest{Title: "extra", PercentAmount: decimal.NewFromInt(80)})
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/milestones", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Define(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMilestoneHandler_Approve_Success(t *testing.T) {
	handler := NewMilestoneHandler(newMilestoneStub())

	req := httptest.NewRequest(http.MethodPost, "/milestones/ms-1/approve", nil)
	req = setChiURLParam(req, "id", "ms-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ReleaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Milestone.Status != string(domain.MilestoneStatusApproved) {
		t.Fatalf("expected approved milestone, got %+v", resp.Milestone)
	}
}

func TestMilestoneHandler_Approve_InsufficientFunds(t *testing.T) {
	stub := newMilestoneStub()
	stub.approveFn = func(ctx context.Context, id string) (*usecase.ReleaseResult, error) {
		return nil, domain.ErrInsufficientEscrowFunds
	}

	handler := NewMilestoneHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/milestones/ms-1/approve", nil)
	req = setChiURLParam(req, "id", "ms-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMilestoneHandler_Reject_NotSubmitted(t *testing.T) {
	stub := newMilestoneStub()
	stub.rejectFn = func(ctx context.Context, id string) (*domain.Milestone, error) {
		return nil, domain.ErrInvalidMilestoneTransition
	}

	handler := NewMilestoneHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/milestones/ms-1/reject", nil)
	req = setChiURLParam(req, "id", "ms-1")
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestMilestoneHandler_UpdateChecklist(t *testing.T) {
	stub := newMilestoneStub()
	var captured []domain.ChecklistItem
	stub.checklistFn = func(ctx context.Context, id string, checklist []domain.ChecklistItem) error {
		captured = checklist
		return nil
	}

	handler := NewMilestoneHandler(stub)

	body, _ := json.Marshal(dto.UpdateChecklistRequest{Checklist: []domain.ChecklistItem{
		{Label: "schema designed", Done: true},
	}})
	req := httptest.NewRequest(http.MethodPut, "/milestones/ms-1/checklist", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "ms-1")
	rec := httptest.NewRecorder()

	handler.UpdateChecklist(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(captured) != 1 || !captured[0].Done {
		t.Fatalf("expected checklist to propagate, got %+v", captured)
	}
}
