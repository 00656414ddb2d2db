package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/infrastructure/metrics"
)

// PayoutUseCase turns accrued commission balances into payout requests and
// applies admin decisions to them. Commission rows are locked for the whole
// request, serializing concurrent requests for the same beneficiary so a
// commission can never be spent twice.
type PayoutUseCase struct {
	txManager      TransactionManager
	payoutRepo     PayoutRepository
	commissionRepo CommissionRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	profiles       ProfileDirectory
	idGen          IDGenerator
	retrier        Retrier
	metrics        *metrics.Metrics
}

// NewPayoutUseCase creates a new PayoutUseCase.
func NewPayoutUseCase(
	txManager TransactionManager,
	payoutRepo PayoutRepository,
	commissionRepo CommissionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	profiles ProfileDirectory,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PayoutUseCase {
	return &PayoutUseCase{
		txManager:      txManager,
		payoutRepo:     payoutRepo,
		commissionRepo: commissionRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		profiles:       profiles,
		idGen:          idGen,
		retrier:        retrier,
		metrics:        metrics,
	}
}

func (uc *PayoutUseCase) runTx(ctx context.Context, op func(ctx context.Context) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	if uc.retrier == nil {
		return op(txCtx)
	}

	return uc.retrier.Retry(txCtx, func() error { return op(txCtx) })
}

// RequestPayoutInput represents input for requesting a payout.
type RequestPayoutInput struct {
	BeneficiaryID string
	CommissionIDs []string
}

// RequestPayout creates a pending payout request over the beneficiary's
// accrued commissions. A missing payout destination rejects the request
// before anything is touched.
func (uc *PayoutUseCase) RequestPayout(ctx context.Context, input RequestPayoutInput) (*domain.PayoutRequest, error) {
	if len(input.CommissionIDs) == 0 {
		return nil, domain.ErrCommissionNotFound
	}

	profile, err := uc.profiles.GetByUserID(ctx, input.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	if !profile.HasPayoutDestination() {
		return nil, fmt.Errorf("%w: beneficiary %s", domain.ErrMissingPayoutDestination, input.BeneficiaryID)
	}

	// Sorted lock order, as for ledger appends.
	ids := append([]string(nil), input.CommissionIDs...)
	sort.Strings(ids)

	var request *domain.PayoutRequest
	err = uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		commissions, err := uc.commissionRepo.GetByIDsForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(commissions) != len(ids) {
			return domain.ErrCommissionNotFound
		}

		total := decimal.Zero
		for _, c := range commissions {
			if c.BeneficiaryID != input.BeneficiaryID {
				return fmt.Errorf("%w: commission %s", domain.ErrCommissionNotOwned, c.ID)
			}
			if c.Status == domain.CommissionStatusPendingPayout {
				return fmt.Errorf("%w: commission %s (request %s)", domain.ErrDoubleSpendCommission, c.ID, c.PayoutRequestID)
			}
			if !c.Requestable() {
				return fmt.Errorf("%w: commission %s is %s", domain.ErrCommissionNotAccrued, c.ID, c.Status)
			}
			total = total.Add(c.Amount)
		}

		now := time.Now().UTC()
		request = &domain.PayoutRequest{
			ID:            uc.idGen.Generate(),
			BeneficiaryID: input.BeneficiaryID,
			Destination:   profile.PayoutDestination,
			Status:        domain.PayoutStatusPending,
			CommissionIDs: ids,
			Amount:        total,
			RequestedAt:   now,
		}

		if err := uc.payoutRepo.Create(ctx, tx, request); err != nil {
			return err
		}

		if err := uc.commissionRepo.UpdateStatusBatch(ctx, tx, ids, domain.CommissionStatusPendingPayout, request.ID, nil); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsRequested.Inc()
	}

	return request, nil
}

// Decide applies an admin decision. Approval pays the request and its
// commissions out in one step; rejection frees the commissions so they can
// be requested again.
func (uc *PayoutUseCase) Decide(ctx context.Context, requestID string, decision domain.PayoutDecision) (*domain.PayoutRequest, error) {
	adminID, _ := domain.AdminIDFromContext(ctx)

	var request *domain.PayoutRequest
	err := uc.runTx(ctx, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		request, err = uc.payoutRepo.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := request.Decide(decision, adminID, now); err != nil {
			return err
		}

		// Lock the linked commissions before touching them.
		if _, err := uc.commissionRepo.GetByIDsForUpdate(ctx, tx, request.CommissionIDs); err != nil {
			return err
		}

		switch request.Status {
		case domain.PayoutStatusPaid:
			if err := uc.commissionRepo.UpdateStatusBatch(ctx, tx, request.CommissionIDs, domain.CommissionStatusPaid, request.ID, &now); err != nil {
				return err
			}

			event := &domain.OutboxEvent{
				ID:            uc.idGen.Generate(),
				AggregateID:   request.ID,
				AggregateType: domain.AggregateTypePayout,
				EventType:     domain.EventTypePayoutPaid,
				Payload: map[string]any{
					"payout_request_id": request.ID,
					"beneficiary_id":    request.BeneficiaryID,
					"destination":       request.Destination,
					"amount":            request.Amount.String(),
				},
				CreatedAt: now,
				Published: false,
			}
			if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
				return err
			}
		case domain.PayoutStatusRejected:
			if err := uc.commissionRepo.UpdateStatusBatch(ctx, tx, request.CommissionIDs, domain.CommissionStatusAccrued, "", nil); err != nil {
				return err
			}
		}

		if err := uc.payoutRepo.UpdateDecision(ctx, tx, request); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, domain.AuditActionPayoutDecide, domain.AggregateTypePayout, request.ID, request); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsDecided.WithLabelValues(string(request.Status)).Inc()
		if request.Status == domain.PayoutStatusPaid {
			amt, _ := request.Amount.Float64()
			uc.metrics.PayoutAmount.Observe(amt)
		}
	}

	return request, nil
}

// GetPayout retrieves a payout request by ID.
func (uc *PayoutUseCase) GetPayout(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	return uc.payoutRepo.GetByID(ctx, id)
}

// ListPayoutsByBeneficiary lists a beneficiary's payout requests.
func (uc *PayoutUseCase) ListPayoutsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error) {
	limit, offset = clampPage(limit, offset)
	return uc.payoutRepo.ListByBeneficiary(ctx, beneficiaryID, limit, offset)
}

// ListCommissionsByBeneficiary lists a beneficiary's commissions.
func (uc *PayoutUseCase) ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error) {
	limit, offset = clampPage(limit, offset)
	return uc.commissionRepo.ListByBeneficiary(ctx, beneficiaryID, limit, offset)
}

func (uc *PayoutUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceType, resourceID string, after any) error {
	if uc.auditRepo == nil {
		return nil
	}

	actor := "system"
	if adminID, ok := domain.AdminIDFromContext(ctx); ok {
		actor = adminID
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		ActorID:      actor,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
