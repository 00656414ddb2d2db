// Hand-rolled, stateful fakes for the usecase interfaces, alongside the
// generated gomock mocks. Each fake keeps simple in-memory state and lets a
// test override any method through its Func field.

package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// FakeProjectRepository is an in-memory fake of ProjectRepository.
type FakeProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project

	CreateFunc           func(ctx context.Context, project *domain.Project) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Project, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error)
	UpdateEscrowFunc     func(ctx context.Context, tx usecase.Transaction, project *domain.Project, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Project, error)
}

func NewFakeProjectRepository() *FakeProjectRepository {
	return &FakeProjectRepository{
		projects: make(map[string]*domain.Project),
	}
}

// Seed stores a project directly.
func (m *FakeProjectRepository) Seed(project *domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
}

func (m *FakeProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, project)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *FakeProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (m *FakeProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakeProjectRepository) UpdateEscrow(ctx context.Context, tx usecase.Transaction, project *domain.Project, updatedAt time.Time) error {
	if m.UpdateEscrowFunc != nil {
		return m.UpdateEscrowFunc(ctx, tx, project, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *FakeProjectRepository) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var projects []*domain.Project
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	return projects, nil
}

// FakeEntryRepository is an in-memory fake of EntryRepository.
type FakeEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	ListByProjectFunc    func(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListAllByProjectFunc func(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error)
	HasReferenceFunc     func(ctx context.Context, tx usecase.Transaction, projectID, reference string) (bool, error)
}

func NewFakeEntryRepository() *FakeEntryRepository {
	return &FakeEntryRepository{}
}

// Entries returns all stored entries, in append order.
func (m *FakeEntryRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.LedgerEntry(nil), m.entries...)
}

func (m *FakeEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *FakeEntryRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID, limit, offset)
	}
	return m.ListAllByProject(ctx, projectID)
}

func (m *FakeEntryRepository) ListAllByProject(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error) {
	if m.ListAllByProjectFunc != nil {
		return m.ListAllByProjectFunc(ctx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.ProjectID == projectID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *FakeEntryRepository) HasReference(ctx context.Context, tx usecase.Transaction, projectID, reference string) (bool, error) {
	if m.HasReferenceFunc != nil {
		return m.HasReferenceFunc(ctx, tx, projectID, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ProjectID == projectID && e.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

// FakeMilestoneRepository is an in-memory fake of MilestoneRepository.
type FakeMilestoneRepository struct {
	mu         sync.RWMutex
	milestones map[string]*domain.Milestone

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Milestone, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Milestone, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error
	UpdateChecklistFunc  func(ctx context.Context, id string, checklist []domain.ChecklistItem) error
	ListByProjectFunc    func(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	AllocatedPercentFunc func(ctx context.Context, tx usecase.Transaction, projectID string) (decimal.Decimal, error)
	CountByProjectFunc   func(ctx context.Context, projectID string) (int, error)
	CountUnapprovedFunc  func(ctx context.Context, tx usecase.Transaction, projectID string) (int, error)
}

func NewFakeMilestoneRepository() *FakeMilestoneRepository {
	return &FakeMilestoneRepository{
		milestones: make(map[string]*domain.Milestone),
	}
}

// Seed stores a milestone directly.
func (m *FakeMilestoneRepository) Seed(milestone *domain.Milestone) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.milestones[milestone.ID] = milestone
}

func (m *FakeMilestoneRepository) Create(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, milestone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.milestones[milestone.ID] = milestone
	return nil
}

func (m *FakeMilestoneRepository) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ms, ok := m.milestones[id]; ok {
		return ms, nil
	}
	return nil, domain.ErrMilestoneNotFound
}

func (m *FakeMilestoneRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Milestone, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakeMilestoneRepository) Update(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, milestone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.milestones[milestone.ID] = milestone
	return nil
}

func (m *FakeMilestoneRepository) UpdateChecklist(ctx context.Context, id string, checklist []domain.ChecklistItem) error {
	if m.UpdateChecklistFunc != nil {
		return m.UpdateChecklistFunc(ctx, id, checklist)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.milestones[id]; ok {
		ms.Checklist = checklist
		return nil
	}
	return domain.ErrMilestoneNotFound
}

func (m *FakeMilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var milestones []*domain.Milestone
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			milestones = append(milestones, ms)
		}
	}
	return milestones, nil
}

func (m *FakeMilestoneRepository) AllocatedPercent(ctx context.Context, tx usecase.Transaction, projectID string) (decimal.Decimal, error) {
	if m.AllocatedPercentFunc != nil {
		return m.AllocatedPercentFunc(ctx, tx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			total = total.Add(ms.PercentAmount)
		}
	}
	return total, nil
}

func (m *FakeMilestoneRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	if m.CountByProjectFunc != nil {
		return m.CountByProjectFunc(ctx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (m *FakeMilestoneRepository) CountUnapproved(ctx context.Context, tx usecase.Transaction, projectID string) (int, error) {
	if m.CountUnapprovedFunc != nil {
		return m.CountUnapprovedFunc(ctx, tx, projectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID && ms.Status != domain.MilestoneStatusApproved {
			count++
		}
	}
	return count, nil
}

// FakeCommissionRepository is an in-memory fake of CommissionRepository.
type FakeCommissionRepository struct {
	mu          sync.RWMutex
	commissions map[string]*domain.Commission

	CreateBatchFunc       func(ctx context.Context, tx usecase.Transaction, commissions []*domain.Commission) error
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Commission, error)
	UpdateStatusBatchFunc func(ctx context.Context, tx usecase.Transaction, ids []string, status domain.CommissionStatus, payoutRequestID string, paidAt *time.Time) error
	ListByBeneficiaryFunc func(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error)
	ListByProjectFunc     func(ctx context.Context, projectID string, limit, offset int) ([]*domain.Commission, error)
}

func NewFakeCommissionRepository() *FakeCommissionRepository {
	return &FakeCommissionRepository{
		commissions: make(map[string]*domain.Commission),
	}
}

// Seed stores a commission directly.
func (m *FakeCommissionRepository) Seed(commission *domain.Commission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commissions[commission.ID] = commission
}

// Get returns a stored commission.
func (m *FakeCommissionRepository) Get(id string) *domain.Commission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commissions[id]
}

func (m *FakeCommissionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, commissions []*domain.Commission) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, commissions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range commissions {
		m.commissions[c.ID] = c
	}
	return nil
}

func (m *FakeCommissionRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Commission, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var commissions []*domain.Commission
	for _, id := range ids {
		if c, ok := m.commissions[id]; ok {
			commissions = append(commissions, c)
		}
	}
	return commissions, nil
}

func (m *FakeCommissionRepository) UpdateStatusBatch(ctx context.Context, tx usecase.Transaction, ids []string, status domain.CommissionStatus, payoutRequestID string, paidAt *time.Time) error {
	if m.UpdateStatusBatchFunc != nil {
		return m.UpdateStatusBatchFunc(ctx, tx, ids, status, payoutRequestID, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if c, ok := m.commissions[id]; ok {
			c.Status = status
			c.PayoutRequestID = payoutRequestID
			c.PaidAt = paidAt
		}
	}
	return nil
}

func (m *FakeCommissionRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error) {
	if m.ListByBeneficiaryFunc != nil {
		return m.ListByBeneficiaryFunc(ctx, beneficiaryID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var commissions []*domain.Commission
	for _, c := range m.commissions {
		if c.BeneficiaryID == beneficiaryID {
			commissions = append(commissions, c)
		}
	}
	return commissions, nil
}

func (m *FakeCommissionRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Commission, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var commissions []*domain.Commission
	for _, c := range m.commissions {
		if c.ProjectID == projectID {
			commissions = append(commissions, c)
		}
	}
	return commissions, nil
}

// FakePayoutRepository is an in-memory fake of PayoutRepository.
type FakePayoutRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.PayoutRequest

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.PayoutRequest, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.PayoutRequest, error)
	UpdateDecisionFunc    func(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error
	ListByBeneficiaryFunc func(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error)
}

func NewFakePayoutRepository() *FakePayoutRepository {
	return &FakePayoutRepository{
		requests: make(map[string]*domain.PayoutRequest),
	}
}

// Seed stores a payout request directly.
func (m *FakePayoutRepository) Seed(request *domain.PayoutRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
}

func (m *FakePayoutRepository) Create(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *FakePayoutRepository) GetByID(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, domain.ErrPayoutNotFound
}

func (m *FakePayoutRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PayoutRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakePayoutRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	if m.UpdateDecisionFunc != nil {
		return m.UpdateDecisionFunc(ctx, tx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *FakePayoutRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error) {
	if m.ListByBeneficiaryFunc != nil {
		return m.ListByBeneficiaryFunc(ctx, beneficiaryID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var requests []*domain.PayoutRequest
	for _, r := range m.requests {
		if r.BeneficiaryID == beneficiaryID {
			requests = append(requests, r)
		}
	}
	return requests, nil
}

// FakeProfileDirectory is an in-memory fake of ProfileDirectory.
type FakeProfileDirectory struct {
	mu       sync.RWMutex
	profiles map[string]*domain.CommissionerProfile

	GetByUserIDFunc func(ctx context.Context, userID string) (*domain.CommissionerProfile, error)
}

func NewFakeProfileDirectory() *FakeProfileDirectory {
	return &FakeProfileDirectory{
		profiles: make(map[string]*domain.CommissionerProfile),
	}
}

// Seed stores a profile directly.
func (m *FakeProfileDirectory) Seed(profile *domain.CommissionerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
}

func (m *FakeProfileDirectory) GetByUserID(ctx context.Context, userID string) (*domain.CommissionerProfile, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, domain.ErrProfileNotFound
}

// FakeOutboxRepository is an in-memory fake of OutboxRepository.
type FakeOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

// Events returns all stored events.
func (m *FakeOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			events = append(events, e)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// FakeAuditRepository is an in-memory fake of AuditRepository.
type FakeAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewFakeAuditRepository() *FakeAuditRepository {
	return &FakeAuditRepository{}
}

// Logs returns all recorded audit logs.
func (m *FakeAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

func (m *FakeAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *FakeAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

// FakeTransactionManager is an in-memory fake of TransactionManager.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{}, nil
}

// FakeTransaction is an in-memory fake of Transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// FakeIDGenerator is an in-memory fake of IDGenerator.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("fake-id-%d", m.counter)
}

// FakeIdempotencyStore is an in-memory fake of IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
