//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/devmarket/escrow/internal/domain"
	usecase "github.com/devmarket/escrow/internal/usecase"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockProjectRepository is a mock of ProjectRepository interface.
type MockProjectRepository struct {
	ctrl     *gomock.Controller
	recorder *MockProjectRepositoryMockRecorder
	isgomock struct{}
}

// MockProjectRepositoryMockRecorder is the mock recorder for MockProjectRepository.
type MockProjectRepositoryMockRecorder struct {
	mock *MockProjectRepository
}

// NewMockProjectRepository creates a new mock instance.
func NewMockProjectRepository(ctrl *gomock.Controller) *MockProjectRepository {
	mock := &MockProjectRepository{ctrl: ctrl}
	mock.recorder = &MockProjectRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProjectRepository) EXPECT() *MockProjectRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, project)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockProjectRepositoryMockRecorder) Create(ctx, project any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockProjectRepository)(nil).Create), ctx, project)
}

// GetByID mocks base method.
func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Project)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockProjectRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockProjectRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockProjectRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Project, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.Project)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockProjectRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockProjectRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// UpdateEscrow mocks base method.
func (m *MockProjectRepository) UpdateEscrow(ctx context.Context, tx usecase.Transaction, project *domain.Project, updatedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateEscrow", ctx, tx, project, updatedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateEscrow indicates an expected call of UpdateEscrow.
func (mr *MockProjectRepositoryMockRecorder) UpdateEscrow(ctx, tx, project, updatedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateEscrow", reflect.TypeOf((*MockProjectRepository)(nil).UpdateEscrow), ctx, tx, project, updatedAt)
}

// List mocks base method.
func (m *MockProjectRepository) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, limit, offset)
	ret0, _ := ret[0].([]*domain.Project)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockProjectRepositoryMockRecorder) List(ctx, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockProjectRepository)(nil).List), ctx, limit, offset)
}

// MockEntryRepository is a mock of EntryRepository interface.
type MockEntryRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEntryRepositoryMockRecorder
	isgomock struct{}
}

// MockEntryRepositoryMockRecorder is the mock recorder for MockEntryRepository.
type MockEntryRepositoryMockRecorder struct {
	mock *MockEntryRepository
}

// NewMockEntryRepository creates a new mock instance.
func NewMockEntryRepository(ctrl *gomock.Controller) *MockEntryRepository {
	mock := &MockEntryRepository{ctrl: ctrl}
	mock.recorder = &MockEntryRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEntryRepository) EXPECT() *MockEntryRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockEntryRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockEntryRepository)(nil).Create), ctx, tx, entry)
}

// ListByProject mocks base method.
func (m *MockEntryRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByProject", ctx, projectID, limit, offset)
	ret0, _ := ret[0].([]*domain.LedgerEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByProject indicates an expected call of ListByProject.
func (mr *MockEntryRepositoryMockRecorder) ListByProject(ctx, projectID, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByProject", reflect.TypeOf((*MockEntryRepository)(nil).ListByProject), ctx, projectID, limit, offset)
}

// ListAllByProject mocks base method.
func (m *MockEntryRepository) ListAllByProject(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListAllByProject", ctx, projectID)
	ret0, _ := ret[0].([]*domain.LedgerEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListAllByProject indicates an expected call of ListAllByProject.
func (mr *MockEntryRepositoryMockRecorder) ListAllByProject(ctx, projectID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListAllByProject", reflect.TypeOf((*MockEntryRepository)(nil).ListAllByProject), ctx, projectID)
}

// HasReference mocks base method.
func (m *MockEntryRepository) HasReference(ctx context.Context, tx usecase.Transaction, projectID, reference string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HasReference", ctx, tx, projectID, reference)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// HasReference indicates an expected call of HasReference.
func (mr *MockEntryRepositoryMockRecorder) HasReference(ctx, tx, projectID, reference any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HasReference", reflect.TypeOf((*MockEntryRepository)(nil).HasReference), ctx, tx, projectID, reference)
}

// MockMilestoneRepository is a mock of MilestoneRepository interface.
type MockMilestoneRepository struct {
	ctrl     *gomock.Controller
	recorder *MockMilestoneRepositoryMockRecorder
	isgomock struct{}
}

// MockMilestoneRepositoryMockRecorder is the mock recorder for MockMilestoneRepository.
type MockMilestoneRepositoryMockRecorder struct {
	mock *MockMilestoneRepository
}

// NewMockMilestoneRepository creates a new mock instance.
func NewMockMilestoneRepository(ctrl *gomock.Controller) *MockMilestoneRepository {
	mock := &MockMilestoneRepository{ctrl: ctrl}
	mock.recorder = &MockMilestoneRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMilestoneRepository) EXPECT() *MockMilestoneRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockMilestoneRepository) Create(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, milestone)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockMilestoneRepositoryMockRecorder) Create(ctx, tx, milestone any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockMilestoneRepository)(nil).Create), ctx, tx, milestone)
}

// GetByID mocks base method.
func (m *MockMilestoneRepository) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Milestone)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockMilestoneRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockMilestoneRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockMilestoneRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Milestone, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.Milestone)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockMilestoneRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockMilestoneRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// Update mocks base method.
func (m *MockMilestoneRepository) Update(ctx context.Context, tx usecase.Transaction, milestone *domain.Milestone) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, milestone)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockMilestoneRepositoryMockRecorder) Update(ctx, tx, milestone any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockMilestoneRepository)(nil).Update), ctx, tx, milestone)
}

// UpdateChecklist mocks base method.
func (m *MockMilestoneRepository) UpdateChecklist(ctx context.Context, id string, checklist []domain.ChecklistItem) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateChecklist", ctx, id, checklist)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateChecklist indicates an expected call of UpdateChecklist.
func (mr *MockMilestoneRepositoryMockRecorder) UpdateChecklist(ctx, id, checklist any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateChecklist", reflect.TypeOf((*MockMilestoneRepository)(nil).UpdateChecklist), ctx, id, checklist)
}

// ListByProject mocks base method.
func (m *MockMilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByProject", ctx, projectID)
	ret0, _ := ret[0].([]*domain.Milestone)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByProject indicates an expected call of ListByProject.
func (mr *MockMilestoneRepositoryMockRecorder) ListByProject(ctx, projectID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByProject", reflect.TypeOf((*MockMilestoneRepository)(nil).ListByProject), ctx, projectID)
}

// AllocatedPercent mocks base method.
func (m *MockMilestoneRepository) AllocatedPercent(ctx context.Context, tx usecase.Transaction, projectID string) (decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AllocatedPercent", ctx, tx, projectID)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// AllocatedPercent indicates an expected call of AllocatedPercent.
func (mr *MockMilestoneRepositoryMockRecorder) AllocatedPercent(ctx, tx, projectID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AllocatedPercent", reflect.TypeOf((*MockMilestoneRepository)(nil).AllocatedPercent), ctx, tx, projectID)
}

// CountByProject mocks base method.
func (m *MockMilestoneRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountByProject", ctx, projectID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountByProject indicates an expected call of CountByProject.
func (mr *MockMilestoneRepositoryMockRecorder) CountByProject(ctx, projectID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountByProject", reflect.TypeOf((*MockMilestoneRepository)(nil).CountByProject), ctx, projectID)
}

// CountUnapproved mocks base method.
func (m *MockMilestoneRepository) CountUnapproved(ctx context.Context, tx usecase.Transaction, projectID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountUnapproved", ctx, tx, projectID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountUnapproved indicates an expected call of CountUnapproved.
func (mr *MockMilestoneRepositoryMockRecorder) CountUnapproved(ctx, tx, projectID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountUnapproved", reflect.TypeOf((*MockMilestoneRepository)(nil).CountUnapproved), ctx, tx, projectID)
}

// MockCommissionRepository is a mock of CommissionRepository interface.
type MockCommissionRepository struct {
	ctrl     *gomock.Controller
	recorder *MockCommissionRepositoryMockRecorder
	isgomock struct{}
}

// MockCommissionRepositoryMockRecorder is the mock recorder for MockCommissionRepository.
type MockCommissionRepositoryMockRecorder struct {
	mock *MockCommissionRepository
}

// NewMockCommissionRepository creates a new mock instance.
func NewMockCommissionRepository(ctrl *gomock.Controller) *MockCommissionRepository {
	mock := &MockCommissionRepository{ctrl: ctrl}
	mock.recorder = &MockCommissionRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCommissionRepository) EXPECT() *MockCommissionRepositoryMockRecorder {
	return m.recorder
}

// CreateBatch mocks base method.
func (m *MockCommissionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, commissions []*domain.Commission) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateBatch", ctx, tx, commissions)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateBatch indicates an expected call of CreateBatch.
func (mr *MockCommissionRepositoryMockRecorder) CreateBatch(ctx, tx, commissions any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateBatch", reflect.TypeOf((*MockCommissionRepository)(nil).CreateBatch), ctx, tx, commissions)
}

// GetByIDsForUpdate mocks base method.
func (m *MockCommissionRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Commission, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDsForUpdate", ctx, tx, ids)
	ret0, _ := ret[0].([]*domain.Commission)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDsForUpdate indicates an expected call of GetByIDsForUpdate.
func (mr *MockCommissionRepositoryMockRecorder) GetByIDsForUpdate(ctx, tx, ids any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDsForUpdate", reflect.TypeOf((*MockCommissionRepository)(nil).GetByIDsForUpdate), ctx, tx, ids)
}

// UpdateStatusBatch mocks base method.
func (m *MockCommissionRepository) UpdateStatusBatch(ctx context.Context, tx usecase.Transaction, ids []string, status domain.CommissionStatus, payoutRequestID string, paidAt *time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateStatusBatch", ctx, tx, ids, status, payoutRequestID, paidAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateStatusBatch indicates an expected call of UpdateStatusBatch.
func (mr *MockCommissionRepositoryMockRecorder) UpdateStatusBatch(ctx, tx, ids, status, payoutRequestID, paidAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateStatusBatch", reflect.TypeOf((*MockCommissionRepository)(nil).UpdateStatusBatch), ctx, tx, ids, status, payoutRequestID, paidAt)
}

// ListByBeneficiary mocks base method.
func (m *MockCommissionRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.Commission, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByBeneficiary", ctx, beneficiaryID, limit, offset)
	ret0, _ := ret[0].([]*domain.Commission)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByBeneficiary indicates an expected call of ListByBeneficiary.
func (mr *MockCommissionRepositoryMockRecorder) ListByBeneficiary(ctx, beneficiaryID, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByBeneficiary", reflect.TypeOf((*MockCommissionRepository)(nil).ListByBeneficiary), ctx, beneficiaryID, limit, offset)
}

// ListByProject mocks base method.
func (m *MockCommissionRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Commission, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByProject", ctx, projectID, limit, offset)
	ret0, _ := ret[0].([]*domain.Commission)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByProject indicates an expected call of ListByProject.
func (mr *MockCommissionRepositoryMockRecorder) ListByProject(ctx, projectID, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByProject", reflect.TypeOf((*MockCommissionRepository)(nil).ListByProject), ctx, projectID, limit, offset)
}

// MockPayoutRepository is a mock of PayoutRepository interface.
type MockPayoutRepository struct {
	ctrl     *gomock.Controller
	recorder *MockPayoutRepositoryMockRecorder
	isgomock struct{}
}

// MockPayoutRepositoryMockRecorder is the mock recorder for MockPayoutRepository.
type MockPayoutRepositoryMockRecorder struct {
	mock *MockPayoutRepository
}

// NewMockPayoutRepository creates a new mock instance.
func NewMockPayoutRepository(ctrl *gomock.Controller) *MockPayoutRepository {
	mock := &MockPayoutRepository{ctrl: ctrl}
	mock.recorder = &MockPayoutRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPayoutRepository) EXPECT() *MockPayoutRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockPayoutRepository) Create(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, request)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockPayoutRepositoryMockRecorder) Create(ctx, tx, request any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockPayoutRepository)(nil).Create), ctx, tx, request)
}

// GetByID mocks base method.
func (m *MockPayoutRepository) GetByID(ctx context.Context, id string) (*domain.PayoutRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.PayoutRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockPayoutRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockPayoutRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockPayoutRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PayoutRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.PayoutRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockPayoutRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockPayoutRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// UpdateDecision mocks base method.
func (m *MockPayoutRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, request *domain.PayoutRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateDecision", ctx, tx, request)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateDecision indicates an expected call of UpdateDecision.
func (mr *MockPayoutRepositoryMockRecorder) UpdateDecision(ctx, tx, request any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateDecision", reflect.TypeOf((*MockPayoutRepository)(nil).UpdateDecision), ctx, tx, request)
}

// ListByBeneficiary mocks base method.
func (m *MockPayoutRepository) ListByBeneficiary(ctx context.Context, beneficiaryID string, limit, offset int) ([]*domain.PayoutRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByBeneficiary", ctx, beneficiaryID, limit, offset)
	ret0, _ := ret[0].([]*domain.PayoutRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByBeneficiary indicates an expected call of ListByBeneficiary.
func (mr *MockPayoutRepositoryMockRecorder) ListByBeneficiary(ctx, beneficiaryID, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByBeneficiary", reflect.TypeOf((*MockPayoutRepository)(nil).ListByBeneficiary), ctx, beneficiaryID, limit, offset)
}

// MockProfileDirectory is a mock of ProfileDirectory interface.
type MockProfileDirectory struct {
	ctrl     *gomock.Controller
	recorder *MockProfileDirectoryMockRecorder
	isgomock struct{}
}

// MockProfileDirectoryMockRecorder is the mock recorder for MockProfileDirectory.
type MockProfileDirectoryMockRecorder struct {
	mock *MockProfileDirectory
}

// NewMockProfileDirectory creates a new mock instance.
func NewMockProfileDirectory(ctrl *gomock.Controller) *MockProfileDirectory {
	mock := &MockProfileDirectory{ctrl: ctrl}
	mock.recorder = &MockProfileDirectoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProfileDirectory) EXPECT() *MockProfileDirectoryMockRecorder {
	return m.recorder
}

// GetByUserID mocks base method.
func (m *MockProfileDirectory) GetByUserID(ctx context.Context, userID string) (*domain.CommissionerProfile, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByUserID", ctx, userID)
	ret0, _ := ret[0].(*domain.CommissionerProfile)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByUserID indicates an expected call of GetByUserID.
func (mr *MockProfileDirectoryMockRecorder) GetByUserID(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByUserID", reflect.TypeOf((*MockProfileDirectory)(nil).GetByUserID), ctx, userID)
}

// MockOutboxRepository is a mock of OutboxRepository interface.
type MockOutboxRepository struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxRepositoryMockRecorder
	isgomock struct{}
}

// MockOutboxRepositoryMockRecorder is the mock recorder for MockOutboxRepository.
type MockOutboxRepositoryMockRecorder struct {
	mock *MockOutboxRepository
}

// NewMockOutboxRepository creates a new mock instance.
func NewMockOutboxRepository(ctrl *gomock.Controller) *MockOutboxRepository {
	mock := &MockOutboxRepository{ctrl: ctrl}
	mock.recorder = &MockOutboxRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOutboxRepository) EXPECT() *MockOutboxRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockOutboxRepositoryMockRecorder) Create(ctx, tx, event any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockOutboxRepository)(nil).Create), ctx, tx, event)
}

// GetUnpublished mocks base method.
func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetUnpublished", ctx, limit)
	ret0, _ := ret[0].([]*domain.OutboxEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetUnpublished indicates an expected call of GetUnpublished.
func (mr *MockOutboxRepositoryMockRecorder) GetUnpublished(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetUnpublished", reflect.TypeOf((*MockOutboxRepository)(nil).GetUnpublished), ctx, limit)
}

// MarkPublished mocks base method.
func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkPublished", ctx, id, publishedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkPublished indicates an expected call of MarkPublished.
func (mr *MockOutboxRepositoryMockRecorder) MarkPublished(ctx, id, publishedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkPublished", reflect.TypeOf((*MockOutboxRepository)(nil).MarkPublished), ctx, id, publishedAt)
}

// DeletePublished mocks base method.
func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeletePublished", ctx, before)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeletePublished indicates an expected call of DeletePublished.
func (mr *MockOutboxRepositoryMockRecorder) DeletePublished(ctx, before any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeletePublished", reflect.TypeOf((*MockOutboxRepository)(nil).DeletePublished), ctx, before)
}

// MockAuditRepository is a mock of AuditRepository interface.
type MockAuditRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAuditRepositoryMockRecorder
	isgomock struct{}
}

// MockAuditRepositoryMockRecorder is the mock recorder for MockAuditRepository.
type MockAuditRepositoryMockRecorder struct {
	mock *MockAuditRepository
}

// NewMockAuditRepository creates a new mock instance.
func NewMockAuditRepository(ctrl *gomock.Controller) *MockAuditRepository {
	mock := &MockAuditRepository{ctrl: ctrl}
	mock.recorder = &MockAuditRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAuditRepository) EXPECT() *MockAuditRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, log)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockAuditRepositoryMockRecorder) Create(ctx, log any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockAuditRepository)(nil).Create), ctx, log)
}

// CreateTx mocks base method.
func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateTx", ctx, tx, log)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateTx indicates an expected call of CreateTx.
func (mr *MockAuditRepositoryMockRecorder) CreateTx(ctx, tx, log any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateTx", reflect.TypeOf((*MockAuditRepository)(nil).CreateTx), ctx, tx, log)
}

// MockTransaction is a mock of Transaction interface.
type MockTransaction struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionMockRecorder
	isgomock struct{}
}

// MockTransactionMockRecorder is the mock recorder for MockTransaction.
type MockTransactionMockRecorder struct {
	mock *MockTransaction
}

// NewMockTransaction creates a new mock instance.
func NewMockTransaction(ctrl *gomock.Controller) *MockTransaction {
	mock := &MockTransaction{ctrl: ctrl}
	mock.recorder = &MockTransactionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransaction) EXPECT() *MockTransactionMockRecorder {
	return m.recorder
}

// Commit mocks base method.
func (m *MockTransaction) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit.
func (mr *MockTransactionMockRecorder) Commit(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockTransaction)(nil).Commit), ctx)
}

// Rollback mocks base method.
func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Rollback indicates an expected call of Rollback.
func (mr *MockTransactionMockRecorder) Rollback(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockTransaction)(nil).Rollback), ctx)
}

// MockTransactionManager is a mock of TransactionManager interface.
type MockTransactionManager struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionManagerMockRecorder
	isgomock struct{}
}

// MockTransactionManagerMockRecorder is the mock recorder for MockTransactionManager.
type MockTransactionManagerMockRecorder struct {
	mock *MockTransactionManager
}

// NewMockTransactionManager creates a new mock instance.
func NewMockTransactionManager(ctrl *gomock.Controller) *MockTransactionManager {
	mock := &MockTransactionManager{ctrl: ctrl}
	mock.recorder = &MockTransactionManagerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransactionManager) EXPECT() *MockTransactionManagerMockRecorder {
	return m.recorder
}

// Begin mocks base method.
func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Begin", ctx)
	ret0, _ := ret[0].(usecase.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Begin indicates an expected call of Begin.
func (mr *MockTransactionManagerMockRecorder) Begin(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Begin", reflect.TypeOf((*MockTransactionManager)(nil).Begin), ctx)
}

// MockIDGenerator is a mock of IDGenerator interface.
type MockIDGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockIDGeneratorMockRecorder
	isgomock struct{}
}

// MockIDGeneratorMockRecorder is the mock recorder for MockIDGenerator.
type MockIDGeneratorMockRecorder struct {
	mock *MockIDGenerator
}

// NewMockIDGenerator creates a new mock instance.
func NewMockIDGenerator(ctrl *gomock.Controller) *MockIDGenerator {
	mock := &MockIDGenerator{ctrl: ctrl}
	mock.recorder = &MockIDGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIDGenerator) EXPECT() *MockIDGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockIDGenerator) Generate() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate")
	ret0, _ := ret[0].(string)
	return ret0
}

// Generate indicates an expected call of Generate.
func (mr *MockIDGeneratorMockRecorder) Generate() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockIDGenerator)(nil).Generate))
}

// MockRetrier is a mock of Retrier interface.
type MockRetrier struct {
	ctrl     *gomock.Controller
	recorder *MockRetrierMockRecorder
	isgomock struct{}
}

// MockRetrierMockRecorder is the mock recorder for MockRetrier.
type MockRetrierMockRecorder struct {
	mock *MockRetrier
}

// NewMockRetrier creates a new mock instance.
func NewMockRetrier(ctrl *gomock.Controller) *MockRetrier {
	mock := &MockRetrier{ctrl: ctrl}
	mock.recorder = &MockRetrierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRetrier) EXPECT() *MockRetrierMockRecorder {
	return m.recorder
}

// Retry mocks base method.
func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Retry", ctx, operation)
	ret0, _ := ret[0].(error)
	return ret0
}

// Retry indicates an expected call of Retry.
func (mr *MockRetrierMockRecorder) Retry(ctx, operation any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Retry", reflect.TypeOf((*MockRetrier)(nil).Retry), ctx, operation)
}

// MockIdempotencyStore is a mock of IdempotencyStore interface.
type MockIdempotencyStore struct {
	ctrl     *gomock.Controller
	recorder *MockIdempotencyStoreMockRecorder
	isgomock struct{}
}

// MockIdempotencyStoreMockRecorder is the mock recorder for MockIdempotencyStore.
type MockIdempotencyStoreMockRecorder struct {
	mock *MockIdempotencyStore
}

// NewMockIdempotencyStore creates a new mock instance.
func NewMockIdempotencyStore(ctrl *gomock.Controller) *MockIdempotencyStore {
	mock := &MockIdempotencyStore{ctrl: ctrl}
	mock.recorder = &MockIdempotencyStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIdempotencyStore) EXPECT() *MockIdempotencyStoreMockRecorder {
	return m.recorder
}

// CheckAndSet mocks base method.
func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckAndSet", ctx, key, response, ttl)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// CheckAndSet indicates an expected call of CheckAndSet.
func (mr *MockIdempotencyStoreMockRecorder) CheckAndSet(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckAndSet", reflect.TypeOf((*MockIdempotencyStore)(nil).CheckAndSet), ctx, key, response, ttl)
}

// Update mocks base method.
func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, key, response, ttl)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockIdempotencyStoreMockRecorder) Update(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIdempotencyStore)(nil).Update), ctx, key, response, ttl)
}
