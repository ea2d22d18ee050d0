package service

import (
	"context"
	"sync"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// Mock repositories with function fields so each test overrides only the
// calls it cares about.

type mockVoucherRepo struct {
	createFunc              func(ctx context.Context, v *entity.Voucher) error
	getByIDFunc             func(ctx context.Context, id int64) (*entity.Voucher, error)
	lastVoucherNumberFunc   func(ctx context.Context) (string, error)
	applyGMActionFunc       func(ctx context.Context, id int64, status workflow.GMStatus, uploaderID *int64, at time.Time) error
	applyUploaderActionFunc func(ctx context.Context, id int64, status workflow.UploaderStatus, at time.Time) error
	listForRoleFunc         func(ctx context.Context, role workflow.Role, actorID int64) ([]*entity.Voucher, error)
	listForReportFunc       func(ctx context.Context, role workflow.Role, actorID int64, status string) ([]*entity.Voucher, error)
	countForUserFunc        func(ctx context.Context, userID int64) (int, error)
}

func (m *mockVoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, v)
	}
	v.ID = 1
	return nil
}

func (m *mockVoucherRepo) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Voucher{
		ID:             id,
		VoucherNumber:  "000099",
		GMStatus:       workflow.GMPending,
		UploaderStatus: workflow.UploaderPending,
	}, nil
}

func (m *mockVoucherRepo) LastVoucherNumber(ctx context.Context) (string, error) {
	if m.lastVoucherNumberFunc != nil {
		return m.lastVoucherNumberFunc(ctx)
	}
	return "", nil
}

func (m *mockVoucherRepo) ApplyGMAction(ctx context.Context, id int64, status workflow.GMStatus, uploaderID *int64, at time.Time) error {
	if m.applyGMActionFunc != nil {
		return m.applyGMActionFunc(ctx, id, status, uploaderID, at)
	}
	return nil
}

func (m *mockVoucherRepo) ApplyUploaderAction(ctx context.Context, id int64, status workflow.UploaderStatus, at time.Time) error {
	if m.applyUploaderActionFunc != nil {
		return m.applyUploaderActionFunc(ctx, id, status, at)
	}
	return nil
}

func (m *mockVoucherRepo) ListForRole(ctx context.Context, role workflow.Role, actorID int64) ([]*entity.Voucher, error) {
	if m.listForRoleFunc != nil {
		return m.listForRoleFunc(ctx, role, actorID)
	}
	return []*entity.Voucher{}, nil
}

func (m *mockVoucherRepo) ListForReport(ctx context.Context, role workflow.Role, actorID int64, status string) ([]*entity.Voucher, error) {
	if m.listForReportFunc != nil {
		return m.listForReportFunc(ctx, role, actorID, status)
	}
	return []*entity.Voucher{}, nil
}

func (m *mockVoucherRepo) CountForUser(ctx context.Context, userID int64) (int, error) {
	if m.countForUserFunc != nil {
		return m.countForUserFunc(ctx, userID)
	}
	return 0, nil
}

type mockUserRepo struct {
	getByIDFunc    func(ctx context.Context, id int64) (*entity.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
	getByRoleFunc  func(ctx context.Context, role workflow.Role) (*entity.User, error)
	listUpFunc     func(ctx context.Context) ([]*entity.User, error)
	listFunc       func(ctx context.Context) ([]*entity.User, error)
	createFunc     func(ctx context.Context, u *entity.User) error
	updateFunc     func(ctx context.Context, u *entity.User) error
	deleteFunc     func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, Email: "user@example.com", Name: "User", Role: workflow.RoleAccountant}, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByRole(ctx context.Context, role workflow.Role) (*entity.User, error) {
	if m.getByRoleFunc != nil {
		return m.getByRoleFunc(ctx, role)
	}
	return &entity.User{ID: 2, Email: "gm@example.com", Name: "GM", Role: workflow.RoleGM}, nil
}

func (m *mockUserRepo) ListUploaders(ctx context.Context) ([]*entity.User, error) {
	if m.listUpFunc != nil {
		return m.listUpFunc(ctx)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, u)
	}
	u.ID = 10
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *entity.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockLogRepo struct {
	mu      sync.Mutex
	entries []*entity.ActivityLog

	createFunc     func(ctx context.Context, e *entity.ActivityLog) error
	listRangeFunc  func(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error)
	listRecentFunc func(ctx context.Context, limit int) ([]*entity.ActivityLogView, error)
}

func (m *mockLogRepo) Create(ctx context.Context, e *entity.ActivityLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLogRepo) ListRange(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error) {
	if m.listRangeFunc != nil {
		return m.listRangeFunc(ctx, start, end)
	}
	return []*entity.ActivityLogView{}, nil
}

func (m *mockLogRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ActivityLogView, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return []*entity.ActivityLogView{}, nil
}

func (m *mockLogRepo) recorded() []*entity.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.ActivityLog(nil), m.entries...)
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// mockNotifier captures dispatched notifications synchronously
type mockNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (m *mockNotifier) Dispatch(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *mockNotifier) dispatched() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// mockSender implements port.EmailSender
type mockSender struct {
	sendFunc func(ctx context.Context, to, subject, body string) (bool, error)
}

func (m *mockSender) Send(ctx context.Context, to, subject, body string) (bool, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, body)
	}
	return true, nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
