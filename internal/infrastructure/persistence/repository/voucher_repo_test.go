package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
	"github.com/Sadiqmanga/voucher-system/pkg/database"
)

func newTestDB(t *testing.T) (*database.DB, *zap.Logger) {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrationsDir := filepath.Join("..", "..", "..", "..", "migrations")
	if err := database.NewMigrator(db, logger).Run(context.Background(), migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db, logger
}

func createTestUser(t *testing.T, users *UserRepository, email string, role workflow.Role) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Password: "secret", Name: email, Role: role}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func createTestVoucher(t *testing.T, vouchers *VoucherRepository, number string, accountantID int64) *entity.Voucher {
	t.Helper()
	v := &entity.Voucher{
		VoucherNumber: number,
		AccountantID:  accountantID,
		Payload:       json.RawMessage(`{"in_favour_of":"Acme Ltd","total_due":120}`),
	}
	if err := vouchers.Create(context.Background(), v); err != nil {
		t.Fatalf("create voucher %s: %v", number, err)
	}
	return v
}

func TestLastVoucherNumber_NumericOrder(t *testing.T) {
	db, logger := newTestDB(t)
	users := NewUserRepository(db.DB, logger)
	vouchers := NewVoucherRepository(db.DB, logger)
	ctx := context.Background()

	got, err := vouchers.LastVoucherNumber(ctx)
	if err != nil {
		t.Fatalf("LastVoucherNumber() error = %v", err)
	}
	if got != "" {
		t.Errorf("LastVoucherNumber() on empty table = %q, want empty", got)
	}

	accountant := createTestUser(t, users, "alice@example.com", workflow.RoleAccountant)

	// The highest number is inserted first: the query must order by numeric
	// value, not by rowid or insertion order.
	for _, number := range []string{"000101", "000099", "000100"} {
		createTestVoucher(t, vouchers, number, accountant.ID)
	}

	got, err = vouchers.LastVoucherNumber(ctx)
	if err != nil {
		t.Fatalf("LastVoucherNumber() error = %v", err)
	}
	if got != "000101" {
		t.Errorf("LastVoucherNumber() = %q, want 000101", got)
	}
}

func TestWithTransaction_ConcurrentGMActions(t *testing.T) {
	db, logger := newTestDB(t)
	users := NewUserRepository(db.DB, logger)
	vouchers := NewVoucherRepository(db.DB, logger)
	txm := NewTxManager(db.DB, logger)
	ctx := context.Background()

	accountant := createTestUser(t, users, "alice@example.com", workflow.RoleAccountant)
	uploader := createTestUser(t, users, "uma@example.com", workflow.RoleUploader1)
	voucher := createTestVoucher(t, vouchers, "000099", accountant.ID)

	verify := func() error {
		return txm.WithTransaction(ctx, func(ctx context.Context) error {
			cur, err := vouchers.GetByID(ctx, voucher.ID)
			if err != nil {
				return err
			}
			if cur.GMStatus != workflow.GMPending {
				return fmt.Errorf("%w: voucher is %s", workflow.ErrInvalidTransition, cur.GMStatus)
			}
			return vouchers.ApplyGMAction(ctx, voucher.ID, workflow.GMVerified, &uploader.ID, time.Now())
		})
	}

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = verify()
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, workflow.ErrInvalidTransition):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("succeeded = %d, conflicted = %d, want exactly one of each", succeeded, conflicted)
	}

	final, err := vouchers.GetByID(ctx, voucher.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if final.GMStatus != workflow.GMVerified {
		t.Errorf("GMStatus = %s, want verified", final.GMStatus)
	}
	if final.UploaderID == nil || *final.UploaderID != uploader.ID {
		t.Errorf("UploaderID = %v, want %d", final.UploaderID, uploader.ID)
	}
}

func TestUserDeleteKeepsAuditTrail(t *testing.T) {
	db, logger := newTestDB(t)
	users := NewUserRepository(db.DB, logger)
	vouchers := NewVoucherRepository(db.DB, logger)
	ctx := context.Background()

	accountant := createTestUser(t, users, "alice@example.com", workflow.RoleAccountant)
	idle := createTestUser(t, users, "idle@example.com", workflow.RoleUploader2)
	createTestVoucher(t, vouchers, "000099", accountant.ID)

	count, err := vouchers.CountForUser(ctx, accountant.ID)
	if err != nil {
		t.Fatalf("CountForUser() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountForUser(accountant) = %d, want 1", count)
	}

	count, err = vouchers.CountForUser(ctx, idle.ID)
	if err != nil {
		t.Fatalf("CountForUser() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountForUser(idle) = %d, want 0", count)
	}

	if err := users.Delete(ctx, idle.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	gone, err := users.GetByID(ctx, idle.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if gone != nil {
		t.Errorf("GetByID() after delete = %+v, want nil", gone)
	}
}
