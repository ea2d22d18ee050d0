// Package port defines the interfaces the application layer depends on.
// Infrastructure packages implement them; services receive them at
// construction so nothing reaches for an ambient database handle.
package port

import (
	"context"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// VoucherRepository persists voucher records
type VoucherRepository interface {
	// Create inserts the voucher and fills in its generated ID. A duplicate
	// voucher number fails with workflow.ErrConflict.
	Create(ctx context.Context, v *entity.Voucher) error

	// GetByID returns the voucher with joined accountant/uploader info, or
	// nil when no such voucher exists.
	GetByID(ctx context.Context, id int64) (*entity.Voucher, error)

	// LastVoucherNumber returns the highest voucher number by numeric value,
	// tie-broken on most recently created. Empty string when no vouchers exist.
	LastVoucherNumber(ctx context.Context) (string, error)

	// ApplyGMAction sets gm_status and gm_verified_at, and the uploader
	// assignment when uploaderID is non-nil.
	ApplyGMAction(ctx context.Context, id int64, status workflow.GMStatus, uploaderID *int64, at time.Time) error

	// ApplyUploaderAction sets uploader_status and uploader_verified_at.
	ApplyUploaderAction(ctx context.Context, id int64, status workflow.UploaderStatus, at time.Time) error

	// ListForRole returns the vouchers visible to the actor under the
	// role-scoped listing rules.
	ListForRole(ctx context.Context, role workflow.Role, actorID int64) ([]*entity.Voucher, error)

	// ListForReport returns role-scoped vouchers filtered by report status
	// (approved, rejected, pending, verified or all).
	ListForReport(ctx context.Context, role workflow.Role, actorID int64, status string) ([]*entity.Voucher, error)

	// CountForUser returns how many vouchers reference the user as
	// accountant or assigned uploader.
	CountForUser(ctx context.Context, userID int64) (int, error)
}

// UserRepository persists user accounts
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByRole returns one user holding the given role, or nil. Used to
	// route notifications to the GM.
	GetByRole(ctx context.Context, role workflow.Role) (*entity.User, error)
	ListUploaders(ctx context.Context) ([]*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
}

// ActivityLogRepository persists the append-only audit trail
type ActivityLogRepository interface {
	Create(ctx context.Context, e *entity.ActivityLog) error
	ListRange(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ActivityLogView, error)
}

// TransactionManager executes a function within a database transaction. The
// context passed to fn carries the transaction; repository calls made with
// it join the same transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
