package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// voucherColumns is the joined select list shared by all voucher queries
const voucherColumns = `
	v.id, v.voucher_number, v.accountant_id, v.gm_status, v.uploader_status,
	v.uploader_id, v.voucher_data, v.created_at, v.gm_verified_at, v.uploader_verified_at,
	a.name, a.email, u.name, u.email
`

const voucherJoins = `
	FROM vouchers v
	LEFT JOIN users a ON v.accountant_id = a.id
	LEFT JOIN users u ON v.uploader_id = u.id
`

// VoucherRepository implements port.VoucherRepository
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) *VoucherRepository {
	return &VoucherRepository{db: db, logger: logger}
}

// Create inserts a new voucher. The voucher_number unique constraint
// arbitrates concurrent creations; a losing insert maps to ErrConflict so
// the caller can re-allocate.
func (r *VoucherRepository) Create(ctx context.Context, v *entity.Voucher) error {
	query := `
		INSERT INTO vouchers (voucher_number, accountant_id, voucher_data)
		VALUES (?, ?, ?)
	`
	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		v.VoucherNumber,
		v.AccountantID,
		string(v.Payload),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: voucher number %s", workflow.ErrConflict, v.VoucherNumber)
		}
		r.logger.Error("Failed to create voucher", zap.Error(err))
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = id
	return nil
}

// GetByID retrieves a voucher with joined user info, or nil if absent
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	query := "SELECT " + voucherColumns + voucherJoins + " WHERE v.id = ?"

	v, err := scanVoucher(executorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get voucher", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return v, nil
}

// LastVoucherNumber returns the highest voucher number by numeric value,
// tie-broken on the most recently created row. Empty string when no
// vouchers exist.
func (r *VoucherRepository) LastVoucherNumber(ctx context.Context) (string, error) {
	query := `
		SELECT voucher_number
		FROM vouchers
		ORDER BY CAST(voucher_number AS INTEGER) DESC, id DESC
		LIMIT 1
	`
	var number string
	err := executorFor(ctx, r.db).QueryRowContext(ctx, query).Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last voucher number: %w", err)
	}
	return number, nil
}

// ApplyGMAction updates the GM status fields, assigning an uploader when
// uploaderID is non-nil.
func (r *VoucherRepository) ApplyGMAction(ctx context.Context, id int64, status workflow.GMStatus, uploaderID *int64, at time.Time) error {
	var err error
	if uploaderID != nil {
		query := `
			UPDATE vouchers
			SET gm_status = ?, gm_verified_at = ?, uploader_id = ?
			WHERE id = ?
		`
		_, err = executorFor(ctx, r.db).ExecContext(ctx, query, status.String(), at, *uploaderID, id)
	} else {
		query := `
			UPDATE vouchers
			SET gm_status = ?, gm_verified_at = ?
			WHERE id = ?
		`
		_, err = executorFor(ctx, r.db).ExecContext(ctx, query, status.String(), at, id)
	}
	if err != nil {
		r.logger.Error("Failed to apply GM action", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update voucher: %w", err)
	}
	return nil
}

// ApplyUploaderAction updates the uploader status fields
func (r *VoucherRepository) ApplyUploaderAction(ctx context.Context, id int64, status workflow.UploaderStatus, at time.Time) error {
	query := `
		UPDATE vouchers
		SET uploader_status = ?, uploader_verified_at = ?
		WHERE id = ?
	`
	_, err := executorFor(ctx, r.db).ExecContext(ctx, query, status.String(), at, id)
	if err != nil {
		r.logger.Error("Failed to apply uploader action", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update voucher: %w", err)
	}
	return nil
}

// ListForRole returns vouchers visible to the actor under the role-scoped
// listing rules.
func (r *VoucherRepository) ListForRole(ctx context.Context, role workflow.Role, actorID int64) ([]*entity.Voucher, error) {
	query := "SELECT " + voucherColumns + voucherJoins
	var params []interface{}

	switch role.Capability() {
	case workflow.CapabilityAccountant:
		query += " WHERE v.accountant_id = ?"
		params = append(params, actorID)
	case workflow.CapabilityGM:
		query += " WHERE v.gm_status IN (?, ?)"
		params = append(params, workflow.GMPending.String(), workflow.GMVerified.String())
	case workflow.CapabilityUploader:
		query += " WHERE v.gm_status = ? AND (v.uploader_id = ? OR v.uploader_id IS NULL)"
		params = append(params, workflow.GMVerified.String(), actorID)
	}

	query += " ORDER BY v.created_at DESC"
	return r.queryVouchers(ctx, query, params...)
}

// ListForReport returns role-scoped vouchers filtered by report status
func (r *VoucherRepository) ListForReport(ctx context.Context, role workflow.Role, actorID int64, status string) ([]*entity.Voucher, error) {
	query := "SELECT " + voucherColumns + voucherJoins + " WHERE 1=1"
	var params []interface{}

	switch role.Capability() {
	case workflow.CapabilityAccountant:
		query += " AND v.accountant_id = ?"
		params = append(params, actorID)
	case workflow.CapabilityUploader:
		query += " AND (v.uploader_id = ? OR v.uploader_id IS NULL)"
		params = append(params, actorID)
	}
	// GM sees all vouchers in reports

	switch status {
	case "approved":
		query += " AND v.uploader_status = ?"
		params = append(params, workflow.UploaderApproved.String())
	case "rejected":
		query += " AND (v.uploader_status = ? OR v.gm_status = ?)"
		params = append(params, workflow.UploaderRejected.String(), workflow.GMRejected.String())
	case "pending":
		query += " AND v.gm_status = ?"
		params = append(params, workflow.GMPending.String())
	case "verified":
		query += " AND v.gm_status = ? AND v.uploader_status = ?"
		params = append(params, workflow.GMVerified.String(), workflow.UploaderPending.String())
	}

	query += " ORDER BY v.created_at DESC"
	return r.queryVouchers(ctx, query, params...)
}

// CountForUser returns how many vouchers reference the user as accountant
// or assigned uploader.
func (r *VoucherRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	query := "SELECT COUNT(*) FROM vouchers WHERE accountant_id = ? OR uploader_id = ?"
	var count int
	err := executorFor(ctx, r.db).QueryRowContext(ctx, query, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vouchers for user: %w", err)
	}
	return count, nil
}

func (r *VoucherRepository) queryVouchers(ctx context.Context, query string, params ...interface{}) ([]*entity.Voucher, error) {
	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, params...)
	if err != nil {
		r.logger.Error("Failed to list vouchers", zap.Error(err))
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*entity.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVoucher(row rowScanner) (*entity.Voucher, error) {
	var (
		v                  entity.Voucher
		gmStatus           string
		uploaderStatus     string
		uploaderID         sql.NullInt64
		payload            string
		gmVerifiedAt       sql.NullTime
		uploaderVerifiedAt sql.NullTime
		accountantName     sql.NullString
		accountantEmail    sql.NullString
		uploaderName       sql.NullString
		uploaderEmail      sql.NullString
	)

	err := row.Scan(
		&v.ID,
		&v.VoucherNumber,
		&v.AccountantID,
		&gmStatus,
		&uploaderStatus,
		&uploaderID,
		&payload,
		&v.CreatedAt,
		&gmVerifiedAt,
		&uploaderVerifiedAt,
		&accountantName,
		&accountantEmail,
		&uploaderName,
		&uploaderEmail,
	)
	if err != nil {
		return nil, err
	}

	v.GMStatus = workflow.GMStatus(gmStatus)
	v.UploaderStatus = workflow.UploaderStatus(uploaderStatus)
	v.Payload = json.RawMessage(payload)
	if uploaderID.Valid {
		v.UploaderID = &uploaderID.Int64
	}
	if gmVerifiedAt.Valid {
		v.GMVerifiedAt = &gmVerifiedAt.Time
	}
	if uploaderVerifiedAt.Valid {
		v.UploaderVerifiedAt = &uploaderVerifiedAt.Time
	}
	if accountantName.Valid {
		v.AccountantName = accountantName.String
	}
	if accountantEmail.Valid {
		v.AccountantEmail = accountantEmail.String
	}
	if uploaderName.Valid {
		v.UploaderName = &uploaderName.String
	}
	if uploaderEmail.Valid {
		v.UploaderEmail = &uploaderEmail.String
	}
	return &v, nil
}

var _ port.VoucherRepository = (*VoucherRepository)(nil)
