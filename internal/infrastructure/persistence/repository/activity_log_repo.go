package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
)

// ActivityLogRepository implements port.ActivityLogRepository. The table is
// append-only: no update or delete statements exist here.
type ActivityLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *sql.DB, logger *zap.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{db: db, logger: logger}
}

// Create appends a log entry
func (r *ActivityLogRepository) Create(ctx context.Context, e *entity.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (voucher_id, user_id, user_name, user_role, action, description, old_status, new_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		e.VoucherID,
		e.UserID,
		e.UserName,
		e.UserRole,
		e.Action,
		nullable(e.Description),
		nullable(e.OldStatus),
		nullable(e.NewStatus),
	)
	if err != nil {
		r.logger.Error("Failed to append activity log", zap.Error(err))
		return fmt.Errorf("failed to append activity log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

const logSelect = `
	SELECT
		al.id, al.voucher_id, al.user_id, al.user_name, al.user_role,
		al.action, al.description, al.old_status, al.new_status, al.created_at,
		v.voucher_number, v.gm_status, v.uploader_status
	FROM activity_logs al
	LEFT JOIN vouchers v ON al.voucher_id = v.id
`

// ListRange returns entries within the closed interval [start, end], newest
// first, joined with their voucher's current state when it still exists.
func (r *ActivityLogRepository) ListRange(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error) {
	query := logSelect + " WHERE al.created_at >= ? AND al.created_at <= ? ORDER BY al.created_at DESC"
	return r.queryLogs(ctx, query, start, end)
}

// ListRecent returns the most recent limit entries
func (r *ActivityLogRepository) ListRecent(ctx context.Context, limit int) ([]*entity.ActivityLogView, error) {
	query := logSelect + " ORDER BY al.created_at DESC LIMIT ?"
	return r.queryLogs(ctx, query, limit)
}

func (r *ActivityLogRepository) queryLogs(ctx context.Context, query string, params ...interface{}) ([]*entity.ActivityLogView, error) {
	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, params...)
	if err != nil {
		r.logger.Error("Failed to list activity logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.ActivityLogView
	for rows.Next() {
		var (
			l              entity.ActivityLogView
			voucherID      sql.NullInt64
			description    sql.NullString
			oldStatus      sql.NullString
			newStatus      sql.NullString
			voucherNumber  sql.NullString
			gmStatus       sql.NullString
			uploaderStatus sql.NullString
		)
		err := rows.Scan(
			&l.ID, &voucherID, &l.UserID, &l.UserName, &l.UserRole,
			&l.Action, &description, &oldStatus, &newStatus, &l.CreatedAt,
			&voucherNumber, &gmStatus, &uploaderStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}

		if voucherID.Valid {
			l.VoucherID = &voucherID.Int64
		}
		l.Description = description.String
		l.OldStatus = oldStatus.String
		l.NewStatus = newStatus.String
		if voucherNumber.Valid {
			l.VoucherNumber = &voucherNumber.String
		}
		if gmStatus.Valid {
			l.GMStatus = &gmStatus.String
		}
		if uploaderStatus.Valid {
			l.UploaderStatus = &uploaderStatus.String
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// nullable maps empty strings to NULL columns
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ port.ActivityLogRepository = (*ActivityLogRepository)(nil)
