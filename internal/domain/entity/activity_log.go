package entity

import "time"

// ActivityLog is a single append-only audit trail entry. Rows are never
// updated or deleted; the voucher reference is nulled if the voucher row is
// ever purged, the user fields are a snapshot taken at recording time.
type ActivityLog struct {
	ID          int64     `json:"id"`
	VoucherID   *int64    `json:"voucher_id,omitempty"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserRole    string    `json:"user_role"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	OldStatus   string    `json:"old_status,omitempty"`
	NewStatus   string    `json:"new_status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityLogView is a log entry joined (read-only, best-effort) with the
// current state of its voucher, when the voucher still exists.
type ActivityLogView struct {
	ActivityLog
	VoucherNumber  *string `json:"voucher_number,omitempty"`
	GMStatus       *string `json:"gm_status,omitempty"`
	UploaderStatus *string `json:"uploader_status,omitempty"`
}
