package entity

import (
	"encoding/json"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// Voucher is a payment voucher moving through the approval workflow
type Voucher struct {
	ID                 int64                   `json:"id"`
	VoucherNumber      string                  `json:"voucher_number"`
	AccountantID       int64                   `json:"accountant_id"`
	GMStatus           workflow.GMStatus       `json:"gm_status"`
	UploaderStatus     workflow.UploaderStatus `json:"uploader_status"`
	UploaderID         *int64                  `json:"uploader_id,omitempty"`
	Payload            json.RawMessage         `json:"voucher_data"`
	CreatedAt          time.Time               `json:"created_at"`
	GMVerifiedAt       *time.Time              `json:"gm_verified_at,omitempty"`
	UploaderVerifiedAt *time.Time              `json:"uploader_verified_at,omitempty"`

	// Denormalized user info, populated by list/get queries only
	AccountantName  string  `json:"accountant_name,omitempty"`
	AccountantEmail string  `json:"accountant_email,omitempty"`
	UploaderName    *string `json:"uploader_name,omitempty"`
	UploaderEmail   *string `json:"uploader_email,omitempty"`
}

// Status returns the voucher's workflow state pair
func (v *Voucher) Status() workflow.Status {
	return workflow.Status{GM: v.GMStatus, Uploader: v.UploaderStatus}
}
