// Package render produces documents from finalized voucher snapshots. It
// only reads the snapshot handed to it; workflow rules live elsewhere.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
)

// reportHeader is the column layout of the voucher report sheet
var reportHeader = []interface{}{
	"Voucher Number",
	"Date",
	"In Favour Of",
	"Accountant",
	"GM Status",
	"Uploader Status",
	"Uploader",
	"Amount",
	"Created At",
	"GM Verified At",
	"Uploader Verified At",
}

// ExcelReporter renders voucher listings to Excel workbooks
type ExcelReporter struct {
	logger *zap.Logger
}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter(logger *zap.Logger) *ExcelReporter {
	return &ExcelReporter{logger: logger}
}

// WriteReport renders the vouchers to w as a single-sheet workbook
func (r *ExcelReporter) WriteReport(w io.Writer, vouchers []*entity.Voucher, status string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(status)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, v := range vouchers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		row := reportRow(v)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Info("Voucher report rendered",
		zap.String("status", status),
		zap.Int("vouchers", len(vouchers)))
	return nil
}

// WriteVoucherDocument renders a single voucher to w as a workbook, one
// labelled row per field.
func (r *ExcelReporter) WriteVoucherDocument(w io.Writer, v *entity.Voucher) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Voucher " + v.VoucherNumber
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	payload := parsePayload(v)
	rows := [][]interface{}{
		{"Voucher Number", v.VoucherNumber},
		{"Date", payload.Date},
		{"In Favour Of", payload.InFavourOf},
		{"Amount", payload.Amount},
		{"Accountant", v.AccountantName},
		{"GM Status", v.GMStatus.String()},
		{"Uploader Status", v.UploaderStatus.String()},
		{"Uploader", uploaderLabel(v)},
		{"Created At", formatTime(&v.CreatedAt)},
		{"GM Verified At", formatTime(v.GMVerifiedAt)},
		{"Uploader Verified At", formatTime(v.UploaderVerifiedAt)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Info("Voucher document rendered",
		zap.String("voucher_number", v.VoucherNumber))
	return nil
}

// voucherPayload is the subset of the free-form payload the renderers show
type voucherPayload struct {
	Date       string
	InFavourOf string
	Amount     float64
}

func parsePayload(v *entity.Voucher) voucherPayload {
	var payload struct {
		Date        string  `json:"date"`
		InFavourOf  string  `json:"in_favour_of"`
		AdvancePaid float64 `json:"advance_paid"`
		TotalDue    float64 `json:"total_due"`
	}
	// Best effort: a malformed payload still yields the voucher's own fields
	_ = json.Unmarshal(v.Payload, &payload)

	amount := payload.AdvancePaid
	if amount == 0 {
		amount = payload.TotalDue
	}
	return voucherPayload{Date: payload.Date, InFavourOf: payload.InFavourOf, Amount: amount}
}

func uploaderLabel(v *entity.Voucher) string {
	if v.UploaderName != nil {
		return *v.UploaderName
	}
	return "Not assigned"
}

func reportRow(v *entity.Voucher) []interface{} {
	payload := parsePayload(v)

	return []interface{}{
		v.VoucherNumber,
		payload.Date,
		payload.InFavourOf,
		v.AccountantName,
		v.GMStatus.String(),
		v.UploaderStatus.String(),
		uploaderLabel(v),
		payload.Amount,
		formatTime(&v.CreatedAt),
		formatTime(v.GMVerifiedAt),
		formatTime(v.UploaderVerifiedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func sheetName(status string) string {
	if status == "all" {
		return "All Vouchers"
	}
	return strings.ToUpper(status[:1]) + status[1:] + " Vouchers"
}
