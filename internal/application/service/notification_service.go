package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

// Notification template kinds, one per transition effect
const (
	NoticeSubmitted = "submitted"
	NoticeVerified  = "verified"
	NoticeRejected  = "rejected"
	NoticeAssigned  = "assigned"
	NoticeApproved  = "approved"
)

var noticePhrases = map[string]string{
	NoticeSubmitted: "submitted",
	NoticeVerified:  "verified",
	NoticeRejected:  "rejected",
	NoticeAssigned:  "verified and assigned to you",
	NoticeApproved:  "approved",
}

var roleTitles = map[workflow.Capability]string{
	CapGM:         "General Manager",
	CapAccountant: "Accountant",
	CapUploader:   "Uploader",
	CapAdmin:      "Administrator",
}

// Local aliases keep the template table readable
const (
	CapGM         = workflow.CapabilityGM
	CapAccountant = workflow.CapabilityAccountant
	CapUploader   = workflow.CapabilityUploader
	CapAdmin      = workflow.CapabilityAdmin
)

// Notification is one outbound notice about a voucher transition
type Notification struct {
	Recipient     string
	Kind          string // one of the Notice constants
	ActorRole     workflow.Role
	VoucherNumber string
}

// NotificationService dispatches transition notices. Dispatch is
// fire-and-forget: it returns before delivery is attempted and its outcome
// never affects the transition that triggered it.
type NotificationService interface {
	Dispatch(n Notification)
}

type notificationServiceImpl struct {
	sender  port.EmailSender
	baseURL string
	timeout time.Duration
	logger  Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(sender port.EmailSender, baseURL string, logger Logger) NotificationService {
	return &notificationServiceImpl{
		sender:  sender,
		baseURL: baseURL,
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

func (s *notificationServiceImpl) Dispatch(n Notification) {
	dispatchID := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.deliver(ctx, dispatchID, n)
	}()
}

// deliver performs the single delivery attempt. No retry, outcome observed
// only for logging.
func (s *notificationServiceImpl) deliver(ctx context.Context, dispatchID string, n Notification) {
	subject, body := s.render(n)

	sent, err := s.sender.Send(ctx, n.Recipient, subject, body)
	switch {
	case err != nil:
		s.logger.Error("Notification delivery failed",
			"dispatch_id", dispatchID,
			"recipient", n.Recipient,
			"voucher_number", n.VoucherNumber,
			"error", err,
		)
	case !sent:
		s.logger.Warn("Notification skipped, SMTP not configured",
			"dispatch_id", dispatchID,
			"recipient", n.Recipient,
			"voucher_number", n.VoucherNumber,
		)
	default:
		s.logger.Info("Notification sent",
			"dispatch_id", dispatchID,
			"recipient", n.Recipient,
			"voucher_number", n.VoucherNumber,
			"kind", n.Kind,
		)
	}
}

// render builds the subject and HTML body keyed by (kind, actor role)
func (s *notificationServiceImpl) render(n Notification) (subject, body string) {
	phrase, ok := noticePhrases[n.Kind]
	if !ok {
		phrase = NoticeSubmitted
	}
	title := roleTitles[n.ActorRole.Capability()]

	subject = fmt.Sprintf("Voucher %s - %s", n.VoucherNumber, capitalize(phrase))
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Voucher Management System</h2>
  <p>Hello,</p>
  <p>Voucher <strong>%s</strong> has been %s by the %s.</p>
  <p>Please review the voucher in the system.</p>
  <a href="%s">View Voucher</a>
  <p style="color: #666; font-size: 12px;">This is an automated notification from the Voucher Management System.</p>
</div>`, n.VoucherNumber, phrase, title, s.baseURL)
	return subject, body
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
