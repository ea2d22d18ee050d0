// Package email implements the outbound notification boundary over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
)

// Config holds SMTP delivery configuration
type Config struct {
	Host       string
	Port       int
	User       string
	Pass       string
	SenderName string
}

// SMTPSender delivers notification mail. When credentials are absent it
// reports skipped rather than failing, so an unconfigured deployment still
// processes transitions normally.
type SMTPSender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg Config, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// Configured reports whether SMTP credentials are present
func (s *SMTPSender) Configured() bool {
	return s.cfg.User != "" && s.cfg.Pass != ""
}

// Send makes a single delivery attempt. No retry: the dispatcher observes
// the outcome for logging only.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) (bool, error) {
	if !s.Configured() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	from := s.cfg.User
	msg := s.buildMessage(from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
		s.logger.Error("SMTP delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return false, fmt.Errorf("smtp send: %w", err)
	}
	return true, nil
}

func (s *SMTPSender) buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.SenderName, from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var _ port.EmailSender = (*SMTPSender)(nil)
