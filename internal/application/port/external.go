package port

import "context"

// EmailSender delivers a single message. sent=false with a nil error means
// delivery was skipped because SMTP is not configured; that is not a failure.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (sent bool, err error)
}
