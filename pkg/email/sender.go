// Package email delivers reminder messages. The worker depends on the Sender
// interface; SES is the production implementation.
package email

import "context"

// Sender delivers a single plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
