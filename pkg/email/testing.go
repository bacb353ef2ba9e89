package email

import (
	"context"
	"sync"
)

// CapturedEmail is one message handed to a CaptureSender.
type CapturedEmail struct {
	To      string
	Subject string
	Body    string
}

// CaptureSender records messages instead of delivering them. Set Err to make
// every Send fail.
type CaptureSender struct {
	mu   sync.Mutex
	Err  error
	sent []CapturedEmail
}

func (s *CaptureSender) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, CapturedEmail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of everything captured so far.
func (s *CaptureSender) Sent() []CapturedEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedEmail, len(s.sent))
	copy(out, s.sent)
	return out
}
