package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fraudlens/fraudlens/internal/logging"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string // host:port
	from string
}

// NewSMTPSender creates a sender for the given relay address.
func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)

// LogSender logs mail instead of sending it. Used when no SMTP relay is
// configured, so demo mode still shows the fan-out happening.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, _ string) error {
	logging.L(ctx).Info("email alert (not sent, no SMTP relay configured)",
		"recipient", to, "subject", subject)
	return nil
}

var _ Sender = LogSender{}
