package notify

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"famhealth-backend/models"
)

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailSink sends reminders over SMTP.
type EmailSink struct {
	dialer dialer
	from   string
}

func NewEmailSink(host string, port int, username, password, from string, timeout time.Duration) *EmailSink {
	d := mail.NewDialer(host, port, username, password)
	if timeout > 0 {
		d.Timeout = timeout
	}
	return &EmailSink{dialer: d, from: from}
}

func (s *EmailSink) Send(ctx context.Context, dest models.Destination, r models.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.from, senderName)
	m.SetHeader("To", dest.Address)
	m.SetHeader("Subject", Subject)
	m.SetBody("text/plain", PlainText(dest, r))
	m.AddAlternative("text/html", HTMLBody(dest, r))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
