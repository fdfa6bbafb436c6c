package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender sends email through an SMTP relay.
type SMTPSender struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// SMTPConfig holds the relay settings for an SMTPSender.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// NewSMTPSender creates an SMTPSender for the given relay.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host not configured")
	}
	return &SMTPSender{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}, nil
}

// SendEmail implements EmailSender. gomail has no context support, so
// cancellation is checked before dialing.
func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// DisabledEmailSender is used when no SMTP relay is configured. Every send
// fails with a configuration error, which the dispatcher logs and tolerates.
type DisabledEmailSender struct{}

// SendEmail always reports the channel as unconfigured.
func (DisabledEmailSender) SendEmail(context.Context, string, string, string) error {
	return fmt.Errorf("email channel not configured")
}
