package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"apistarter/internal/config"
)

// smtpMailer implements Mailer over plain SMTP using gomail.
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP creates an SMTP-backed Mailer from email settings.
func NewSMTP(cfg config.SMTPConfig) (Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email sender address is required")
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// Implicit TLS on the SMTPS port; otherwise gomail upgrades via STARTTLS
	// when the server offers it.
	d.SSL = !cfg.StartTLS && cfg.Port == 465

	return &smtpMailer{dialer: d, from: cfg.From}, nil
}

// Send delivers one HTML email. The dial/send itself cannot be interrupted
// midway, so the context is only checked before starting.
func (m *smtpMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
