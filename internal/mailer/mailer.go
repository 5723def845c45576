package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hugh/startup-vault/pkg/config"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(to, subject, body string) error
}

// New returns an SMTP-backed mailer, or a logging mailer when no SMTP host
// is configured (development).
func New(cfg *config.SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &logMailer{logger: logger}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg *config.SMTPConfig
}

func (m *smtpMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body,
	)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// logMailer writes the message to the log instead of delivering it, so the
// verification flow stays usable without an SMTP server.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) Send(to, subject, body string) error {
	m.logger.Info("smtp not configured, logging email instead",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
