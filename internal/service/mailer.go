package service

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/quangph-dn/rhythm-companion/internal/config"
)

// ErrMailerNotConfigured is returned when SMTP settings are absent. The
// reset flow treats this as a soft failure in development (the token is
// echoed in the response instead) and a hard one in production.
var ErrMailerNotConfigured = errors.New("mailer: SMTP not configured")

// Mailer sends transactional mail through a plain SMTP relay.
type Mailer struct {
	Host    string
	Port    string
	User    string
	Pass    string
	PageURL string
}

// NewMailer builds a Mailer from the loaded configuration.
func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		Host:    cfg.SMTPHost,
		Port:    cfg.SMTPPort,
		User:    cfg.SMTPUser,
		Pass:    cfg.SMTPPass,
		PageURL: cfg.PageURL,
	}
}

func (m *Mailer) configured() bool {
	return m != nil && m.Host != "" && m.Port != "" && m.User != ""
}

// SendPasswordReset mails a short-lived reset link to the given address.
func (m *Mailer) SendPasswordReset(email, token string) error {
	if !m.configured() {
		return ErrMailerNotConfigured
	}

	link := fmt.Sprintf("%s/change-password?token=%s", m.PageURL, token)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n"+
			"A password reset was requested for your account.\r\n\r\n"+
			"Open the link below within 5 minutes to choose a new password:\r\n%s\r\n\r\n"+
			"If you did not request this, you can ignore this email.\r\n",
		m.User, email, link))

	var auth smtp.Auth
	if m.Pass != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, m.User, []string{email}, msg); err != nil {
		return fmt.Errorf("mailer: send reset to %s: %w", email, err)
	}
	return nil
}
