package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/chirp-social/backend/pkg/config"
	"go.uber.org/zap"
)

// Mailer sends notification email over plain SMTP.
type Mailer struct {
	logger *zap.Logger

	from string
	pass string
	host string
	port string
}

// New creates a Mailer from the SMTP settings in the config. A missing host
// yields a nil Mailer and the caller runs without email delivery.
func New(cfg *config.Config, logger *zap.Logger) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		logger: logger,
		from:   cfg.SMTPFrom,
		pass:   cfg.SMTPPass,
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
	}
}

// SendNotificationMail sends a single notification email.
func (m *Mailer) SendNotificationMail(to, subject, body string) error {
	return m.send(to, subject, body)
}

// SendUnreadDigestMail sends the daily unread-notifications digest.
func (m *Mailer) SendUnreadDigestMail(to string, unread int64) error {
	subject := "You have unread notifications"
	body := fmt.Sprintf("You have <b>%d</b> unread notification(s) waiting for you.", unread)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n" +
		"\r\n" + body)

	auth := smtp.PlainAuth("", m.from, m.pass, m.host)

	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg); err != nil {
		return err
	}

	m.logger.Sugar().Infof("Successfully sent mail(%s) to(%s)", subject, to)
	return nil
}
