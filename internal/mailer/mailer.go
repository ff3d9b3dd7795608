// Package mailer delivers transactional mail for signup verification and
// password resets. Delivery is best-effort; callers log failures and keep
// going rather than failing the originating request.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer talks to an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPMailer returns nil when the relay host is not configured so
// callers can fall back to the console mailer.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	if host == "" {
		return nil
	}
	if from == "" {
		from = user
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// ConsoleMailer logs the message instead of sending it. Used in
// development and tests when no SMTP relay is configured.
type ConsoleMailer struct {
	Log *slog.Logger
}

func (m *ConsoleMailer) Send(to, subject, body string) error {
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("mail (console delivery)", "to", to, "subject", subject, "body", body)
	return nil
}
