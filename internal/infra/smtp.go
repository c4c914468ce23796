package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"playzone/internal/config"

	"github.com/jordan-wright/email"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Mailer wraps SMTP configuration for sending the closing report.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *CircuitBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewCircuitBreaker(DefaultBreakerConfig()),
	}
}

// Breaker exposes the relay breaker for the health endpoint.
func (m *Mailer) Breaker() *CircuitBreaker {
	if m == nil {
		return nil
	}
	return m.breaker
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// SendReport mails body with an in-memory XLSX attachment.
func (m *Mailer) SendReport(to []string, subject, body, filename string, xlsx []byte) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP_HOST not configured")
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	if len(xlsx) > 0 {
		if _, err := e.Attach(bytes.NewReader(xlsx), filename, xlsxMIME); err != nil {
			return fmt.Errorf("mailer: attach report: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Execute(func() error { return e.Send(m.addr, auth) })
}
