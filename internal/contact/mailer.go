package contact

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/domain"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer e-mails each new message to the site owner over SMTP.
type Mailer struct {
	cfg  config.MailConfig
	send sendFunc
}

// NewMailer returns nil when SMTP credentials are missing.
func NewMailer(cfg config.MailConfig) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.ToEmail == "" {
		cfg.ToEmail = cfg.SMTPUser
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// headerSafe folds line breaks so a value cannot start a new header.
var headerSafe = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func (m *Mailer) compose(msg domain.ContactMessage) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", headerSafe.Replace(msg.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	headers := "To: " + m.cfg.ToEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.cfg.SMTPUser + "\r\n"
	// Reply-To only when the visitor's address parses
	if addr, err := mail.ParseAddress(headerSafe.Replace(msg.Email)); err == nil {
		headers += "Reply-To: " + addr.Address + "\r\n"
	}
	return []byte(headers + "\r\n" + body + "\r\n")
}

func (m *Mailer) Notify(ctx context.Context, msg domain.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	err := m.send(m.cfg.SMTPHost+":"+m.cfg.SMTPPort, auth, m.cfg.SMTPUser, []string{m.cfg.ToEmail}, m.compose(msg))
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	log.Printf("[contact] Email sent for message from %s", msg.Name)
	return nil
}
