package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"crowdvest/internal/config"
)

// EmailSender delivers a single plain-text message
type EmailSender interface {
	Send(to, subject, body string) error
}

// EmailService sends mail over SMTP. When no host is configured it becomes a
// no-op so local setups run without a mail server.
type EmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.MailFrom,
	}
}

// Send delivers a plain-text email
func (s *EmailService) Send(to, subject, body string) error {
	if s.host == "" {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	var a smtp.Auth
	if s.user != "" {
		a = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	if err := smtp.SendMail(addr, a, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
