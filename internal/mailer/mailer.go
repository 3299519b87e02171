package mailer

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"
)

// Mailer is the transactional-email collaborator of the registration
// workflow. Delivery is best effort; callers log and move on.
type Mailer interface {
	SendRegistrationConfirmation(recipient, eventTitle string, eventStart time.Time) error
	SendPaymentConfirmation(recipient, eventTitle, amount string) error
	SendRegistrationExpired(recipient, eventTitle string) error
}

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type SMTPMailer struct {
	cfg Config
	log *zerolog.Logger
}

func NewSMTPMailer(cfg Config, log *zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendRegistrationConfirmation(recipient, eventTitle string, eventStart time.Time) error {
	subject := fmt.Sprintf("Registration confirmed - %s", eventTitle)
	body := fmt.Sprintf(
		"Hello!\n\nYour registration for \"%s\" is confirmed.\nWhen: %s\n\nSee you there!",
		eventTitle, eventStart.Format("Mon, 02 Jan 2006 15:04 MST"),
	)
	return m.send(recipient, subject, body)
}

func (m *SMTPMailer) SendPaymentConfirmation(recipient, eventTitle, amount string) error {
	subject := fmt.Sprintf("Payment received - %s", eventTitle)
	body := fmt.Sprintf(
		"Hello!\n\nWe received your payment of $%s for \"%s\". Your spot is confirmed.",
		amount, eventTitle,
	)
	return m.send(recipient, subject, body)
}

func (m *SMTPMailer) SendRegistrationExpired(recipient, eventTitle string) error {
	subject := fmt.Sprintf("Registration cancelled - %s", eventTitle)
	body := fmt.Sprintf(
		"Hello!\n\nYour registration for \"%s\" was cancelled because the payment window expired.",
		eventTitle,
	)
	return m.send(recipient, subject, body)
}

func (m *SMTPMailer) send(recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("recipient", recipient).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("recipient", recipient).Str("subject", subject).Msg("email sent")
	return nil
}
