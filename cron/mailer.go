package cron

import (
	"context"

	"reservelt/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, email models.EmailPayload) error
}

// SMTPMailer delivers mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

func (m *SMTPMailer) Send(_ context.Context, email models.EmailPayload) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTMLBody)
	return m.dialer.DialAndSend(msg)
}

// LogMailer only logs; it stands in when no SMTP host is configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, email models.EmailPayload) error {
	m.Logger.Info("email (not sent, smtp disabled)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("bookingID", email.BookingID))
	return nil
}
