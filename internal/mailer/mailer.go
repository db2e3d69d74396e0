// Package mailer is the outbound notification channel. Three implementations
// sit behind one interface: log-only for development, plain SMTP, and the
// MailerSend API for production.
package mailer

import "github.com/wandertrails/tours-api/internal/config"

type Service interface {
	SendPasswordReset(toEmail, toName, resetURL, token string) error
	SendWelcome(toEmail, toName string) error
}

// New picks the implementation for the given mail configuration.
func New(cfg config.EmailConfig) Service {
	if cfg.DevMode {
		return NewDevMailer()
	}
	if cfg.MailerSendKey != "" {
		return NewMailerSend(cfg.MailerSendKey, "Wandertrails", cfg.SMTPFrom)
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
}
