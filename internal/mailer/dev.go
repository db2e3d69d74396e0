package mailer

import (
	"github.com/wandertrails/tours-api/pkg/logger"
)

// DevMailer prints mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendPasswordReset(toEmail, toName, resetURL, token string) error {
	logger.Info("[DEV MAIL] Password reset",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
		"token", token,
	)
	return nil
}

func (d *DevMailer) SendWelcome(toEmail, toName string) error {
	logger.Info("[DEV MAIL] Welcome",
		"to", toEmail,
		"name", toName,
	)
	return nil
}
