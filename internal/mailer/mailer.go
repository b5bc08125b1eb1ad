// Package mailer sends notification email through SendGrid.
package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mailer struct {
	APIKey string
	From   string
}

func New(apiKey, from string) *Mailer {
	return &Mailer{APIKey: apiKey, From: from}
}

// Enabled reports whether SendGrid credentials are configured. Mail is best
// effort; with no key the caller just skips the fan-out.
func (m *Mailer) Enabled() bool {
	return m != nil && m.APIKey != "" && m.From != ""
}

func (m *Mailer) Send(toEmail, toName, subject, body string) error {
	from := mail.NewEmail("CampusEase", m.From)
	to := mail.NewEmail(toName, toEmail)
	msg := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(m.APIKey)
	resp, err := client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return nil
}
