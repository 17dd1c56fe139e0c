package mailer

import "log"

// Mailer delivers confirmation links out of band. The account lifecycle only
// hands over the email and the signed token; delivery details live here.
type Mailer interface {
	SendConfirmation(email, confirmationToken string)
}

// LogMailer writes the confirmation link to the process log instead of
// sending mail. It is the only delivery channel the service ships with.
type LogMailer struct {
	baseURL string
}

// NewLogMailer creates a LogMailer building links off the given public base URL.
func NewLogMailer(baseURL string) *LogMailer {
	return &LogMailer{baseURL: baseURL}
}

// SendConfirmation logs the full confirmation URL for the email.
func (m *LogMailer) SendConfirmation(email, confirmationToken string) {
	log.Printf("Confirm the email %s: %s/confirm/%s", email, m.baseURL, confirmationToken)
}
