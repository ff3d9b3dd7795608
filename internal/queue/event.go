// Package queue moves outbound email off the request path. Handlers
// publish an EmailRequestedEvent and a background consumer performs the
// actual SMTP delivery, so a slow relay never stalls signup or
// password-reset requests.
package queue

// EmailOutboundQueue is the durable queue that carries email jobs.
const EmailOutboundQueue = "email.outbound"

// EmailRequestedEvent is published whenever the application wants a mail
// delivered. It carries the fully rendered message; consumers do not
// touch the database.
type EmailRequestedEvent struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	RequestedAt string `json:"requested_at"`
}
