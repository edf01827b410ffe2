package notify

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunTimeout = 10 * time.Second

// MailgunSender delivers notifications through the Mailgun API.
type MailgunSender struct {
	client *mg.MailgunImpl
	sender string
}

// NewMailgunSender wraps a Mailgun client for the given domain.
func NewMailgunSender(domain, apiKey, sender string) *MailgunSender {
	return &MailgunSender{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	m := s.client.NewMessage(s.sender, msg.Subject(), msg.Text(), msg.To)
	c, cancel := context.WithTimeout(ctx, mailgunTimeout)
	defer cancel()
	_, _, err := s.client.Send(c, m)
	return err
}

// Deliver sends pre-rendered content; the queue worker uses it for jobs
// rendered by the API process.
func (s *MailgunSender) Deliver(ctx context.Context, to, subject, text string) error {
	m := s.client.NewMessage(s.sender, subject, text, to)
	c, cancel := context.WithTimeout(ctx, mailgunTimeout)
	defer cancel()
	_, _, err := s.client.Send(c, m)
	return err
}
