// Package notify delivers user-facing notifications. Every Sender is used
// best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"fmt"
)

// Kind selects the notification copy.
type Kind string

const (
	KindVerifyEmail          Kind = "verify_email"
	KindApproved             Kind = "approved"
	KindRejected             Kind = "rejected"
	KindAdminPendingApproval Kind = "admin_pending_approval"
)

// Message is one notification addressed to one recipient.
type Message struct {
	Kind      Kind
	To        string
	Name      string
	Variables map[string]string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var subjects = map[Kind]string{
	KindVerifyEmail:          "Verify your email",
	KindApproved:             "Your account has been approved",
	KindRejected:             "Your account request was not approved",
	KindAdminPendingApproval: "New user pending approval",
}

// Subject returns the subject line for the message kind.
func (m Message) Subject() string {
	if s, ok := subjects[m.Kind]; ok {
		return s
	}
	return string(m.Kind)
}

// Text renders a short plain-text body.
func (m Message) Text() string {
	v := m.Variables
	switch m.Kind {
	case KindVerifyEmail:
		return fmt.Sprintf("Hello %s, verify your email with this code: %s", m.Name, v["token"])
	case KindApproved:
		return fmt.Sprintf("Dear %s, your account has been approved. You can now sign in.", m.Name)
	case KindRejected:
		return fmt.Sprintf("Dear %s, we were unable to approve your profile. Reason: %s", m.Name, v["reason"])
	case KindAdminPendingApproval:
		return fmt.Sprintf("User %s has verified their email and is awaiting approval.", v["user_email"])
	}
	return m.Subject()
}
