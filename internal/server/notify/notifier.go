// Package notify delivers account messages (email confirmation, password
// reset) to users. Delivery is best effort: callers log failures and never
// roll back state because of them.
package notify

import (
	"context"
	"net/url"
)

// Notifier sends a plain-text message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message is a rendered subject and body.
type Message struct {
	Subject string
	Body    string
}

// Templates renders the account messages. The URLs point at the frontend
// pages that accept the code or token as a query parameter.
type Templates struct {
	ServiceName      string
	ConfirmationURL  string
	PasswordResetURL string
}

// Confirmation renders the email confirmation message: a link carrying the
// code plus the bare code for manual entry.
func (t Templates) Confirmation(code string) Message {
	link := withQuery(t.ConfirmationURL, "code", code)
	return Message{
		Subject: "Confirm your email for " + t.ServiceName,
		Body: "Thank you for registering! Please click the link below to activate your account:\n" +
			link + "\n\nAlternatively, you can enter this code on the confirmation page: " + code,
	}
}

// PasswordReset renders the password reset message.
func (t Templates) PasswordReset(token string) Message {
	return Message{
		Subject: "Password Reset Request",
		Body:    "To reset your password, please click the link below:\n" + withQuery(t.PasswordResetURL, "token", token),
	}
}

func withQuery(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + key + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
