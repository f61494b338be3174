package notify

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var templates = Templates{
	ServiceName:      "BeautyCosmetics",
	ConfirmationURL:  "http://localhost:8081/confirm-email",
	PasswordResetURL: "http://localhost:8081/reset-password",
}

func TestTemplates_Confirmation(t *testing.T) {
	m := templates.Confirmation("0f8e-code")

	assert.Equal(t, "Confirm your email for BeautyCosmetics", m.Subject)
	assert.Contains(t, m.Body, "http://localhost:8081/confirm-email?code=0f8e-code")
	assert.True(t, strings.HasSuffix(m.Body, ": 0f8e-code"))
}

func TestTemplates_PasswordReset(t *testing.T) {
	m := Templates{PasswordResetURL: "https://shop.example/reset?lang=en"}.PasswordReset("abc")

	assert.Equal(t, "Password Reset Request", m.Subject)
	assert.Contains(t, m.Body, "https://shop.example/reset?lang=en&token=abc")
}

func TestSMTPNotifier_Send(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	n := NewSMTPNotifier("mail.example:587", "user", "pw", "no-reply@example")
	require.NoError(t, n.Send(context.Background(), "alice@example.com", "Hi", "line1\nline2"))

	assert.Equal(t, "mail.example:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@example", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "\r\n\r\nline1\r\nline2\r\n")
}

func TestSMTPNotifier_NoAuthAndErrors(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Nil(t, a)
		return errors.New("relay down")
	}

	n := NewSMTPNotifier("localhost:25", "", "", "me@x")
	err := n.Send(context.Background(), "bob@x", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, "bob@x", "s", "b"), context.Canceled)
}

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewJSONLogger(&buf, "info"))

	require.NoError(t, n.Send(context.Background(), "alice@example.com", "subj", "body"))

	out := buf.String()
	assert.Contains(t, out, `"to":"alice@example.com"`)
	assert.Contains(t, out, `"module":"notify"`)
	assert.Contains(t, out, `"subject":"subj"`)
}
