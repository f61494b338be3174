package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

var sendMail = smtp.SendMail

// SMTPNotifier submits messages to an SMTP relay. PLAIN auth is used when a
// user is configured.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPNotifier(addr, user, password, from string) *SMTPNotifier {
	n := &SMTPNotifier{addr: addr, from: from}
	if user != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		n.auth = smtp.PlainAuth("", user, password, host)
	}
	return n
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sendMail(n.addr, n.auth, n.from, []string{to}, n.compose(to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (n *SMTPNotifier) compose(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
