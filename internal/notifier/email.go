package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/pkg/errors"
)

// EmailNotifier sends trade alerts over SMTP with TLS.
type EmailNotifier struct {
	host      string
	port      int
	sender    string
	password  string
	recipient string
}

// NewEmailNotifier creates an SMTP notifier. The password comes from the
// environment, never from config files.
func NewEmailNotifier(host string, port int, sender, password, recipient string) (*EmailNotifier, error) {
	if host == "" || sender == "" || recipient == "" || password == "" {
		return nil, errors.New("email notifier requires host, sender, recipient and password")
	}
	return &EmailNotifier{
		host:      host,
		port:      port,
		sender:    sender,
		password:  password,
		recipient: recipient,
	}, nil
}

// NotifyTrade sends the alert as a plain-text email.
func (n *EmailNotifier) NotifyTrade(_ context.Context, alert TradeAlert) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.sender, n.recipient, alert.Subject(), alert.Body())

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.sender, n.password, n.host)
	if err := smtp.SendMail(addr, auth, n.sender, []string{n.recipient}, []byte(msg)); err != nil {
		return errors.Wrap(err, "failed to send email notification")
	}
	return nil
}
