package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"cardreturn/internal/card/models"
)

// SMTPNotifier delivers over a plain SMTP relay. The dial and I/O share one
// deadline so a stuck relay reads as a failed notification, not a hung
// intake.
type SMTPNotifier struct {
	addr    string
	from    string
	timeout time.Duration
}

func NewSMTPNotifier(addr, from string, timeout time.Duration) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from, timeout: timeout}
}

func (n *SMTPNotifier) Notify(ctx context.Context, owner Owner, card models.Card) error {
	subject, body := Compose(owner, card)

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.DialTimeout("tcp", n.addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial smtp relay: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	host := n.addr
	if h, _, err := net.SplitHostPort(n.addr); err == nil {
		host = h
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(owner.Email); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + owner.Email,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}
