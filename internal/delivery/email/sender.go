package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Coritp27/sysga-sub002/internal/delivery"
)

// Sender delivers OTP email over plain SMTP. Provider-specific transports
// (SendGrid, SES) slot in behind the same delivery.Channel contract.
type Sender struct {
	addr string // host:port
	from string
}

func New(addr, from string) *Sender {
	return &Sender{addr: addr, from: from}
}

func (s *Sender) Kind() delivery.Kind { return delivery.KindEmail }

// Send submits the message to the SMTP relay. A malformed address is a
// business rejection; relay trouble is a transport failure the dispatcher may
// retry.
func (s *Sender) Send(ctx context.Context, target string, msg delivery.Message) error {
	if s.addr == "" {
		return fmt.Errorf("email: SMTP relay not configured")
	}
	if !strings.Contains(target, "@") {
		return fmt.Errorf("%w: malformed email address", delivery.ErrInvalidTarget)
	}

	payload := []byte("From: " + s.from + "\r\n" +
		"To: " + target + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"\r\n" +
		msg.Body + "\r\n")

	// net/smtp has no context support; run the send in a goroutine so the
	// dispatcher's per-attempt timeout still bounds the call.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, nil, s.from, []string{target}, payload)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
