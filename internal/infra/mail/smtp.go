package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domorder "example.com/framed-prints/internal/domain/order"
	"example.com/framed-prints/pkg/logger"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers orders through a plain SMTP relay such as Mailpit.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	log  *zap.Logger
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer returns a mailer for addr. auth may be nil for local relays.
func NewSMTPMailer(addr string, auth smtp.Auth, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr: addr,
		auth: auth,
		log:  logger.OrNop(log).Named("mail"),
		send: smtp.SendMail,
		now:  time.Now,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg domorder.Message) error {
	raw, err := m.build(msg)
	if err != nil {
		return err
	}

	// net/smtp has no context support; the send is abandoned, not aborted,
	// when ctx ends first.
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, msg.From, msg.To, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			m.log.Error("order mail failed", zap.String("smtp", m.addr), zap.Error(err))
			return fmt.Errorf("send mail: %w", err)
		}
		m.log.Info("order mail sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SMTPMailer) build(msg domorder.Message) ([]byte, error) {
	if _, err := mail.ParseAddress(msg.From); err != nil {
		return nil, fmt.Errorf("sender %q: %w", msg.From, err)
	}
	if len(msg.To) == 0 {
		return nil, domorder.ErrInvalidRecipient
	}
	for _, to := range msg.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return nil, fmt.Errorf("%q: %w", to, domorder.ErrInvalidRecipient)
		}
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, fmt.Errorf("subject contains a line break")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@framed-prints>\r\n", uuid.NewString())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes(), nil
}
