package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// SMTPSender sends multipart text and HTML mail through a relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSenderFromEnv(from string) *SMTPSender {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "587")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if msg.To == "" {
		return SendResult{}, ErrEmptyRecipient
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	id := uuid.NewString()
	body := buildMIME(s.from, id, msg)
	if err := s.send(s.addr, s.auth, envelopeAddress(s.from), []string{msg.To}, body); err != nil {
		log.Errorf("[Mail] SMTP send to %s failed: %v", msg.To, err)
		return SendResult{}, fmt.Errorf("smtp: %w", err)
	}
	return SendResult{ID: id}, nil
}

// envelopeAddress strips a display name: "Candor <a@b>" -> "a@b".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

func buildMIME(from, id string, msg Message) []byte {
	boundary := "candor-" + id
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, msg.To, msg.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@candor.so>\r\n", id)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.Text)
	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
