// Package mail delivers rendered emails through Resend, SMTP or a dry-run
// recorder.
package mail

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
)

const DefaultFrom = "Candor <weekly@candor.so>"

var ErrEmptyRecipient = errors.New("mail: empty recipient")

// Message is one outgoing email with both bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// SendResult carries the provider message id of an accepted send.
type SendResult struct {
	ID string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// NewSenderFromEnv picks the transport: dry run in dev, Resend when
// RESEND_API_KEY is set, SMTP when SMTP_HOST is set, dry run otherwise.
func NewSenderFromEnv() Sender {
	from := env.GetEnv("MAIL_FROM", DefaultFrom)

	switch {
	case env.IsDev() || env.GetBool("MAIL_DRY_RUN", false):
		log.Info("[Mail] Using dry-run sender")
		return NewDryRunSender()
	case env.GetEnv("RESEND_API_KEY", "") != "":
		log.Info("[Mail] Using Resend sender")
		return NewResendSender(env.GetEnv("RESEND_API_KEY", ""), from)
	case env.GetEnv("SMTP_HOST", "") != "":
		log.Info("[Mail] Using SMTP sender")
		return NewSMTPSenderFromEnv(from)
	default:
		log.Warn("[Mail] No transport configured, using dry-run sender")
		return NewDryRunSender()
	}
}
