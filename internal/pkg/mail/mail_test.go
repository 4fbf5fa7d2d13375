package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunSenderRecords(t *testing.T) {
	s := NewDryRunSender()
	res, err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Text: "body"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ID, "dev_"))
	require.Len(t, s.Sent(), 1)
	assert.Equal(t, "Hi", s.Sent()[0].Subject)

	_, err = s.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrEmptyRecipient)
}

func TestDryRunSenderFailHook(t *testing.T) {
	boom := errors.New("rejected")
	s := NewDryRunSender()
	s.Fail = func(m Message) error {
		if m.To == "bad@example.com" {
			return boom
		}
		return nil
	}

	_, err := s.Send(context.Background(), Message{To: "bad@example.com"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Sent())
}

func TestSMTPSenderBuildsMultipart(t *testing.T) {
	var gotFrom string
	var gotTo []string
	var gotMsg []byte
	s := &SMTPSender{
		addr: "localhost:2525",
		from: DefaultFrom,
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotFrom, gotTo, gotMsg = from, to, msg
			return nil
		},
	}

	res, err := s.Send(context.Background(), Message{
		To: "founder@example.com", Subject: "Weekly", Text: "plain body", HTML: "<p>html body</p>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "weekly@candor.so", gotFrom)
	assert.Equal(t, []string{"founder@example.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "Subject: Weekly\r\n")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain; charset=UTF-8\r\n\r\nplain body")
	assert.Contains(t, raw, "text/html; charset=UTF-8\r\n\r\n<p>html body</p>")
}

func TestSMTPSenderWrapsErrors(t *testing.T) {
	boom := errors.New("relay refused")
	s := &SMTPSender{from: "a@b.c", send: func(string, smtp.Auth, string, []string, []byte) error { return boom }}
	_, err := s.Send(context.Background(), Message{To: "x@y.z"})
	assert.ErrorIs(t, err, boom)
}

func TestNewSenderFromEnv(t *testing.T) {
	env.Env = map[string]string{"APP_ENV": "dev", "RESEND_API_KEY": "re_123"}
	t.Cleanup(func() { env.Env = nil })
	assert.IsType(t, &DryRunSender{}, NewSenderFromEnv())

	env.Env = map[string]string{"APP_ENV": "prod", "RESEND_API_KEY": "re_123"}
	assert.IsType(t, &ResendSender{}, NewSenderFromEnv())

	env.Env = map[string]string{"APP_ENV": "prod", "SMTP_HOST": "smtp.example.com"}
	assert.IsType(t, &SMTPSender{}, NewSenderFromEnv())
}
