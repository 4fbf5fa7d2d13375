package mail

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// DryRunSender logs and records messages instead of delivering them.
type DryRunSender struct {
	mu   sync.Mutex
	sent []Message
	// Fail, when set, can reject a message before it is recorded.
	Fail func(msg Message) error
}

func NewDryRunSender() *DryRunSender {
	return &DryRunSender{}
}

func (s *DryRunSender) Send(_ context.Context, msg Message) (SendResult, error) {
	if msg.To == "" {
		return SendResult{}, ErrEmptyRecipient
	}
	if s.Fail != nil {
		if err := s.Fail(msg); err != nil {
			return SendResult{}, err
		}
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	log.Infof("[Mail] (dry run) to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Text)
	return SendResult{ID: "dev_" + uuid.NewString()}, nil
}

// Sent returns a copy of every recorded message.
func (s *DryRunSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
