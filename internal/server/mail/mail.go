// Package mail composes and delivers notification emails. Delivery runs on a
// bounded worker pool so request handlers never wait on SMTP.
package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophreddit/internal/logging"
)

// Email is a single outgoing message. Body is HTML.
type Email struct {
	Subject   string
	Recipient string
	Body      string
}

var (
	ErrQueueFull        = errors.New("mail queue is full")
	ErrDispatcherClosed = errors.New("mail dispatcher is closed")
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// LogSender writes mail to the log instead of sending it.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.Recipient) == "" {
		return errors.New("empty recipient")
	}
	s.log.Info(ctx, "mail", "to", email.Recipient, "subject", email.Subject, "body", email.Body)
	return nil
}
