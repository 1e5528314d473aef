package services

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/mail"
)

// Mailer accepts mail for asynchronous delivery.
type Mailer interface {
	Enqueue(email mail.Email) error
}

// Notifier renders and enqueues notification mail. Failures are logged and
// never reach the caller. A nil *Notifier drops everything.
type Notifier struct {
	content *mail.ContentBuilder
	mailer  Mailer
	log     logging.Logger
}

func NewNotifier(content *mail.ContentBuilder, mailer Mailer, log logging.Logger) *Notifier {
	return &Notifier{content: content, mailer: mailer, log: log.With("module", "notifier")}
}

// Notify sends a markdown message to recipient.
func (n *Notifier) Notify(ctx context.Context, recipient, subject, message string) {
	if n == nil {
		return
	}
	email, err := n.content.Compose(recipient, subject, message)
	if err != nil {
		n.log.Error(ctx, "compose mail", "to", recipient, "error", err)
		return
	}
	if err := n.mailer.Enqueue(email); err != nil {
		n.log.Warn(ctx, "mail not queued", "to", recipient, "subject", subject, "error", err)
	}
}
