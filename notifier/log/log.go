package log

import (
	"context"

	"github.com/nuts-foundation/nuts-negotiation-service/notifier"
	"github.com/sirupsen/logrus"
)

// Notifier writes notifications to the log instead of sending them.
type Notifier struct {
	entry *logrus.Entry
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(entry *logrus.Entry) *Notifier {
	return &Notifier{entry: entry}
}

func (n *Notifier) Notify(ctx context.Context, notification notifier.Notification) error {
	n.entry.WithFields(logrus.Fields{
		"negotiation": notification.NegotiationID,
		"event":       notification.Event,
		"recipient":   notification.Recipient,
	}).Infof("%s: %s", notification.Subject, notification.Body)
	return nil
}
