package logger

import (
	"context"

	eh "github.com/looplab/eventhorizon"
	"github.com/sirupsen/logrus"
)

func Logger() *logrus.Entry {
	return logrus.StandardLogger().WithField("module", "negotiation-service")
}

// EventLogger observes the event bus and logs every event at debug level.
type EventLogger struct{}

func (e EventLogger) HandlerType() eh.EventHandlerType {
	return eh.EventHandlerType("EventLogger")
}

func (e EventLogger) HandleEvent(ctx context.Context, event eh.Event) error {
	Logger().WithFields(logrus.Fields{
		"aggregate": event.AggregateID(),
		"version":   event.Version(),
	}).Debugf("[Eventlogger]: %s", event.EventType())
	return nil
}
