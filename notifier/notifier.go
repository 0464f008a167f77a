package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/events"
)

const (
	Client   = "client"
	Employee = "employee"
)

// Notification tells one party of a negotiation that something happened to it.
type Notification struct {
	NegotiationID uuid.UUID
	Event         eh.EventType
	Recipient     string
	Subject       string
	Body          string
}

// Notifier hands a notification over to a delivery channel. Delivery itself is not guaranteed.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type template struct {
	recipient string
	subject   string
	body      string
}

var templates = map[eh.EventType]template{
	events.NegotiationStarted: {
		recipient: Employee,
		subject:   "Negotiation {{id}} started",
		body:      "A client started negotiating product {{productId}}, listed at {{initialPrice}}.",
	},
	events.PriceProposed: {
		recipient: Employee,
		subject:   "New offer in negotiation {{id}}",
		body:      "The client proposed {{price}}. Accept or reject the offer.",
	},
	events.OfferAccepted: {
		recipient: Client,
		subject:   "Your offer in negotiation {{id}} was accepted",
		body:      "The employee accepted your offer at {{timestamp}}.",
	},
	events.OfferRejected: {
		recipient: Client,
		subject:   "Your offer in negotiation {{id}} was rejected",
		body:      "{{#canPropose}}You have {{attemptsLeft}} attempt(s) left, propose a new price before {{deadline}}.{{/canPropose}}{{^canPropose}}You have no attempts left.{{/canPropose}}",
	},
	events.NegotiationCancelled: {
		recipient: Client,
		subject:   "Negotiation {{id}} was cancelled",
		body:      "Reason: {{{reason}}}",
	},
}

// EventHandler renders a notification for every negotiation event and passes it to a Notifier.
type EventHandler struct {
	notifier       Notifier
	responseWindow time.Duration
}

// NewEventHandler creates an EventHandler. responseWindow is used to tell a client when its next offer is due.
func NewEventHandler(notifier Notifier, responseWindow time.Duration) *EventHandler {
	return &EventHandler{notifier: notifier, responseWindow: responseWindow}
}

func (h *EventHandler) HandlerType() eh.EventHandlerType {
	return eh.EventHandlerType("notifier")
}

func (h *EventHandler) HandleEvent(ctx context.Context, event eh.Event) error {
	t, ok := templates[event.EventType()]
	if !ok {
		return nil
	}

	notification, err := render(t, h.viewModel(event))
	if err != nil {
		return fmt.Errorf("could not render notification for %s: %w", event.EventType(), err)
	}
	notification.NegotiationID = event.AggregateID()
	notification.Event = event.EventType()

	return h.notifier.Notify(ctx, notification)
}

func (h *EventHandler) viewModel(event eh.Event) map[string]interface{} {
	viewModel := map[string]interface{}{
		"id":        event.AggregateID().String(),
		"timestamp": event.Timestamp().Format(time.RFC3339),
	}

	switch data := event.Data().(type) {
	case *events.StartedData:
		viewModel["productId"] = data.ProductID.String()
		viewModel["initialPrice"] = data.InitialPrice.String()
	case *events.PriceProposedData:
		viewModel["price"] = data.Price.String()
	case *events.OfferRejectedData:
		viewModel["attemptsLeft"] = data.AttemptsLeft
		viewModel["canPropose"] = data.AttemptsLeft > 0
		viewModel["deadline"] = event.Timestamp().Add(h.responseWindow).Format(time.RFC3339)
	case *events.CancelledData:
		viewModel["reason"] = data.Reason
	}
	return viewModel
}

func render(t template, viewModel map[string]interface{}) (Notification, error) {
	subject, err := mustache.Render(t.subject, viewModel)
	if err != nil {
		return Notification{}, err
	}
	body, err := mustache.Render(t.body, viewModel)
	if err != nil {
		return Notification{}, err
	}
	return Notification{Recipient: t.recipient, Subject: subject, Body: body}, nil
}
