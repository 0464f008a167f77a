package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/looplab/eventhorizon/aggregatestore/events"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	domainEvents "github.com/nuts-foundation/nuts-negotiation-service/domain/events"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation/commands"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/logger"
)

func init() {
	eh.RegisterAggregate(func(id uuid.UUID) eh.Aggregate {
		return NewNegotiationAggregate(id)
	})
}

// NegotiationAggregate is the consistency boundary of a single negotiation.
// Commands are validated against a copy of the current state; state itself only changes in ApplyEvent.
type NegotiationAggregate struct {
	*events.AggregateBase

	negotiation *Negotiation
	updatedAt   time.Time
}

func NewNegotiationAggregate(id uuid.UUID) *NegotiationAggregate {
	return &NegotiationAggregate{
		AggregateBase: events.NewAggregateBase(domain.NegotiationAggregateType, id),
	}
}

func (a *NegotiationAggregate) HandleCommand(ctx context.Context, command eh.Command) error {
	logger.Logger().Debugf("[NegotiationAggregate] command: %v, %+v", command.CommandType(), command)

	switch cmd := command.(type) {
	case *commands.StartNegotiation:
		if a.negotiation != nil {
			return domain.Errorf(domain.InvalidState, "negotiation %s has already been started", a.EntityID())
		}
		a.StoreEvent(domainEvents.NegotiationStarted, &domainEvents.StartedData{
			ProductID:    cmd.ProductID,
			InitialPrice: cmd.InitialPrice,
		}, cmd.At)

	case *commands.ProposePrice:
		n, err := a.current()
		if err != nil {
			return err
		}
		if err := n.ProposePrice(cmd.Price, cmd.At); err != nil {
			if domain.KindOf(err) == domain.ResponseTimeExceeded {
				a.StoreEvent(domainEvents.NegotiationCancelled, &domainEvents.CancelledData{Reason: n.CancellationReason()}, cmd.At)
			}
			return err
		}
		a.StoreEvent(domainEvents.PriceProposed, &domainEvents.PriceProposedData{Price: cmd.Price}, cmd.At)

	case *commands.AcceptOffer:
		n, err := a.current()
		if err != nil {
			return err
		}
		if err := n.AcceptOffer(cmd.At); err != nil {
			return err
		}
		a.StoreEvent(domainEvents.OfferAccepted, nil, cmd.At)

	case *commands.RejectOffer:
		n, err := a.current()
		if err != nil {
			return err
		}
		if err := n.RejectOffer(cmd.At); err != nil {
			return err
		}
		a.StoreEvent(domainEvents.OfferRejected, &domainEvents.OfferRejectedData{AttemptsLeft: n.AttemptsLeft()}, cmd.At)
		if n.Status() == Cancelled {
			a.StoreEvent(domainEvents.NegotiationCancelled, &domainEvents.CancelledData{Reason: n.CancellationReason()}, cmd.At)
		}

	case *commands.CancelNegotiation:
		n, err := a.current()
		if err != nil {
			return err
		}
		if err := n.Cancel(cmd.Reason); err != nil {
			return err
		}
		a.StoreEvent(domainEvents.NegotiationCancelled, &domainEvents.CancelledData{Reason: n.CancellationReason()}, cmd.At)

	default:
		return fmt.Errorf("[NegotiationAggregate] could not handle command '%s': %w", command.CommandType(), domain.ErrUnknownCommand)
	}
	return nil
}

func (a *NegotiationAggregate) ApplyEvent(ctx context.Context, event eh.Event) error {
	logger.Logger().Debugf("[NegotiationAggregate] event: %+v", event)
	if a.negotiation == nil {
		a.negotiation = &Negotiation{}
	}
	a.updatedAt = event.Timestamp()
	return a.negotiation.Apply(event)
}

// Negotiation returns a copy of the current state, or false when the negotiation was never started.
func (a *NegotiationAggregate) Negotiation() (*Negotiation, bool) {
	if a.negotiation == nil {
		return nil, false
	}
	n := *a.negotiation
	return &n, true
}

// current returns a copy of the state commands can be tried on.
func (a *NegotiationAggregate) current() (*Negotiation, error) {
	n, ok := a.Negotiation()
	if !ok {
		return nil, domain.Errorf(domain.NotFound, "negotiation with ID: %s not found", a.EntityID())
	}
	return n, nil
}
