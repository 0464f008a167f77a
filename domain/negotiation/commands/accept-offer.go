package commands

import (
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
)

const AcceptOfferCmdType = eh.CommandType("negotiation:accept-offer")

type AcceptOffer struct {
	ID uuid.UUID
	At time.Time
}

func init() {
	eh.RegisterCommand(func() eh.Command {
		return &AcceptOffer{}
	})
}

func (cmd AcceptOffer) AggregateID() uuid.UUID {
	return cmd.ID
}

func (cmd AcceptOffer) AggregateType() eh.AggregateType {
	return domain.NegotiationAggregateType
}

func (cmd AcceptOffer) CommandType() eh.CommandType {
	return AcceptOfferCmdType
}
