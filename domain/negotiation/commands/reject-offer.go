package commands

import (
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
)

const RejectOfferCmdType = eh.CommandType("negotiation:reject-offer")

type RejectOffer struct {
	ID uuid.UUID
	At time.Time
}

func init() {
	eh.RegisterCommand(func() eh.Command {
		return &RejectOffer{}
	})
}

func (cmd RejectOffer) AggregateID() uuid.UUID {
	return cmd.ID
}

func (cmd RejectOffer) AggregateType() eh.AggregateType {
	return domain.NegotiationAggregateType
}

func (cmd RejectOffer) CommandType() eh.CommandType {
	return RejectOfferCmdType
}
