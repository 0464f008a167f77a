package commands

import (
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/shopspring/decimal"
)

const ProposePriceCmdType = eh.CommandType("negotiation:propose-price")

type ProposePrice struct {
	ID    uuid.UUID
	Price decimal.Decimal
	At    time.Time
}

func init() {
	eh.RegisterCommand(func() eh.Command {
		return &ProposePrice{}
	})
}

func (cmd ProposePrice) AggregateID() uuid.UUID {
	return cmd.ID
}

func (cmd ProposePrice) AggregateType() eh.AggregateType {
	return domain.NegotiationAggregateType
}

func (cmd ProposePrice) CommandType() eh.CommandType {
	return ProposePriceCmdType
}
