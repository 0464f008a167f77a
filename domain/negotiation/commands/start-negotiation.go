package commands

import (
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/shopspring/decimal"
)

const StartNegotiationCmdType = eh.CommandType("negotiation:start")

// StartNegotiation opens a negotiation for a product, seeded with the product base price.
type StartNegotiation struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	InitialPrice decimal.Decimal
	At           time.Time
}

func init() {
	eh.RegisterCommand(func() eh.Command {
		return &StartNegotiation{}
	})
}

func (cmd StartNegotiation) AggregateID() uuid.UUID {
	return cmd.ID
}

func (cmd StartNegotiation) AggregateType() eh.AggregateType {
	return domain.NegotiationAggregateType
}

func (cmd StartNegotiation) CommandType() eh.CommandType {
	return StartNegotiationCmdType
}
