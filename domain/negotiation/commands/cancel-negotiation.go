package commands

import (
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
)

const CancelNegotiationCmdType = eh.CommandType("negotiation:cancel")

type CancelNegotiation struct {
	ID     uuid.UUID
	Reason string `eh:"optional"`
	At     time.Time
}

func init() {
	eh.RegisterCommand(func() eh.Command {
		return &CancelNegotiation{}
	})
}

func (cmd CancelNegotiation) AggregateID() uuid.UUID {
	return cmd.ID
}

func (cmd CancelNegotiation) AggregateType() eh.AggregateType {
	return domain.NegotiationAggregateType
}

func (cmd CancelNegotiation) CommandType() eh.CommandType {
	return CancelNegotiationCmdType
}
