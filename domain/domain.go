package domain

import (
	eh "github.com/looplab/eventhorizon"
)

const NegotiationAggregateType = eh.AggregateType("negotiation")
