package events

import (
	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/shopspring/decimal"
)

const NegotiationStarted = eh.EventType("negotiation:started")
const PriceProposed = eh.EventType("negotiation:price-proposed")
const OfferAccepted = eh.EventType("negotiation:offer-accepted")
const OfferRejected = eh.EventType("negotiation:offer-rejected")
const NegotiationCancelled = eh.EventType("negotiation:cancelled")

// NegotiationEvents lists every event a negotiation aggregate can emit.
var NegotiationEvents = []eh.EventType{
	NegotiationStarted,
	PriceProposed,
	OfferAccepted,
	OfferRejected,
	NegotiationCancelled,
}

type StartedData struct {
	ProductID    uuid.UUID       `json:"productId"`
	InitialPrice decimal.Decimal `json:"initialPrice"`
}

type PriceProposedData struct {
	Price decimal.Decimal `json:"price"`
}

type OfferRejectedData struct {
	AttemptsLeft int `json:"attemptsLeft"`
}

type CancelledData struct {
	Reason string `json:"reason"`
}

func init() {
	eh.RegisterEventData(NegotiationStarted, func() eh.EventData {
		return &StartedData{}
	})
	eh.RegisterEventData(PriceProposed, func() eh.EventData {
		return &PriceProposedData{}
	})
	eh.RegisterEventData(OfferRejected, func() eh.EventData {
		return &OfferRejectedData{}
	})
	eh.RegisterEventData(NegotiationCancelled, func() eh.EventData {
		return &CancelledData{}
	})
}
