package negotiation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/events"
	"github.com/shopspring/decimal"
)

// MaxAttempts is the number of offers a client may have rejected before the negotiation is cancelled.
const MaxAttempts = 3

// ClientResponseWindow is how long a client has to come up with a new offer after a rejection.
const ClientResponseWindow = 7 * 24 * time.Hour

const (
	ReasonResponseTimeExceeded = "client has exceeded response time"
	ReasonAttemptsExhausted    = "offer canceled and client is out of negotiation attempts"
	ReasonCancelled            = "negotiation canceled"
)

// Negotiation tracks one client and one employee bargaining over the price of a single product.
// It is only changed through its operations; every operation gets the current time passed in.
type Negotiation struct {
	id                   uuid.UUID
	productID            uuid.UUID
	initialPrice         decimal.Decimal
	currentProposedPrice decimal.Decimal
	status               Status
	attemptsLeft         int
	startedAt            time.Time
	lastOfferAt          *time.Time
	employeeResponseAt   *time.Time
	cancellationReason   string
}

// New starts a negotiation for a product at its initial price.
func New(productID uuid.UUID, initialPrice decimal.Decimal, now time.Time) *Negotiation {
	return start(uuid.New(), productID, initialPrice, now)
}

func start(id uuid.UUID, productID uuid.UUID, initialPrice decimal.Decimal, now time.Time) *Negotiation {
	return &Negotiation{
		id:                   id,
		productID:            productID,
		initialPrice:         initialPrice,
		currentProposedPrice: initialPrice,
		status:               PendingClientOffer,
		attemptsLeft:         MaxAttempts,
		startedAt:            now,
	}
}

func (n *Negotiation) ID() uuid.UUID                         { return n.id }
func (n *Negotiation) ProductID() uuid.UUID                  { return n.productID }
func (n *Negotiation) InitialPrice() decimal.Decimal         { return n.initialPrice }
func (n *Negotiation) CurrentProposedPrice() decimal.Decimal { return n.currentProposedPrice }
func (n *Negotiation) Status() Status                        { return n.status }
func (n *Negotiation) AttemptsLeft() int                     { return n.attemptsLeft }
func (n *Negotiation) StartedAt() time.Time                  { return n.startedAt }
func (n *Negotiation) CancellationReason() string            { return n.cancellationReason }

func (n *Negotiation) LastOfferAt() *time.Time {
	return copyTime(n.lastOfferAt)
}

func (n *Negotiation) EmployeeResponseAt() *time.Time {
	return copyTime(n.employeeResponseAt)
}

// ProposePrice records a new client offer.
// When the client let the response window pass after a rejection the negotiation is cancelled and
// ErrResponseTimeExceeded is returned; that is the only failure that changes the negotiation.
func (n *Negotiation) ProposePrice(price decimal.Decimal, now time.Time) error {
	if n.attemptsLeft <= 0 {
		return domain.Errorf(domain.AttemptsExceeded, "you cannot negotiate more, all %d attempts have been used", MaxAttempts)
	}
	if !n.status.Allows(ProposePriceOp) {
		return domain.Errorf(domain.InvalidState, "offer status is %s, you can not negotiate now", n.status)
	}
	if !price.IsPositive() {
		return domain.Errorf(domain.InvalidPrice, "proposed price has to be more than 0")
	}
	if n.status == RejectedByEmployee && n.lastOfferAt != nil && n.responseWindowExceeded(now) {
		n.cancel(ReasonResponseTimeExceeded)
		return domain.Errorf(domain.ResponseTimeExceeded, "client has exceeded response time, negotiation has been canceled")
	}

	n.recordProposal(price, now)
	return nil
}

func (n *Negotiation) AcceptOffer(now time.Time) error {
	if !n.status.Allows(AcceptOfferOp) {
		return domain.Errorf(domain.InvalidState, "can not accept, negotiation state is %s", n.status)
	}
	n.recordAcceptance(now)
	return nil
}

// RejectOffer uses up one attempt. Rejecting the last attempt cancels the negotiation without an error.
func (n *Negotiation) RejectOffer(now time.Time) error {
	if !n.status.Allows(RejectOfferOp) {
		return domain.Errorf(domain.InvalidState, "can not reject, negotiation state is %s", n.status)
	}
	n.recordRejection(n.attemptsLeft-1, now)
	if n.attemptsLeft <= 0 {
		n.cancel(ReasonAttemptsExhausted)
	}
	return nil
}

// Cancel ends the negotiation. A blank reason is recorded as ReasonCancelled.
func (n *Negotiation) Cancel(reason string) error {
	if !n.status.Allows(CancelOp) {
		return domain.Errorf(domain.InvalidState, "negotiation has already been accepted or canceled")
	}
	if strings.TrimSpace(reason) == "" {
		reason = ReasonCancelled
	}
	n.cancel(reason)
	return nil
}

// CanClientProposeNewPrice reports whether the client is the one expected to act.
func (n *Negotiation) CanClientProposeNewPrice() bool {
	return n.status == PendingClientOffer || n.status == RejectedByEmployee
}

// IsExpiredForClientResponse reports whether a rejected client waited too long to make a new offer.
// Expiry is only enforced by ProposePrice.
func (n *Negotiation) IsExpiredForClientResponse(now time.Time) bool {
	return n.status == RejectedByEmployee && n.responseWindowExceeded(now)
}

func (n *Negotiation) responseWindowExceeded(now time.Time) bool {
	return n.employeeResponseAt != nil && now.Sub(*n.employeeResponseAt) > ClientResponseWindow
}

// Apply replays a recorded event onto the negotiation.
func (n *Negotiation) Apply(event eh.Event) error {
	switch event.EventType() {
	case events.NegotiationStarted:
		data, ok := event.Data().(*events.StartedData)
		if !ok {
			return invalidEventData(event)
		}
		*n = *start(event.AggregateID(), data.ProductID, data.InitialPrice, event.Timestamp())
	case events.PriceProposed:
		data, ok := event.Data().(*events.PriceProposedData)
		if !ok {
			return invalidEventData(event)
		}
		n.recordProposal(data.Price, event.Timestamp())
	case events.OfferAccepted:
		n.recordAcceptance(event.Timestamp())
	case events.OfferRejected:
		data, ok := event.Data().(*events.OfferRejectedData)
		if !ok {
			return invalidEventData(event)
		}
		n.recordRejection(data.AttemptsLeft, event.Timestamp())
	case events.NegotiationCancelled:
		data, ok := event.Data().(*events.CancelledData)
		if !ok {
			return invalidEventData(event)
		}
		n.cancel(data.Reason)
	default:
		return fmt.Errorf("[Negotiation] could not apply event: %s", event.EventType())
	}
	return nil
}

func (n *Negotiation) recordProposal(price decimal.Decimal, at time.Time) {
	n.currentProposedPrice = price
	n.status = ClientOffered
	n.lastOfferAt = &at
}

func (n *Negotiation) recordAcceptance(at time.Time) {
	n.status = AcceptedByEmployee
	n.employeeResponseAt = &at
}

func (n *Negotiation) recordRejection(attemptsLeft int, at time.Time) {
	n.attemptsLeft = attemptsLeft
	n.status = RejectedByEmployee
	n.employeeResponseAt = &at
}

func (n *Negotiation) cancel(reason string) {
	n.status = Cancelled
	n.cancellationReason = reason
}

func invalidEventData(event eh.Event) error {
	return fmt.Errorf("[Negotiation] invalid event data for %s: %T", event.EventType(), event.Data())
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
