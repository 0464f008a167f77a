package negotiation

// Status is the lifecycle state of a negotiation.
type Status string

const (
	PendingClientOffer = Status("PendingClientOffer")
	ClientOffered      = Status("ClientOffered")
	RejectedByEmployee = Status("RejectedByEmployee")
	AcceptedByEmployee = Status("AcceptedByEmployee")
	Cancelled          = Status("Cancelled")
)

// Statuses lists every status, in lifecycle order.
var Statuses = []Status{PendingClientOffer, ClientOffered, RejectedByEmployee, AcceptedByEmployee, Cancelled}

// Operation is a transition a client, employee or the system can request.
type Operation string

const (
	ProposePriceOp = Operation("propose-price")
	AcceptOfferOp  = Operation("accept-offer")
	RejectOfferOp  = Operation("reject-offer")
	CancelOp       = Operation("cancel")
)

var Operations = []Operation{ProposePriceOp, AcceptOfferOp, RejectOfferOp, CancelOp}

// transitions holds every legal move. Terminal statuses have no outgoing operations.
var transitions = map[Status]map[Operation]Status{
	PendingClientOffer: {
		ProposePriceOp: ClientOffered,
		CancelOp:       Cancelled,
	},
	ClientOffered: {
		AcceptOfferOp: AcceptedByEmployee,
		RejectOfferOp: RejectedByEmployee,
		CancelOp:      Cancelled,
	},
	RejectedByEmployee: {
		ProposePriceOp: ClientOffered,
		CancelOp:       Cancelled,
	},
	AcceptedByEmployee: {},
	Cancelled:          {},
}

// Next returns the status op leads to from s, and false if op is not allowed in s.
func (s Status) Next(op Operation) (Status, bool) {
	next, ok := transitions[s][op]
	return next, ok
}

// Allows reports whether op is a legal transition from s.
func (s Status) Allows(op Operation) bool {
	_, ok := s.Next(op)
	return ok
}

// Terminal reports whether no transition is possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}
