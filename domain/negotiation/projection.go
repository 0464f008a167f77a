package negotiation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/looplab/eventhorizon/eventhandler/projector"
	"github.com/shopspring/decimal"
)

// View is the read model of a negotiation.
type View struct {
	ID                   uuid.UUID
	ProductID            uuid.UUID
	InitialPrice         decimal.Decimal
	CurrentProposedPrice decimal.Decimal
	Status               Status
	AttemptsLeft         int
	StartedAt            time.Time
	LastOfferAt          *time.Time
	EmployeeResponseAt   *time.Time
	CancellationReason   string
	Version              int
	UpdatedAt            time.Time
}

var _ = eh.Versionable(&View{})
var _ = eh.Entity(&View{})

func (v View) AggregateVersion() int {
	return v.Version
}

func (v View) EntityID() uuid.UUID {
	return v.ID
}

func (v View) CanClientProposeNewPrice() bool {
	return v.negotiation().CanClientProposeNewPrice()
}

func (v View) IsExpiredForClientResponse(now time.Time) bool {
	return v.negotiation().IsExpiredForClientResponse(now)
}

// View returns the read model of n at the given aggregate version.
func (n *Negotiation) View(version int, updatedAt time.Time) View {
	return View{
		ID:                   n.id,
		ProductID:            n.productID,
		InitialPrice:         n.initialPrice,
		CurrentProposedPrice: n.currentProposedPrice,
		Status:               n.status,
		AttemptsLeft:         n.attemptsLeft,
		StartedAt:            n.startedAt,
		LastOfferAt:          copyTime(n.lastOfferAt),
		EmployeeResponseAt:   copyTime(n.employeeResponseAt),
		CancellationReason:   n.cancellationReason,
		Version:              version,
		UpdatedAt:            updatedAt,
	}
}

func (v View) negotiation() *Negotiation {
	return &Negotiation{
		id:                   v.ID,
		productID:            v.ProductID,
		initialPrice:         v.InitialPrice,
		currentProposedPrice: v.CurrentProposedPrice,
		status:               v.Status,
		attemptsLeft:         v.AttemptsLeft,
		startedAt:            v.StartedAt,
		lastOfferAt:          copyTime(v.LastOfferAt),
		employeeResponseAt:   copyTime(v.EmployeeResponseAt),
		cancellationReason:   v.CancellationReason,
	}
}

// View returns the read model of the aggregate's current state.
func (a *NegotiationAggregate) View() (View, bool) {
	if a.negotiation == nil {
		return View{}, false
	}
	return a.negotiation.View(a.Version(), a.updatedAt), true
}

// ViewRepository stores negotiation views and can list them per product.
type ViewRepository interface {
	eh.ReadWriteRepo
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]*View, error)
}

// Projector keeps the View of a negotiation up to date, using the same event replay as the aggregate.
type Projector struct {
}

func (p Projector) Project(ctx context.Context, event eh.Event, entity eh.Entity) (eh.Entity, error) {
	model, ok := entity.(*View)
	if !ok {
		return nil, errors.New("model is of incorrect type")
	}

	n := model.negotiation()
	if err := n.Apply(event); err != nil {
		return nil, err
	}
	// model may be shared with readers of the repo and is never modified
	view := n.View(model.Version+1, event.Timestamp())
	return &view, nil
}

func (p Projector) ProjectorType() projector.Type {
	return projector.Type("negotiation-projector")
}
