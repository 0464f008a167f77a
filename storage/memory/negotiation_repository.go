package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	repoMemory "github.com/looplab/eventhorizon/repo/memory"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation"
)

// NegotiationRepository is the in-memory eventhorizon repo for negotiation views, with a lookup per product.
type NegotiationRepository struct {
	*repoMemory.Repo
}

var _ negotiation.ViewRepository = (*NegotiationRepository)(nil)

func NewNegotiationRepository() *NegotiationRepository {
	return &NegotiationRepository{Repo: repoMemory.NewRepo()}
}

// FindByProductID returns the views of all negotiations for a product, oldest first and then by id.
func (r *NegotiationRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]*negotiation.View, error) {
	entities, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list negotiations: %w", err)
	}

	views := []*negotiation.View{}
	for _, entity := range entities {
		view, ok := entity.(*negotiation.View)
		if !ok || view.ProductID != productID {
			continue
		}
		c := *view
		views = append(views, &c)
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].StartedAt.Equal(views[j].StartedAt) {
			return views[i].StartedAt.Before(views[j].StartedAt)
		}
		return views[i].ID.String() < views[j].ID.String()
	})
	return views, nil
}
