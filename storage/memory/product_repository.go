package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/product"
)

// ProductRepository keeps products in a map. It is safe for concurrent use.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]product.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: map[uuid.UUID]product.Product{}}
}

func (r *ProductRepository) Add(ctx context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[p.ID()]; exists {
		return domain.Errorf(domain.Conflict, "product with ID: %s already exists", p.ID())
	}
	r.products[p.ID()] = p
	return nil
}

func (r *ProductRepository) Find(ctx context.Context, id uuid.UUID) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return product.Product{}, domain.Errorf(domain.NotFound, "product with ID: %s not found", id)
	}
	return p, nil
}

// FindAll returns all products ordered by name.
func (r *ProductRepository) FindAll(ctx context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]product.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID().String() < products[j].ID().String()
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID()]; !ok {
		return domain.Errorf(domain.NotFound, "product with ID: %s not found", p.ID())
	}
	r.products[p.ID()] = p
	return nil
}
