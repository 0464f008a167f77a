package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item negotiations are held over. Its identifier never changes.
type Product struct {
	id        uuid.UUID
	Name      string
	BasePrice decimal.Decimal
}

func New(name string, basePrice decimal.Decimal) Product {
	return Product{id: uuid.New(), Name: name, BasePrice: basePrice}
}

// Restore recreates a stored product.
func Restore(id uuid.UUID, name string, basePrice decimal.Decimal) Product {
	return Product{id: id, Name: name, BasePrice: basePrice}
}

func (p Product) ID() uuid.UUID {
	return p.id
}

// Update replaces name and price.
func (p *Product) Update(name string, basePrice decimal.Decimal) {
	p.Name = name
	p.BasePrice = basePrice
}

// Repository stores products. Find returns an error of kind domain.NotFound for unknown products.
type Repository interface {
	Add(ctx context.Context, product Product) error
	Find(ctx context.Context, id uuid.UUID) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, product Product) error
}
