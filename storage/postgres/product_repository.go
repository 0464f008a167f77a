package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/product"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	querier
}

var _ product.Repository = (*ProductRepository)(nil)

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{querier{pool: pool}}
}

func (r *ProductRepository) Add(ctx context.Context, p product.Product) error {
	const stmt = `INSERT INTO products (id, name, base_price) VALUES ($1, $2, $3)`

	_, err := r.exec(ctx, stmt, p.ID().String(), p.Name, p.BasePrice.String())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Errorf(domain.Conflict, "product with ID: %s already exists", p.ID())
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Find(ctx context.Context, id uuid.UUID) (product.Product, error) {
	const query = `SELECT id::text, name, base_price::text FROM products WHERE id = $1`

	p, err := scanProduct(r.queryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, domain.Errorf(domain.NotFound, "product with ID: %s not found", id)
		}
		return product.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]product.Product, error) {
	const query = `SELECT id::text, name, base_price::text FROM products ORDER BY name, id`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p product.Product) error {
	const stmt = `UPDATE products SET name = $2, base_price = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, p.ID().String(), p.Name, p.BasePrice.String())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.NotFound, "product with ID: %s not found", p.ID())
	}
	return nil
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var id, name, basePrice string
	if err := row.Scan(&id, &name, &basePrice); err != nil {
		return product.Product{}, err
	}
	productID, err := uuid.Parse(id)
	if err != nil {
		return product.Product{}, err
	}
	price, err := decimal.NewFromString(basePrice)
	if err != nil {
		return product.Product{}, err
	}
	return product.Restore(productID, name, price), nil
}
