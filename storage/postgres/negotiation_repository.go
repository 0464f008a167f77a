package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation"
	"github.com/shopspring/decimal"
)

// NegotiationRepository stores negotiation views in the negotiation_views table.
type NegotiationRepository struct {
	querier
}

var _ negotiation.ViewRepository = (*NegotiationRepository)(nil)

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{querier{pool: pool}}
}

const viewColumns = `id::text, product_id::text, initial_price::text, current_proposed_price::text, status, attempts_left,
started_at, last_offer_at, employee_response_at, cancellation_reason, version, updated_at`

func (r *NegotiationRepository) Parent() eh.ReadRepo {
	return nil
}

func (r *NegotiationRepository) Find(ctx context.Context, id uuid.UUID) (eh.Entity, error) {
	view, err := scanView(r.queryRow(ctx, `SELECT `+viewColumns+` FROM negotiation_views WHERE id = $1`, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eh.RepoError{Err: eh.ErrEntityNotFound}
		}
		return nil, fmt.Errorf("get negotiation view: %w", err)
	}
	return view, nil
}

func (r *NegotiationRepository) FindAll(ctx context.Context) ([]eh.Entity, error) {
	views, err := r.list(ctx, `SELECT `+viewColumns+` FROM negotiation_views ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	entities := make([]eh.Entity, 0, len(views))
	for _, view := range views {
		entities = append(entities, view)
	}
	return entities, nil
}

// FindByProductID returns the views of all negotiations for a product, oldest first.
func (r *NegotiationRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]*negotiation.View, error) {
	return r.list(ctx, `SELECT `+viewColumns+` FROM negotiation_views WHERE product_id = $1 ORDER BY started_at, id`, productID.String())
}

func (r *NegotiationRepository) Save(ctx context.Context, entity eh.Entity) error {
	view, ok := entity.(*negotiation.View)
	if !ok {
		return fmt.Errorf("can not save entity of type %T", entity)
	}

	const stmt = `
INSERT INTO negotiation_views (id, product_id, initial_price, current_proposed_price, status, attempts_left,
	started_at, last_offer_at, employee_response_at, cancellation_reason, version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	current_proposed_price = EXCLUDED.current_proposed_price,
	status = EXCLUDED.status,
	attempts_left = EXCLUDED.attempts_left,
	last_offer_at = EXCLUDED.last_offer_at,
	employee_response_at = EXCLUDED.employee_response_at,
	cancellation_reason = EXCLUDED.cancellation_reason,
	version = EXCLUDED.version,
	updated_at = EXCLUDED.updated_at`

	_, err := r.exec(ctx, stmt,
		view.ID.String(),
		view.ProductID.String(),
		view.InitialPrice.String(),
		view.CurrentProposedPrice.String(),
		string(view.Status),
		view.AttemptsLeft,
		view.StartedAt,
		view.LastOfferAt,
		view.EmployeeResponseAt,
		view.CancellationReason,
		view.Version,
		view.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save negotiation view: %w", err)
	}
	return nil
}

func (r *NegotiationRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.exec(ctx, `DELETE FROM negotiation_views WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("remove negotiation view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return eh.RepoError{Err: eh.ErrEntityNotFound}
	}
	return nil
}

func (r *NegotiationRepository) list(ctx context.Context, query string, args ...any) ([]*negotiation.View, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list negotiation views: %w", err)
	}
	defer rows.Close()

	views := []*negotiation.View{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("list negotiation views: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list negotiation views: %w", err)
	}
	return views, nil
}

func scanView(row pgx.Row) (*negotiation.View, error) {
	var (
		id, productID, initialPrice, currentPrice, status string
		view                                              negotiation.View
	)
	err := row.Scan(&id, &productID, &initialPrice, &currentPrice, &status, &view.AttemptsLeft,
		&view.StartedAt, &view.LastOfferAt, &view.EmployeeResponseAt, &view.CancellationReason, &view.Version, &view.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if view.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if view.ProductID, err = uuid.Parse(productID); err != nil {
		return nil, err
	}
	if view.InitialPrice, err = decimal.NewFromString(initialPrice); err != nil {
		return nil, err
	}
	if view.CurrentProposedPrice, err = decimal.NewFromString(currentPrice); err != nil {
		return nil, err
	}
	view.Status = negotiation.Status(status)
	view.StartedAt = view.StartedAt.UTC()
	view.UpdatedAt = view.UpdatedAt.UTC()
	view.LastOfferAt = utc(view.LastOfferAt)
	view.EmployeeResponseAt = utc(view.EmployeeResponseAt)
	return &view, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
