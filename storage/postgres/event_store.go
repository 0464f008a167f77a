package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
)

var ErrNoEventsToSave = errors.New("no events to save")

// EventStore is an eventhorizon event store backed by the events table.
// Versions are unique per aggregate, so two writers that loaded the same version cannot both save.
type EventStore struct {
	querier
}

var _ eh.EventStore = (*EventStore)(nil)

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{querier{pool: pool}}
}

func (s *EventStore) Save(ctx context.Context, events []eh.Event, originalVersion int) error {
	if len(events) == 0 {
		return ErrNoEventsToSave
	}
	aggregateID := events[0].AggregateID()

	return withTx(ctx, s.pool, func(ctx context.Context) error {
		var current int
		if err := s.queryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1`, aggregateID.String()).Scan(&current); err != nil {
			return fmt.Errorf("read aggregate version: %w", err)
		}
		if current != originalVersion {
			return versionConflict(aggregateID, originalVersion, current)
		}

		const stmt = `
INSERT INTO events (aggregate_id, aggregate_type, version, event_type, data, timestamp)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)`

		for i, event := range events {
			if event.AggregateID() != aggregateID || event.Version() != originalVersion+i+1 {
				return fmt.Errorf("invalid event %s for aggregate %s at version %d", event.EventType(), event.AggregateID(), event.Version())
			}
			data, err := marshalEventData(event)
			if err != nil {
				return err
			}
			_, err = s.exec(ctx, stmt,
				aggregateID.String(),
				string(event.AggregateType()),
				event.Version(),
				string(event.EventType()),
				data,
				event.Timestamp(),
			)
			if err != nil {
				if isUniqueViolation(err) {
					return versionConflict(aggregateID, originalVersion, event.Version())
				}
				return fmt.Errorf("store event %s: %w", event.EventType(), err)
			}
		}
		return nil
	})
}

// Load returns all events of an aggregate in version order; an unknown aggregate has none.
func (s *EventStore) Load(ctx context.Context, id uuid.UUID) ([]eh.Event, error) {
	const query = `
SELECT aggregate_type, version, event_type, data::text, timestamp
FROM events
WHERE aggregate_id = $1
ORDER BY version`

	rows, err := s.query(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	events := []eh.Event{}
	for rows.Next() {
		var (
			aggregateType, eventType string
			version                  int
			data                     *string
			timestamp                time.Time
		)
		if err := rows.Scan(&aggregateType, &version, &eventType, &data, &timestamp); err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		eventData, err := unmarshalEventData(eh.EventType(eventType), data)
		if err != nil {
			return nil, err
		}
		events = append(events, eh.NewEventForAggregate(eh.EventType(eventType), eventData, timestamp.UTC(), eh.AggregateType(aggregateType), id, version))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return events, nil
}

func marshalEventData(event eh.Event) (*string, error) {
	if event.Data() == nil {
		return nil, nil
	}
	b, err := json.Marshal(event.Data())
	if err != nil {
		return nil, fmt.Errorf("could not marshal data of %s: %w", event.EventType(), err)
	}
	data := string(b)
	return &data, nil
}

func unmarshalEventData(eventType eh.EventType, data *string) (eh.EventData, error) {
	if data == nil {
		return nil, nil
	}
	eventData, err := eh.CreateEventData(eventType)
	if err != nil {
		return nil, fmt.Errorf("could not create data for %s: %w", eventType, err)
	}
	if err := json.Unmarshal([]byte(*data), eventData); err != nil {
		return nil, fmt.Errorf("could not unmarshal data of %s: %w", eventType, err)
	}
	return eventData, nil
}

func versionConflict(id uuid.UUID, expected, actual int) error {
	return domain.Errorf(domain.Conflict, "negotiation %s was changed concurrently (expected version %d, found %d)", id, expected, actual)
}
