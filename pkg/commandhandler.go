package pkg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	eh "github.com/looplab/eventhorizon"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/logger"
)

// ErrNilAggregateStore is returned when a CommandHandler is created without a store.
var ErrNilAggregateStore = errors.New("aggregate store is nil")

// CommandHandler runs commands against event sourced aggregates of a single type.
// Load, handle and save of one aggregate never interleave with another command for the same aggregate.
// Events an aggregate stored before returning an error are saved as well.
// Handlers added with AddHandler see every saved event in order, before the aggregate is unlocked.
type CommandHandler struct {
	aggregateType eh.AggregateType
	store         eh.AggregateStore
	locks         *keyedMutex
	handlers      []eh.EventHandler
}

var _ eh.CommandHandler = (*CommandHandler)(nil)

func NewCommandHandler(aggregateType eh.AggregateType, store eh.AggregateStore) (*CommandHandler, error) {
	if store == nil {
		return nil, ErrNilAggregateStore
	}
	return &CommandHandler{
		aggregateType: aggregateType,
		store:         store,
		locks:         newKeyedMutex(),
	}, nil
}

// AddHandler registers a handler for saved events. It must be called before the first command.
// A failing handler is logged and does not fail the command, its events are already saved.
func (h *CommandHandler) AddHandler(handler eh.EventHandler) {
	h.handlers = append(h.handlers, handler)
}

func (h *CommandHandler) HandleCommand(ctx context.Context, cmd eh.Command) error {
	_, err := h.Execute(ctx, cmd)
	return err
}

// Execute handles cmd and returns the aggregate as it is persisted afterwards.
// The aggregate is returned as well when the command failed, in which case it may be nil.
func (h *CommandHandler) Execute(ctx context.Context, cmd eh.Command) (eh.Aggregate, error) {
	log := logger.Logger().WithField("aggregate", cmd.AggregateID())
	log.Debugf("CMD %s %+v", cmd.CommandType(), cmd)

	unlock := h.locks.lock(cmd.AggregateID())
	defer unlock()

	aggregate, err := h.store.Load(ctx, h.aggregateType, cmd.AggregateID())
	if err != nil {
		return nil, err
	}

	cmdErr := aggregate.HandleCommand(ctx, cmd)
	if cmdErr != nil && !hasUncommittedEvents(aggregate) {
		log.WithError(cmdErr).Debugf("CMD %s failed", cmd.CommandType())
		return aggregate, cmdErr
	}

	events := uncommittedEvents(aggregate)
	if err := h.store.Save(ctx, aggregate); err != nil {
		log.WithError(err).Warnf("CMD %s could not be saved", cmd.CommandType())
		if cmdErr != nil {
			return nil, fmt.Errorf("%w (events not saved: %w)", cmdErr, err)
		}
		return nil, err
	}
	h.handle(ctx, events)

	saved, err := h.store.Load(ctx, h.aggregateType, cmd.AggregateID())
	if err != nil {
		return nil, err
	}
	if cmdErr != nil {
		log.WithError(cmdErr).Debugf("CMD %s failed after storing events", cmd.CommandType())
	}
	return saved, cmdErr
}

// Load returns the current state of an aggregate, waiting for a command in progress to finish.
func (h *CommandHandler) Load(ctx context.Context, id uuid.UUID) (eh.Aggregate, error) {
	unlock := h.locks.lock(id)
	defer unlock()
	return h.store.Load(ctx, h.aggregateType, id)
}

func (h *CommandHandler) handle(ctx context.Context, events []eh.Event) {
	for _, event := range events {
		for _, handler := range h.handlers {
			if err := handler.HandleEvent(ctx, event); err != nil {
				logger.Logger().WithError(err).Errorf("%s could not handle %s of %s", handler.HandlerType(), event.EventType(), event.AggregateID())
			}
		}
	}
}

func uncommittedEvents(aggregate eh.Aggregate) []eh.Event {
	a, ok := aggregate.(interface{ Events() []eh.Event })
	if !ok {
		return nil
	}
	return append([]eh.Event(nil), a.Events()...)
}

func hasUncommittedEvents(aggregate eh.Aggregate) bool {
	return len(uncommittedEvents(aggregate)) > 0
}

// keyedMutex hands out one mutex per key and forgets it when no goroutine holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[uuid.UUID]*refMutex{}}
}

func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
