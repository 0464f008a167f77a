package pkg

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	eh "github.com/looplab/eventhorizon"
	"github.com/looplab/eventhorizon/aggregatestore/events"
	"github.com/looplab/eventhorizon/eventbus/local"
	"github.com/looplab/eventhorizon/eventhandler/projector"
	eventMemory "github.com/looplab/eventhorizon/eventstore/memory"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation/commands"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/product"
	"github.com/nuts-foundation/nuts-negotiation-service/notifier"
	logNotifier "github.com/nuts-foundation/nuts-negotiation-service/notifier/log"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/clock"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/logger"
	"github.com/nuts-foundation/nuts-negotiation-service/storage/memory"
	"github.com/nuts-foundation/nuts-negotiation-service/storage/postgres"
	"github.com/nuts-foundation/nuts-negotiation-service/storage/postgres/migrations"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NegotiationServiceClient lists the use cases of the negotiation service.
type NegotiationServiceClient interface {
	StartNegotiation(ctx context.Context, productID uuid.UUID) (negotiation.View, error)
	ProposePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (negotiation.View, error)
	AcceptOffer(ctx context.Context, id uuid.UUID) (negotiation.View, error)
	RejectOffer(ctx context.Context, id uuid.UUID) (negotiation.View, error)
	CancelNegotiation(ctx context.Context, id uuid.UUID, reason string) (negotiation.View, error)
	GetNegotiation(ctx context.Context, id uuid.UUID) (negotiation.View, error)
	ListNegotiations(ctx context.Context, productID uuid.UUID) ([]negotiation.View, error)

	CreateProduct(ctx context.Context, name string, basePrice decimal.Decimal) (product.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, name string, basePrice decimal.Decimal) (product.Product, error)

	Now() time.Time
}

// NegotiationService wires the negotiation aggregate to its stores, the event bus and the notifier.
// Clock, Products, Views and Notifier may be set before Start; missing ones are created from Config.
type NegotiationService struct {
	Config   NegotiationServiceConfig
	Clock    clock.Clock
	Products product.Repository
	Views    negotiation.ViewRepository
	Notifier notifier.Notifier

	eventStore eh.EventStore
	commands   *CommandHandler
	pool       *pgxpool.Pool
	bus        *local.EventBus
	done       chan struct{}
}

var _ NegotiationServiceClient = (*NegotiationService)(nil)

var instance *NegotiationService
var oneService sync.Once

// NegotiationServiceInstance returns the service used by the engine and the commands.
func NegotiationServiceInstance() *NegotiationService {
	oneService.Do(func() {
		instance = NewNegotiationService(DefaultConfig())
	})
	return instance
}

func NewNegotiationService(config NegotiationServiceConfig) *NegotiationService {
	return &NegotiationService{Config: config}
}

// Configure validates the config and fills in what can be generated.
func (s *NegotiationService) Configure() error {
	if s.Config.LogLevel != "" {
		level, err := logrus.ParseLevel(s.Config.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ConfLogLevel, err)
		}
		logrus.SetLevel(level)
	}

	switch s.Config.Store {
	case MemoryStore:
	case PostgresStore:
		if s.Config.Database == "" {
			return fmt.Errorf("%s is required when %s is %s", ConfDatabase, ConfStore, PostgresStore)
		}
	default:
		return fmt.Errorf("invalid %s: %q, expected %s or %s", ConfStore, s.Config.Store, MemoryStore, PostgresStore)
	}

	if s.Config.JWT.TTL <= 0 {
		return fmt.Errorf("%s has to be positive", ConfJWTTTL)
	}
	if s.Config.JWT.Key == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("could not generate %s: %w", ConfJWTKey, err)
		}
		s.Config.JWT.Key = hex.EncodeToString(key)
		logger.Logger().Warnf("%s not set, generated a random key; tokens will not survive a restart", ConfJWTKey)
	}

	if s.Clock == nil {
		s.Clock = clock.NewSystem()
	}
	return nil
}

func (s *NegotiationService) Start() error {
	if s.Clock == nil {
		s.Clock = clock.NewSystem()
	}

	if s.Config.Store == PostgresStore {
		if err := s.connect(); err != nil {
			return err
		}
	} else {
		s.eventStore = eventMemory.NewEventStore()
		if s.Products == nil {
			s.Products = memory.NewProductRepository()
		}
		if s.Views == nil {
			s.Views = memory.NewNegotiationRepository()
		}
	}
	if s.Notifier == nil {
		s.Notifier = logNotifier.New(logger.Logger().WithField("component", "notifier"))
	}

	eventBus := local.NewEventBus(local.NewGroup())
	eventBus.AddObserver(eh.MatchAny(), &logger.EventLogger{})

	aggregateStore, err := events.NewAggregateStore(s.eventStore, eventBus)
	if err != nil {
		return fmt.Errorf("could not create aggregate store: %w", err)
	}
	s.commands, err = NewCommandHandler(domain.NegotiationAggregateType, aggregateStore)
	if err != nil {
		return err
	}

	viewProjector := projector.NewEventHandler(negotiation.Projector{}, s.Views)
	viewProjector.SetEntityFactory(func() eh.Entity { return &negotiation.View{} })
	s.commands.AddHandler(viewProjector)
	s.commands.AddHandler(notifier.NewEventHandler(s.Notifier, negotiation.ClientResponseWindow))

	done := make(chan struct{})
	s.bus = eventBus
	s.done = done
	go func() {
		for {
			select {
			case err := <-eventBus.Errors():
				logger.Logger().Errorf("event bus: %v", err)
			case <-done:
				return
			}
		}
	}()
	return nil
}

func (s *NegotiationService) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, s.Config.Database)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	s.pool = pool
	s.eventStore = postgres.NewEventStore(pool)
	if s.Products == nil {
		s.Products = postgres.NewProductRepository(pool)
	}
	if s.Views == nil {
		s.Views = postgres.NewNegotiationRepository(pool)
	}
	return nil
}

func (s *NegotiationService) Shutdown() error {
	if s.bus != nil {
		s.bus.Close()
		s.bus.Wait()
		s.bus = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

// Now returns the time of the service clock.
func (s *NegotiationService) Now() time.Time {
	return s.Clock.Now()
}

// StartNegotiation opens a negotiation over a product, starting at its base price.
func (s *NegotiationService) StartNegotiation(ctx context.Context, productID uuid.UUID) (negotiation.View, error) {
	p, err := s.Products.Find(ctx, productID)
	if err != nil {
		return negotiation.View{}, err
	}

	return s.execute(ctx, &commands.StartNegotiation{
		ID:           uuid.New(),
		ProductID:    p.ID(),
		InitialPrice: p.BasePrice,
		At:           s.Now(),
	})
}

func (s *NegotiationService) ProposePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (negotiation.View, error) {
	return s.execute(ctx, &commands.ProposePrice{ID: id, Price: price, At: s.Now()})
}

func (s *NegotiationService) AcceptOffer(ctx context.Context, id uuid.UUID) (negotiation.View, error) {
	return s.execute(ctx, &commands.AcceptOffer{ID: id, At: s.Now()})
}

func (s *NegotiationService) RejectOffer(ctx context.Context, id uuid.UUID) (negotiation.View, error) {
	return s.execute(ctx, &commands.RejectOffer{ID: id, At: s.Now()})
}

func (s *NegotiationService) CancelNegotiation(ctx context.Context, id uuid.UUID, reason string) (negotiation.View, error) {
	return s.execute(ctx, &commands.CancelNegotiation{ID: id, Reason: reason, At: s.Now()})
}

// GetNegotiation reads the negotiation from its events, so it always reflects the last command.
func (s *NegotiationService) GetNegotiation(ctx context.Context, id uuid.UUID) (negotiation.View, error) {
	aggregate, err := s.commands.Load(ctx, id)
	if err != nil {
		return negotiation.View{}, fmt.Errorf("could not load negotiation %s: %w", id, err)
	}
	return viewOf(aggregate)
}

// ListNegotiations returns the negotiations of a product from the read model, oldest first.
// The read model is updated before a command returns.
func (s *NegotiationService) ListNegotiations(ctx context.Context, productID uuid.UUID) ([]negotiation.View, error) {
	found, err := s.Views.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	views := make([]negotiation.View, 0, len(found))
	for _, view := range found {
		views = append(views, *view)
	}
	return views, nil
}

func (s *NegotiationService) execute(ctx context.Context, cmd eh.Command) (negotiation.View, error) {
	aggregate, err := s.commands.Execute(ctx, cmd)
	if err != nil {
		return negotiation.View{}, err
	}
	return viewOf(aggregate)
}

func viewOf(aggregate eh.Aggregate) (negotiation.View, error) {
	a, ok := aggregate.(*negotiation.NegotiationAggregate)
	if !ok {
		return negotiation.View{}, fmt.Errorf("unexpected aggregate type %T", aggregate)
	}
	view, ok := a.View()
	if !ok {
		return negotiation.View{}, domain.Errorf(domain.NotFound, "negotiation with ID: %s not found", a.EntityID())
	}
	return view, nil
}

func (s *NegotiationService) CreateProduct(ctx context.Context, name string, basePrice decimal.Decimal) (product.Product, error) {
	if err := validateProduct(name, basePrice); err != nil {
		return product.Product{}, err
	}
	p := product.New(strings.TrimSpace(name), basePrice)
	if err := s.Products.Add(ctx, p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *NegotiationService) GetProduct(ctx context.Context, id uuid.UUID) (product.Product, error) {
	return s.Products.Find(ctx, id)
}

func (s *NegotiationService) ListProducts(ctx context.Context) ([]product.Product, error) {
	return s.Products.FindAll(ctx)
}

// UpdateProduct changes name and price of a product. Running negotiations keep the price they started with.
func (s *NegotiationService) UpdateProduct(ctx context.Context, id uuid.UUID, name string, basePrice decimal.Decimal) (product.Product, error) {
	if err := validateProduct(name, basePrice); err != nil {
		return product.Product{}, err
	}
	p, err := s.Products.Find(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	p.Update(strings.TrimSpace(name), basePrice)
	if err := s.Products.Update(ctx, p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func validateProduct(name string, basePrice decimal.Decimal) error {
	var errs []string
	if strings.TrimSpace(name) == "" {
		errs = append(errs, "product name can not be empty")
	}
	if !basePrice.IsPositive() {
		errs = append(errs, "base price has to be greater than 0")
	}
	if len(errs) > 0 {
		return domain.Errorf(domain.Validation, "%s", strings.Join(errs, ", "))
	}
	return nil
}
