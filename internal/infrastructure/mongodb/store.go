package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	outboxMongo "github.com/LocalHostDiluk/reinicializado/pkg/outbox/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// Collection names.
const (
	CollectionBatches     = "inventory_batches"
	CollectionAdjustments = "inventory_adjustments"
	CollectionSales       = "sales"
	CollectionMovements   = "sale_inventory_movements"
	CollectionPurchases   = "purchases"
	CollectionReturns     = "purchase_returns"
	CollectionProducts    = "products"
	CollectionSuppliers   = "suppliers"
	CollectionSequences   = "sequence_counters"
)

// Atomic unit outcomes reported to metrics.
const (
	unitCommitted  = "committed"
	unitRolledBack = "rolled_back"
	unitConflict   = "conflict"
)

// Store implements domain.Store on MongoDB. Units run as snapshot
// transactions, so the deployment must be a replica set.
type Store struct {
	client  *pkgmongo.Client
	metrics *metrics.Metrics
	logger  *logging.Logger

	batches     *BatchRepository
	adjustments *AdjustmentRepository
	sales       *SaleRepository
	purchases   *PurchaseRepository
	returns     *ReturnRepository
	events      *OutboxRecorder
	breaker     *resilience.CircuitBreaker
}

var _ domain.Store = (*Store)(nil)

// NewStore wires the repositories on the client's database. Events are
// written to the outbox with CloudEvents built by factory.
func NewStore(client *pkgmongo.Client, factory *cloudevents.EventFactory, m *metrics.Metrics, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	breaker := pkgmongo.NewCircuitBreaker("mongodb-store", logger, m)
	db := client.Database()

	return &Store{
		client:      client,
		metrics:     m,
		logger:      logger.WithComponent("mongodb-store"),
		batches:     &BatchRepository{coll: newCollection(db.Collection(CollectionBatches), breaker)},
		adjustments: &AdjustmentRepository{coll: newCollection(db.Collection(CollectionAdjustments), breaker)},
		sales: &SaleRepository{
			coll:      newCollection(db.Collection(CollectionSales), breaker),
			movements: newCollection(db.Collection(CollectionMovements), breaker),
		},
		purchases: &PurchaseRepository{coll: newCollection(db.Collection(CollectionPurchases), breaker)},
		returns:   &ReturnRepository{coll: newCollection(db.Collection(CollectionReturns), breaker)},
		events:    NewOutboxRecorder(outboxMongo.NewOutboxRepository(db), factory),
		breaker:   breaker,
	}
}

// Outbox returns the recorder the store writes events through.
func (s *Store) Outbox() *OutboxRecorder { return s.events }

// MovementsByBatch returns the sale movements that drew from a batch.
func (s *Store) MovementsByBatch(ctx context.Context, batchID string) ([]*domain.SaleInventoryMovement, error) {
	return s.sales.MovementsByBatch(ctx, batchID)
}

func (s *Store) Batches() domain.BatchRepository          { return s.batches }
func (s *Store) Adjustments() domain.AdjustmentRepository { return s.adjustments }
func (s *Store) Sales() domain.SaleRepository             { return s.sales }
func (s *Store) Purchases() domain.PurchaseRepository     { return s.purchases }
func (s *Store) Returns() domain.ReturnRepository         { return s.returns }
func (s *Store) Events() domain.EventRecorder             { return s.events }

// Run executes fn in one transaction. fn runs exactly once; a write
// conflict with a concurrent transaction aborts the unit and is reported
// as a Conflict for the caller to retry.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	err := s.breaker.Execute(ctx, func() error {
		return s.client.RunTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return fn(sessCtx, s)
		})
	})

	switch {
	case err == nil:
		s.record(unitCommitted)
		return nil
	case errors.Is(err, pkgmongo.ErrTransactionConflict):
		s.record(unitConflict)
		s.logger.WithContext(ctx).Warn("Atomic unit aborted by a concurrent write", "error", err)
		return domain.Conflictf("the data changed concurrently, retry the operation")
	default:
		s.record(unitRolledBack)
		return err
	}
}

func (s *Store) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAtomicUnit(outcome)
	}
}

// Breaker returns the circuit breaker guarding the store, for components
// reading the same database.
func (s *Store) Breaker() *resilience.CircuitBreaker {
	return s.breaker
}
