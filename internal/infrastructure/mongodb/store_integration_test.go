package mongodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/kafka"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	outboxMongo "github.com/LocalHostDiluk/reinicializado/pkg/outbox/mongodb"
	sharedtesting "github.com/LocalHostDiluk/reinicializado/pkg/testing"
)

type StoreIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	client    *pkgmongo.Client
	store     *Store
	sequences *SequenceCounters
	products  *ProductCatalog
	now       time.Time
}

func TestStoreIntegration(t *testing.T) {
	s := &StoreIntegrationTestSuite{}
	s.client = sharedtesting.StartMongo(t, "retail_test")
	suite.Run(t, s)
}

func (s *StoreIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(EnsureIndexes(s.ctx, s.client))

	m := metrics.New(metrics.DefaultConfig("inventory-test"))
	s.store = NewStore(s.client, cloudevents.NewEventFactory(cloudevents.SourceInventory), m, logging.NewNop())
	s.sequences = NewSequenceCounters(s.client, s.store.Breaker())
	s.products = NewProductCatalog(s.client, s.store.Breaker())
}

func (s *StoreIntegrationTestSuite) TearDownTest() {
	for name := range Indexes() {
		_, err := s.client.Collection(name).DeleteMany(s.ctx, bson.M{})
		s.Require().NoError(err)
	}
	_, err := s.client.Collection(outboxMongo.DefaultCollectionName).DeleteMany(s.ctx, bson.M{})
	s.Require().NoError(err)
	_, err = s.client.Collection(CollectionProducts).DeleteMany(s.ctx, bson.M{})
	s.Require().NoError(err)
}

func (s *StoreIntegrationTestSuite) batch(id, productID string, qty string, entry time.Time) *domain.InventoryBatch {
	b, err := domain.NewBatch(domain.NewBatchParams{
		ID:            id,
		ProductID:     productID,
		SupplierID:    "s1",
		Quantity:      decimal.RequireFromString(qty),
		PurchasePrice: decimal.RequireFromString("1.10"),
		EntryDate:     &entry,
		CreatedBy:     "manager-1",
	}, s.now)
	s.Require().NoError(err)
	return b
}

func (s *StoreIntegrationTestSuite) TestBatchRoundTripKeepsDecimals() {
	b := s.batch("b1", "p1", "2.375", s.now)
	s.Require().NoError(s.store.Batches().Insert(s.ctx, b))

	got, err := s.store.Batches().Get(s.ctx, "b1")
	s.Require().NoError(err)
	s.True(got.CurrentQuantity.Equal(decimal.RequireFromString("2.375")))
	s.True(got.PurchasePrice.Equal(decimal.RequireFromString("1.10")))

	_, err = s.store.Batches().Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreIntegrationTestSuite) TestListAvailableIsFIFO() {
	s.Require().NoError(s.store.Batches().InsertMany(s.ctx, []*domain.InventoryBatch{
		s.batch("b-new", "p1", "5", s.now),
		s.batch("b-old", "p1", "5", s.now.Add(-48*time.Hour)),
		s.batch("b-other", "p2", "5", s.now.Add(-72*time.Hour)),
	}))
	s.Require().NoError(s.store.Batches().SetQuantity(s.ctx, "b-new", decimal.NewFromInt(5), decimal.Zero, s.now))

	available, err := s.store.Batches().ListAvailable(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(available, 1)
	s.Equal("b-old", available[0].ID)

	totals, err := s.store.Batches().StockTotals(s.ctx)
	s.Require().NoError(err)
	s.True(totals["p1"].Equal(decimal.NewFromInt(5)))
	s.True(totals["p2"].Equal(decimal.NewFromInt(5)))
}

func (s *StoreIntegrationTestSuite) TestSetQuantityIsGuarded() {
	s.Require().NoError(s.store.Batches().Insert(s.ctx, s.batch("b1", "p1", "10", s.now)))

	err := s.store.Batches().SetQuantity(s.ctx, "b1", decimal.NewFromInt(9), decimal.NewFromInt(1), s.now)
	s.ErrorIs(err, domain.ErrConflict)

	err = s.store.Batches().SetQuantity(s.ctx, "ghost", decimal.NewFromInt(9), decimal.NewFromInt(1), s.now)
	s.ErrorIs(err, domain.ErrNotFound)

	s.Require().NoError(s.store.Batches().SetQuantity(s.ctx, "b1", decimal.RequireFromString("10.00"), decimal.NewFromInt(4), s.now))
	got, err := s.store.Batches().Get(s.ctx, "b1")
	s.Require().NoError(err)
	s.True(got.CurrentQuantity.Equal(decimal.NewFromInt(4)))
}

func (s *StoreIntegrationTestSuite) TestUnitRollsBackWithOutbox() {
	b := s.batch("b1", "p1", "10", s.now)
	err := s.store.Run(s.ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Batches().Insert(ctx, b); err != nil {
			return err
		}
		if err := tx.Events().Record(ctx, domain.NewBatchCreatedEvent(b)); err != nil {
			return err
		}
		return domain.InvalidArgumentf("abort")
	})
	s.ErrorIs(err, domain.ErrInvalidArgument)

	_, err = s.store.Batches().Get(s.ctx, "b1")
	s.ErrorIs(err, domain.ErrNotFound)
	pending, err := outboxMongo.NewOutboxRepository(s.client.Database()).CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}

func (s *StoreIntegrationTestSuite) TestUnitCommitsEventToTopic() {
	b := s.batch("b1", "p1", "10", s.now)
	err := s.store.Run(s.ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Batches().Insert(ctx, b); err != nil {
			return err
		}
		return tx.Events().Record(ctx, domain.NewBatchCreatedEvent(b))
	})
	s.Require().NoError(err)

	events, err := outboxMongo.NewOutboxRepository(s.client.Database()).FindByAggregateID(s.ctx, "b1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(kafka.Topics.InventoryEvents, events[0].Topic)
	s.Equal(cloudevents.BatchCreated, events[0].EventType)

	ce, err := events[0].ToCloudEvent()
	s.Require().NoError(err)
	s.Equal(domain.AggregateBatch+"/b1", ce.Subject)
}

func (s *StoreIntegrationTestSuite) TestPurchaseUpdateIsGuardedByStatus() {
	p := &domain.Purchase{ID: "pu1", PurchaseNumber: "COMPRA-20250310-0001", Status: domain.PurchasePending, PurchaseDate: s.now}
	s.Require().NoError(s.store.Purchases().Insert(s.ctx, p))

	p.Status = domain.PurchaseReceived
	s.Require().NoError(s.store.Purchases().Update(s.ctx, p, domain.PurchasePending))
	s.ErrorIs(s.store.Purchases().Update(s.ctx, p, domain.PurchasePending), domain.ErrConflict)

	dup := &domain.Purchase{ID: "pu2", PurchaseNumber: "COMPRA-20250310-0001", Status: domain.PurchasePending, PurchaseDate: s.now}
	s.ErrorIs(s.store.Purchases().Insert(s.ctx, dup), domain.ErrConflict)

	received, total, err := s.store.Purchases().List(s.ctx, domain.PurchaseFilter{Status: domain.PurchaseReceived}, domain.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("pu1", received[0].ID)
}

func (s *StoreIntegrationTestSuite) TestSequenceCountersAreGapFreeUnderConcurrency() {
	const workers = 20
	var wg sync.WaitGroup
	seen := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.sequences.Next(s.ctx, domain.PrefixSale, s.now)
			s.NoError(err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	got := make(map[int64]bool)
	for n := range seen {
		got[n] = true
	}
	s.Len(got, workers)
	for n := int64(1); n <= workers; n++ {
		s.True(got[n], "missing number %d", n)
	}

	n, err := s.sequences.Next(s.ctx, domain.PrefixSale, s.now.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.EqualValues(1, n)

	s.Require().NoError(s.sequences.Seed(s.ctx, domain.PrefixPurchase, domain.SequenceDay(s.now), 41))
	n, err = s.sequences.Next(s.ctx, domain.PrefixPurchase, s.now)
	s.Require().NoError(err)
	s.EqualValues(42, n)
}

func (s *StoreIntegrationTestSuite) TestProductCatalog() {
	_, err := s.client.Collection(CollectionProducts).InsertMany(s.ctx, []any{
		domain.Product{ID: "p1", Name: "Tomato", SaleType: domain.SaleByWeight, IsActive: true},
		domain.Product{ID: "p2", Name: "Old soap", SaleType: domain.SaleByPiece, IsActive: false},
	})
	s.Require().NoError(err)

	active, err := s.products.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("p1", active[0].ID)

	names, err := s.products.Names(s.ctx, []string{"p1", "p2", "ghost"})
	s.Require().NoError(err)
	s.Equal(map[string]string{"p1": "Tomato", "p2": "Old soap"}, names)

	_, err = s.products.Get(s.ctx, "ghost")
	s.ErrorIs(err, domain.ErrNotFound)
}
