package main

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/config"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	mongoRepo "github.com/LocalHostDiluk/reinicializado/internal/infrastructure/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/outbox"
	testhelpers "github.com/LocalHostDiluk/reinicializado/pkg/testing"
)

type relayRepository struct {
	mu     sync.Mutex
	events []*outbox.OutboxEvent
}

func (r *relayRepository) Save(_ context.Context, event *outbox.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *relayRepository) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	for _, e := range events {
		_ = r.Save(ctx, e)
	}
	return nil
}

func (r *relayRepository) FindUnpublished(_ context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*outbox.OutboxEvent
	for _, e := range r.events {
		if e.ShouldRetry() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *relayRepository) CountUnpublished(ctx context.Context) (int64, error) {
	events, err := r.FindUnpublished(ctx, math.MaxInt)
	return int64(len(events)), err
}

func (r *relayRepository) find(id string) *outbox.OutboxEvent {
	for _, e := range r.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (r *relayRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.find(id).PublishedAt = &now
	return nil
}

func (r *relayRepository) IncrementRetry(_ context.Context, id, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.find(id)
	e.RetryCount++
	e.LastError = msg
	return nil
}

func (r *relayRepository) FindByAggregateID(_ context.Context, id string) ([]*outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*outbox.OutboxEvent
	for _, e := range r.events {
		if e.AggregateID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *relayRepository) snapshot(id string) outbox.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.find(id)
}

type topicRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (p *topicRecorder) PublishEvent(_ context.Context, topic string, _ *cloudevents.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *topicRecorder) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func recordEvents(t *testing.T, repo outbox.Repository, events ...domain.DomainEvent) {
	t.Helper()
	recorder := mongoRepo.NewOutboxRecorder(repo, cloudevents.NewEventFactory(cloudevents.SourceInventory))
	require.NoError(t, recorder.Record(context.Background(), events...))
}

func TestNewPublisherConfigWithoutValidation(t *testing.T) {
	pc, err := newPublisherConfig(config.OutboxConfig{PollInterval: time.Second, BatchSize: 5})
	require.NoError(t, err)
	assert.Nil(t, pc.Validate)
	assert.Equal(t, 5, pc.BatchSize)
}

func TestRelayPublishesValidEventsAndHoldsInvalidOnes(t *testing.T) {
	pc, err := newPublisherConfig(config.OutboxConfig{
		PollInterval:   10 * time.Millisecond,
		BatchSize:      10,
		ValidateEvents: true,
	})
	require.NoError(t, err)
	require.NotNil(t, pc.Validate)

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	sale := &domain.Sale{
		ID:         "sale-1",
		SaleNumber: "VENTA-20250310-0001",
		Items: []domain.SaleItem{{
			ProductID:   "p1",
			Quantity:    decimal.NewFromInt(2),
			BatchesUsed: []domain.AllocationLine{{BatchID: "b1", Quantity: decimal.NewFromInt(2)}},
		}},
		Total:         decimal.NewFromInt(6),
		PaymentMethod: domain.PaymentCash,
		SoldBy:        "u1",
		CreatedAt:     now,
	}

	repo := &relayRepository{}
	recordEvents(t, repo, domain.NewSaleCompletedEvent(sale))

	ce, err := cloudevents.NewEventFactory(cloudevents.SourceInventory).
		CreateEvent(context.Background(), cloudevents.SaleCompleted, "sale/broken", map[string]string{"unexpected": "shape"})
	require.NoError(t, err)
	broken, err := outbox.NewOutboxEventFromCloudEvent("broken", domain.AggregateSale, mongoRepo.TopicFor(domain.AggregateSale), ce)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), broken))

	producer := &topicRecorder{}
	publisher := outbox.NewPublisher(repo, producer, logging.NewNop(), nil, pc)
	require.NoError(t, publisher.Start(context.Background()))
	t.Cleanup(func() { _ = publisher.Stop() })

	testhelpers.AssertEventually(t, func() bool {
		return len(producer.published()) == 1 && repo.snapshot(broken.ID).RetryCount > 0
	}, 2*time.Second, "valid sale published and malformed one retried")

	assert.Equal(t, []string{"retail.sales.events"}, producer.published())
	held := repo.snapshot(broken.ID)
	assert.False(t, held.IsPublished())
	assert.Contains(t, held.LastError, "contract")
}
