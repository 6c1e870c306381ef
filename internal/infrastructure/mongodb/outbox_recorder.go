package mongodb

import (
	"context"
	"fmt"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/kafka"
	"github.com/LocalHostDiluk/reinicializado/pkg/outbox"
)

// OutboxRecorder turns domain events into CloudEvents and stores them in
// the outbox. Called inside a unit, the outbox rows commit with it.
type OutboxRecorder struct {
	repo       outbox.Repository
	factory    *cloudevents.EventFactory
	maxRetries int
}

var _ domain.EventRecorder = (*OutboxRecorder)(nil)

// NewOutboxRecorder creates an OutboxRecorder.
func NewOutboxRecorder(repo outbox.Repository, factory *cloudevents.EventFactory) *OutboxRecorder {
	return &OutboxRecorder{repo: repo, factory: factory, maxRetries: outbox.DefaultMaxRetries}
}

// SetMaxRetries bounds the relay attempts of rows recorded from now on.
func (r *OutboxRecorder) SetMaxRetries(n int) {
	if n > 0 {
		r.maxRetries = n
	}
}

func (r *OutboxRecorder) Record(ctx context.Context, events ...domain.DomainEvent) error {
	rows := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		row, err := r.toOutbox(ctx, event)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.repo.SaveAll(ctx, rows)
}

func (r *OutboxRecorder) toOutbox(ctx context.Context, event domain.DomainEvent) (*outbox.OutboxEvent, error) {
	subject := event.AggregateType() + "/" + event.AggregateID()
	ce, err := r.factory.CreateEvent(ctx, event.EventType(), subject, event)
	if err != nil {
		return nil, err
	}
	ce.Time = event.OccurredAt().UTC()

	row, err := outbox.NewOutboxEventFromCloudEvent(event.AggregateID(), event.AggregateType(), TopicFor(event.AggregateType()), ce)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox event: %w", err)
	}
	row.MaxRetries = r.maxRetries
	return row, nil
}

// TopicFor routes an aggregate's events to its Kafka topic.
func TopicFor(aggregateType string) string {
	switch aggregateType {
	case domain.AggregateSale:
		return kafka.Topics.SalesEvents
	case domain.AggregatePurchase, domain.AggregateReturn:
		return kafka.Topics.PurchasingEvents
	default:
		return kafka.Topics.InventoryEvents
	}
}
