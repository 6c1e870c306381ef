package outbox

import "context"

// Repository defines the interface for outbox event persistence. Save and
// SaveAll join the transaction carried by ctx when there is one.
type Repository interface {
	Save(ctx context.Context, event *OutboxEvent) error
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns the oldest pending events that still have
	// retries left.
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)
	CountUnpublished(ctx context.Context) (int64, error)

	MarkPublished(ctx context.Context, eventID string) error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
