package outbox

import (
	"encoding/json"
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
)

// DefaultMaxRetries bounds the publish attempts per event.
const DefaultMaxRetries = 10

// OutboxEvent is a CloudEvent waiting to be relayed. It is written in the
// same transaction as the state change it announces.
type OutboxEvent struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregate_id" json:"aggregate_id"`
	AggregateType string          `bson:"aggregate_type" json:"aggregate_type"`
	EventType     string          `bson:"event_type" json:"event_type"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	PublishedAt   *time.Time      `bson:"published_at,omitempty" json:"published_at,omitempty"`
	RetryCount    int             `bson:"retry_count" json:"retry_count"`
	LastError     string          `bson:"last_error,omitempty" json:"last_error,omitempty"`
	MaxRetries    int             `bson:"max_retries" json:"max_retries"`
}

// NewOutboxEventFromCloudEvent creates an outbox event from a CloudEvent.
// The outbox id is the event id so a relay crash between publish and
// MarkPublished re-sends an event consumers can deduplicate.
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, cloudEvent *cloudevents.CloudEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            cloudEvent.ID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     cloudEvent.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     cloudEvent.Time,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished checks if the event has been published
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry checks if the event should be retried
func (e *OutboxEvent) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent converts the outbox event payload to a CloudEvent
func (e *OutboxEvent) ToCloudEvent() (*cloudevents.CloudEvent, error) {
	var cloudEvent cloudevents.CloudEvent
	if err := json.Unmarshal(e.Payload, &cloudEvent); err != nil {
		return nil, err
	}
	return &cloudEvent, nil
}
