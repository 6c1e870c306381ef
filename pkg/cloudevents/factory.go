package cloudevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/actor"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent builds an event carrying data. Correlation id, actor and trace
// context are taken from ctx when present.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) (*CloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", eventType, err)
	}

	event := &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now(),
		DataContentType: "application/json",
		Data:            payload,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
		ActorID:         actor.UserID(ctx),
	}
	event.SetTraceContext(ctx)

	return event, nil
}
