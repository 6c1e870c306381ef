package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *cloudevents.CloudEvent {
	return &cloudevents.CloudEvent{
		SpecVersion:     "1.0",
		Type:            cloudevents.SaleCompleted,
		Source:          cloudevents.SourceInventory,
		Subject:         "sale/s1",
		ID:              "evt-1",
		Time:            time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		DataContentType: "application/json",
		Data:            json.RawMessage(`{"sale_id":"s1"}`),
		CorrelationID:   "corr-1",
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(testEvent())
	require.NoError(t, err)

	assert.Equal(t, []byte("sale/s1"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, cloudevents.SaleCompleted, headers["ce_type"])
	assert.Equal(t, "evt-1", headers["ce_id"])
	assert.Equal(t, "corr-1", headers["ce_retailcorrelationid"])
	assert.NotContains(t, headers, "ce_traceparent")

	var decoded cloudevents.CloudEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.JSONEq(t, `{"sale_id":"s1"}`, string(decoded.Data))
}

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) PublishEvent(context.Context, string, *cloudevents.CloudEvent) error {
	f.calls++
	return errors.New("broker unreachable")
}

func TestCircuitBreakerProducerOpens(t *testing.T) {
	inner := &failingPublisher{}
	p := NewCircuitBreakerProducer(inner, nil, nil)

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		err := p.PublishEvent(context.Background(), Topics.SalesEvents, testEvent())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.PublishEvent(context.Background(), Topics.SalesEvents, testEvent())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int(resilience.DefaultFailureThreshold), inner.calls)
}
