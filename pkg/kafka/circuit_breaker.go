package kafka

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
	"github.com/sony/gobreaker"
)

// CircuitBreakerProducer stops hammering an unreachable cluster. While open,
// publishes fail fast and the events stay in the outbox.
type CircuitBreakerProducer struct {
	producer       EventPublisher
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer EventPublisher, logger *logging.Logger, m *metrics.Metrics) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5
	if m != nil {
		config.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
		}
	}

	if logger == nil {
		logger = logging.NewNop()
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, logger.Logger),
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	return p.circuitBreaker.Execute(ctx, func() error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
}

// State returns the breaker state.
func (p *CircuitBreakerProducer) State() gobreaker.State {
	return p.circuitBreaker.State()
}
