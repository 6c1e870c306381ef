package mongodb

import (
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
	"github.com/sony/gobreaker"
)

// NewCircuitBreaker returns a breaker for store calls. Only connectivity
// failures trip it; missing documents, duplicate keys and write conflicts
// are answers from a healthy server.
func NewCircuitBreaker(name string, logger *logging.Logger, m *metrics.Metrics) *resilience.CircuitBreaker {
	config := resilience.DefaultCircuitBreakerConfig(name)
	config.MaxRequests = 5
	config.IsFailure = IsInfrastructureError
	if m != nil {
		config.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
		}
	}

	base := logger
	if base == nil {
		base = logging.NewNop()
	}
	return resilience.NewCircuitBreaker(config, base.Logger)
}
