package idempotency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds idempotency-related Prometheus metrics
type Metrics struct {
	// Labels: service, endpoint, method
	IdempotencyHits                    *prometheus.CounterVec
	IdempotencyMisses                  *prometheus.CounterVec
	IdempotencyParameterMismatches     *prometheus.CounterVec
	IdempotencyConcurrentCollisions    *prometheus.CounterVec
	IdempotencyLockAcquisitionDuration *prometheus.HistogramVec

	// Labels: service, operation
	IdempotencyStorageErrors *prometheus.CounterVec
}

// NewMetrics registers the idempotency collectors on registry, or on the
// default registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)
	endpointLabels := []string{"service", "endpoint", "method"}

	return &Metrics{
		IdempotencyHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retail",
				Name:      "idempotency_hits_total",
				Help:      "Requests answered from a cached response",
			},
			endpointLabels,
		),
		IdempotencyMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retail",
				Name:      "idempotency_misses_total",
				Help:      "Requests processed for a new idempotency key",
			},
			endpointLabels,
		),
		IdempotencyParameterMismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retail",
				Name:      "idempotency_parameter_mismatches_total",
				Help:      "Keys reused with a different request",
			},
			endpointLabels,
		),
		IdempotencyConcurrentCollisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retail",
				Name:      "idempotency_concurrent_collisions_total",
				Help:      "Requests rejected because the key was still being processed",
			},
			endpointLabels,
		),
		IdempotencyLockAcquisitionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "retail",
				Name:      "idempotency_lock_acquisition_duration_seconds",
				Help:      "Time taken to acquire idempotency lock",
				Buckets:   prometheus.DefBuckets,
			},
			endpointLabels,
		),
		IdempotencyStorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retail",
				Name:      "idempotency_storage_errors_total",
				Help:      "Idempotency storage failures",
			},
			[]string{"service", "operation"},
		),
	}
}

// RecordHit records an idempotency cache hit
func (m *Metrics) RecordHit(service, endpoint, method string) {
	m.IdempotencyHits.WithLabelValues(service, endpoint, method).Inc()
}

// RecordMiss records an idempotency cache miss
func (m *Metrics) RecordMiss(service, endpoint, method string) {
	m.IdempotencyMisses.WithLabelValues(service, endpoint, method).Inc()
}

// RecordParameterMismatch records a parameter mismatch error
func (m *Metrics) RecordParameterMismatch(service, endpoint, method string) {
	m.IdempotencyParameterMismatches.WithLabelValues(service, endpoint, method).Inc()
}

// RecordConcurrentCollision records a concurrent request collision
func (m *Metrics) RecordConcurrentCollision(service, endpoint, method string) {
	m.IdempotencyConcurrentCollisions.WithLabelValues(service, endpoint, method).Inc()
}

// RecordLockAcquisitionDuration records the time taken to acquire a lock
func (m *Metrics) RecordLockAcquisitionDuration(service, endpoint, method string, seconds float64) {
	m.IdempotencyLockAcquisitionDuration.WithLabelValues(service, endpoint, method).Observe(seconds)
}

// RecordStorageError records a storage error
func (m *Metrics) RecordStorageError(service, operation string) {
	m.IdempotencyStorageErrors.WithLabelValues(service, operation).Inc()
}
