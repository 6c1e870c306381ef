package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Store metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	AtomicUnits              *prometheus.CounterVec

	// Messaging metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge
	OutboxRetries        *prometheus.CounterVec

	// Business metrics
	SalesCompleted     *prometheus.CounterVec
	SalesAmount        *prometheus.CounterVec
	BatchesCreated     *prometheus.CounterVec
	StockAdjustments   *prometheus.CounterVec
	PurchasesReceived  prometheus.Counter
	PurchaseReturns    *prometheus.CounterVec
	StockRejections    *prometheus.CounterVec
	SequenceAllocation *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "retail",
	}
}

// New creates and registers every collector on a private registry.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"service", "method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"service", "method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.MongoDBOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "mongodb_operations_total",
		Help:      "Total number of MongoDB commands",
	}, []string{"service", "collection", "operation", "status"})

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "mongodb_operation_duration_seconds",
		Help:      "MongoDB command duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"service", "collection", "operation"})

	m.AtomicUnits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "atomic_units_total",
		Help:      "Atomic units executed by outcome (committed, aborted, conflict)",
	}, []string{"service", "outcome"})

	m.KafkaEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "kafka_events_published_total",
		Help:      "Total number of Kafka events published",
	}, []string{"service", "topic", "event_type", "status"})

	m.KafkaPublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "kafka_publish_duration_seconds",
		Help:      "Kafka publish duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"service", "topic"})

	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "outbox_pending_events",
		Help:        "Outbox events waiting to be relayed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.OutboxRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "outbox_retries_total",
		Help:      "Outbox publish attempts that failed and will be retried",
	}, []string{"service", "event_type"})

	m.SalesCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "sales_completed_total",
		Help:      "Completed sales by payment method",
	}, []string{"service", "payment_method"})

	m.SalesAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "sales_amount_total",
		Help:      "Sum of sale totals by payment method",
	}, []string{"service", "payment_method"})

	m.BatchesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "inventory_batches_created_total",
		Help:      "Inventory batches created by source (manual, receipt)",
	}, []string{"service", "source"})

	m.StockAdjustments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "inventory_adjustments_total",
		Help:      "Inventory adjustments by type",
	}, []string{"service", "adjustment_type"})

	m.PurchasesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   ns,
		Name:        "purchases_received_total",
		Help:        "Purchases marked as received",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.PurchaseReturns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "purchase_returns_total",
		Help:      "Purchase returns by return type",
	}, []string{"service", "return_type"})

	m.StockRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "stock_rejections_total",
		Help:      "Stock mutations rejected by reason (insufficient_stock, conflict)",
	}, []string{"service", "operation", "reason"})

	m.SequenceAllocation = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "sequence_numbers_allocated_total",
		Help:      "Human readable sequence numbers allocated by prefix",
	}, []string{"service", "prefix", "status"})

	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"service", "name"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.AtomicUnits,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.OutboxPending,
		m.OutboxRetries,
		m.SalesCompleted,
		m.SalesAmount,
		m.BatchesCreated,
		m.StockAdjustments,
		m.PurchasesReceived,
		m.PurchaseReturns,
		m.StockRejections,
		m.SequenceAllocation,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordMongoDBOperation records a MongoDB command
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordAtomicUnit records how an atomic unit ended.
func (m *Metrics) RecordAtomicUnit(outcome string) {
	m.AtomicUnits.WithLabelValues(m.serviceName, outcome).Inc()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int64) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxRetry records a failed outbox publish attempt
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordSale records a completed sale and its total.
func (m *Metrics) RecordSale(paymentMethod string, total float64) {
	m.SalesCompleted.WithLabelValues(m.serviceName, paymentMethod).Inc()
	m.SalesAmount.WithLabelValues(m.serviceName, paymentMethod).Add(total)
}

// RecordBatchesCreated records new batches by source.
func (m *Metrics) RecordBatchesCreated(source string, count int) {
	m.BatchesCreated.WithLabelValues(m.serviceName, source).Add(float64(count))
}

// RecordAdjustment records an inventory adjustment
func (m *Metrics) RecordAdjustment(adjustmentType string) {
	m.StockAdjustments.WithLabelValues(m.serviceName, adjustmentType).Inc()
}

// RecordPurchaseReceived records a purchase receipt
func (m *Metrics) RecordPurchaseReceived() {
	m.PurchasesReceived.Inc()
}

// RecordPurchaseReturn records a purchase return
func (m *Metrics) RecordPurchaseReturn(returnType string) {
	m.PurchaseReturns.WithLabelValues(m.serviceName, returnType).Inc()
}

// RecordStockRejection records a mutation refused for stock reasons.
func (m *Metrics) RecordStockRejection(operation, reason string) {
	m.StockRejections.WithLabelValues(m.serviceName, operation, reason).Inc()
}

// RecordSequenceAllocation records a sequence number allocation
func (m *Metrics) RecordSequenceAllocation(prefix string, success bool) {
	m.SequenceAllocation.WithLabelValues(m.serviceName, prefix, status(success)).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}
