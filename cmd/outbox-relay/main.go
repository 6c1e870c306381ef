package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	retailapi "github.com/LocalHostDiluk/reinicializado/api"
	"github.com/LocalHostDiluk/reinicializado/internal/config"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/contracts/asyncapi"
	"github.com/LocalHostDiluk/reinicializado/pkg/kafka"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
	"github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/outbox"
	outboxMongo "github.com/LocalHostDiluk/reinicializado/pkg/outbox/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/tracing"
)

const serviceName = "retail-outbox-relay"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting outbox relay", "environment", cfg.Environment)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.Environment = cfg.Environment
	tracingConfig.Enabled = cfg.Tracing.Enabled
	tracingConfig.SampleRate = cfg.Tracing.SampleRate

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, &cfg.MongoDB, mongodb.WithMonitor(mongodb.NewCommandMonitor(m, logger)))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())

	repo := outboxMongo.NewOutboxRepository(mongoClient.Database())
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create outbox indexes")
	}

	kafkaProducer := kafka.NewProducer(&cfg.Kafka)
	defer kafkaProducer.Close()
	producer := kafka.NewCircuitBreakerProducer(kafka.NewInstrumentedProducer(kafkaProducer, m, logger), logger, m)
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	publisherConfig, err := newPublisherConfig(cfg.Outbox)
	if err != nil {
		logger.WithError(err).Error("Failed to load AsyncAPI document")
		os.Exit(1)
	}

	publisher := outbox.NewPublisher(repo, producer, logger, m, publisherConfig)
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	logger.Info("Outbox publisher started", "validateEvents", cfg.Outbox.ValidateEvents)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, mongoClient.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router, ReadTimeout: cfg.Server.ReadTimeout}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down outbox relay...")

	if err := publisher.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop outbox publisher")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health server forced to shutdown", "error", err)
	}

	logger.Info("Outbox relay stopped", "stats", publisher.Stats())
}

// newPublisherConfig translates the relay settings. With event validation
// on, every event is checked against the AsyncAPI contract before it is
// published.
func newPublisherConfig(cfg config.OutboxConfig) (*outbox.PublisherConfig, error) {
	pc := &outbox.PublisherConfig{
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
	}
	if !cfg.ValidateEvents {
		return pc, nil
	}

	validator, err := asyncapi.NewEventValidatorFromBytes(retailapi.AsyncAPI)
	if err != nil {
		return nil, err
	}
	pc.Validate = func(event *cloudevents.CloudEvent) error {
		return validator.ValidateEvent(event)
	}
	return pc, nil
}
