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
	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/config"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	mongoRepo "github.com/LocalHostDiluk/reinicializado/internal/infrastructure/mongodb"
	redisRepo "github.com/LocalHostDiluk/reinicializado/internal/infrastructure/redis"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/contracts/openapi"
	"github.com/LocalHostDiluk/reinicializado/pkg/idempotency"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
	"github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
	"github.com/LocalHostDiluk/reinicializado/pkg/tracing"
)

const serviceName = "retail-api"

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

	logger.Info("Starting retail API", "environment", cfg.Environment)
	ctx := context.Background()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.Environment = cfg.Environment
	tracingConfig.Enabled = cfg.Tracing.Enabled
	tracingConfig.SampleRate = cfg.Tracing.SampleRate

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		// the API serves without traces rather than not at all
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, &cfg.MongoDB, mongodb.WithMonitor(mongodb.NewCommandMonitor(m, logger)))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	if err := idempotency.InitializeIndexes(ctx, mongoClient.Database()); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency indexes")
	}

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceInventory)
	store := mongoRepo.NewStore(mongoClient, eventFactory, m, logger)
	store.Outbox().SetMaxRetries(cfg.Outbox.MaxRetries)
	breaker := store.Breaker()

	sequences, closeSequences, err := newSequenceAllocator(ctx, cfg, mongoClient, breaker, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize sequence counters", "backend", cfg.Sequence.Backend)
		os.Exit(1)
	}
	defer closeSequences()
	logger.Info("Sequence counters initialized", "backend", cfg.Sequence.Backend)

	svc := newServices(application.Deps{
		Store:     store,
		Products:  mongoRepo.NewProductCatalog(mongoClient, breaker),
		Suppliers: mongoRepo.NewSupplierCatalog(mongoClient, breaker),
		Sequences: sequences,
		Metrics:   m,
		Logger:    logger,
	})

	opts := routeOptions{
		Idempotency: &idempotency.Config{
			ServiceName:     serviceName,
			Repository:      idempotency.NewMongoKeyRepository(mongoClient.Database()),
			Logger:          logger,
			RequireKey:      false,
			OnlyMutating:    true,
			UserIDExtractor: actorID,
			MaxKeyLength:    idempotency.DefaultMaxKeyLength,
			LockTimeout:     idempotency.DefaultLockTimeout,
			RetentionPeriod: idempotency.DefaultRetentionPeriod,
			MaxResponseSize: idempotency.DefaultMaxResponseSize,
			Metrics:         idempotency.NewMetrics(m.Registry()),
		},
	}
	if cfg.Server.OpenAPIValidation {
		validator, err := openapi.NewValidatorFromBytes(retailapi.OpenAPI)
		if err != nil {
			logger.WithError(err).Error("Failed to load OpenAPI document")
			os.Exit(1)
		}
		opts.OpenAPI = validator
		logger.Info("OpenAPI request validation enabled")
	}

	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.RequestTimeout = cfg.Server.RequestTimeout
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, mongoClient.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	registerRoutes(router, svc, opts, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// newSequenceAllocator returns the configured document number counter and a
// function releasing what it holds.
func newSequenceAllocator(ctx context.Context, cfg *config.Config, client *mongodb.Client, breaker *resilience.CircuitBreaker, logger *logging.Logger) (domain.SequenceAllocator, func(), error) {
	if cfg.Sequence.Backend != config.SequenceBackendRedis {
		return mongoRepo.NewSequenceCounters(client, breaker), func() {}, nil
	}

	rdb, err := redisRepo.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	redisBreaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-sequences"), logger.Logger)
	return redisRepo.NewSequences(rdb, redisBreaker), func() { _ = rdb.Close() }, nil
}
