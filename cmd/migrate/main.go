package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LocalHostDiluk/reinicializado/internal/config"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	mongoRepo "github.com/LocalHostDiluk/reinicializado/internal/infrastructure/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/idempotency"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// Prepares a database for the API: creates the indexes and raises the
// sequence counters to the highest document numbers already stored, so
// imported data never collides with newly allocated numbers.

const serviceName = "retail-migrate"

var (
	dryRun    = flag.Bool("dry-run", true, "Dry run mode (no actual writes)")
	batchSize = flag.Int("batch-size", 500, "Cursor batch size when scanning documents")
	skipIndex = flag.Bool("skip-indexes", false, "Do not create indexes")
)

// numberedCollection is a collection whose documents carry a document
// number.
type numberedCollection struct {
	name  string
	field string
}

var numbered = []numberedCollection{
	{name: mongoRepo.CollectionSales, field: "sale_number"},
	{name: mongoRepo.CollectionPurchases, field: "purchase_number"},
	{name: mongoRepo.CollectionReturns, field: "return_number"},
}

// counterKey identifies one sequence counter.
type counterKey struct {
	Prefix string
	Day    string
}

// highWater tracks the largest number seen per counter.
type highWater map[counterKey]int64

// observe records number and reports whether it was well formed.
func (h highWater) observe(number string) bool {
	prefix, day, n, ok := domain.ParseSequence(number)
	if !ok {
		return false
	}
	key := counterKey{Prefix: prefix, Day: day}
	if n > h[key] {
		h[key] = n
	}
	return true
}

// keys returns the counters in prefix then day order.
func (h highWater) keys() []counterKey {
	keys := make([]counterKey, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Prefix != keys[j].Prefix {
			return keys[i].Prefix < keys[j].Prefix
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}

// seeder raises one counter.
type seeder interface {
	Seed(ctx context.Context, prefix, day string, value int64) error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(serviceName)
	if err != nil {
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)

	logger.Info("Starting migration",
		"database", cfg.MongoDB.Database,
		"dryRun", *dryRun,
		"batchSize", *batchSize,
	)

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(connectCtx, &cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer client.Close(context.Background())

	ctx := context.Background()
	if err := run(ctx, client, logger); err != nil {
		logger.WithError(err).Error("Migration failed")
		os.Exit(1)
	}
	logger.Info("Migration completed successfully")
}

func run(ctx context.Context, client *mongodb.Client, logger *logging.Logger) error {
	if !*skipIndex && !*dryRun {
		if err := mongoRepo.EnsureIndexes(ctx, client); err != nil {
			return err
		}
		if err := idempotency.InitializeIndexes(ctx, client.Database()); err != nil {
			return err
		}
		logger.Info("Indexes ensured")
	}

	marks := highWater{}
	for _, nc := range numbered {
		scanned, malformed, err := scanNumbers(ctx, client.Collection(nc.name), nc.field, marks)
		if err != nil {
			return fmt.Errorf("scan %s: %w", nc.name, err)
		}
		logger.Info("Scanned document numbers", "collection", nc.name, "documents", scanned, "malformed", malformed)
	}

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("migrate-sequences"), logger.Logger)
	var counters seeder = mongoRepo.NewSequenceCounters(client, breaker)
	if *dryRun {
		counters = nil
	}
	return seedCounters(ctx, counters, marks, logger)
}

func scanNumbers(ctx context.Context, coll *mongo.Collection, field string, marks highWater) (scanned, malformed int64, err error) {
	opts := options.Find().
		SetProjection(bson.M{field: 1}).
		SetBatchSize(int32(*batchSize))

	cursor, err := coll.Find(ctx, bson.M{field: bson.M{"$exists": true}}, opts)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return scanned, malformed, err
		}
		scanned++
		number, _ := doc[field].(string)
		if !marks.observe(number) {
			malformed++
		}
	}
	return scanned, malformed, cursor.Err()
}

// seedCounters raises every counter in marks. A nil seeder only logs what
// would be written.
func seedCounters(ctx context.Context, counters seeder, marks highWater, logger *logging.Logger) error {
	for _, key := range marks.keys() {
		value := marks[key]
		if counters == nil {
			logger.Info("Would seed sequence counter", "prefix", key.Prefix, "day", key.Day, "value", value)
			continue
		}
		if err := counters.Seed(ctx, key.Prefix, key.Day, value); err != nil {
			return fmt.Errorf("seed %s-%s: %w", key.Prefix, key.Day, err)
		}
		logger.Info("Seeded sequence counter", "prefix", key.Prefix, "day", key.Day, "value", value)
	}
	return nil
}
