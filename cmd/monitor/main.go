package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/LocalHostDiluk/reinicializado/internal/config"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	mongoRepo "github.com/LocalHostDiluk/reinicializado/internal/infrastructure/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
)

// Ledger reconciliation tool. Replays every batch's sale movements,
// adjustments and purchase returns and reports batches whose stored
// current_quantity disagrees. Exits with status 2 when any are found.

const serviceName = "retail-monitor"

var (
	productID = flag.String("product", "", "Only check the batches of this product")
	pageSize  = flag.Int64("page-size", 200, "Batches read per page")
	asJSON    = flag.Bool("json", false, "Print the report as JSON on stdout")
	timeout   = flag.Duration("timeout", 5*time.Minute, "Overall time limit")
)

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := mongodb.NewClient(ctx, &cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer client.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	m := metrics.New(metrics.DefaultConfig(serviceName))
	store := mongoRepo.NewStore(client, cloudevents.NewEventFactory(cloudevents.SourceInventory), m, logger)

	report, err := newReconciler(store, *pageSize).Run(ctx, domain.BatchFilter{ProductID: *productID})
	if err != nil {
		logger.WithError(err).Error("Reconciliation failed")
		os.Exit(1)
	}

	for _, d := range report.Discrepancies {
		logger.Warn("Batch quantity disagrees with its history",
			"batchId", d.BatchID,
			"productId", d.ProductID,
			"stored", d.Stored.String(),
			"expected", d.Expected.String(),
			"sold", d.Sold.String(),
			"adjusted", d.Adjusted.String(),
			"returned", d.Returned.String(),
		)
	}
	logger.Info("Reconciliation finished", "batchesChecked", report.BatchesChecked, "discrepancies", len(report.Discrepancies))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.WithError(err).Error("Failed to write report")
			os.Exit(1)
		}
	}

	if len(report.Discrepancies) > 0 {
		os.Exit(2)
	}
}
