package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	outboxMongo "github.com/LocalHostDiluk/reinicializado/pkg/outbox/mongodb"
)

// Indexes lists the indexes of every collection this service writes.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollectionBatches: {
			// FIFO allocation
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "entry_date", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "expiration_date", Value: 1}}},
			{Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "entry_date", Value: -1}}},
			{Keys: bson.D{{Key: "purchase_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		CollectionAdjustments: {
			{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "adjustment_type", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CollectionSales: {
			{Keys: bson.D{{Key: "sale_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "sold_by", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CollectionMovements: {
			{Keys: bson.D{{Key: "sale_id", Value: 1}}},
			{Keys: bson.D{{Key: "batch_id", Value: 1}}},
		},
		CollectionPurchases: {
			{Keys: bson.D{{Key: "purchase_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "purchase_date", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "purchase_date", Value: -1}}},
		},
		CollectionReturns: {
			{Keys: bson.D{{Key: "return_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "purchase_id", Value: 1}, {Key: "return_date", Value: -1}}},
		},
		CollectionSequences: {
			{Keys: bson.D{{Key: "prefix", Value: 1}, {Key: "day", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the collections and indexes, the outbox included.
// Collections must exist before transactions write to them on servers
// older than 4.4.
func EnsureIndexes(ctx context.Context, client *pkgmongo.Client) error {
	db := client.Database()
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for name, models := range Indexes() {
		if !have[name] {
			if err := db.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
				return fmt.Errorf("create collection %s: %w", name, err)
			}
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}

	if !have[outboxMongo.DefaultCollectionName] {
		if err := db.CreateCollection(ctx, outboxMongo.DefaultCollectionName); err != nil && !isNamespaceExists(err) {
			return fmt.Errorf("create outbox collection: %w", err)
		}
	}
	return outboxMongo.NewOutboxRepository(db).EnsureIndexes(ctx)
}

const namespaceExistsCode = 48

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode
}
