package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// SequenceCounters allocates document numbers from sequence_counters, one
// document per prefix and day. Allocation is a single atomic
// findOneAndUpdate and never joins a transaction.
type SequenceCounters struct {
	coll collection
}

var _ domain.SequenceAllocator = (*SequenceCounters)(nil)

type counterDoc struct {
	ID     string `bson:"_id"`
	Prefix string `bson:"prefix"`
	Day    string `bson:"day"`
	Value  int64  `bson:"value"`
}

// NewSequenceCounters creates a SequenceCounters.
func NewSequenceCounters(client *pkgmongo.Client, breaker *resilience.CircuitBreaker) *SequenceCounters {
	return &SequenceCounters{coll: newCollection(client.Collection(CollectionSequences), breaker)}
}

func counterID(prefix, day string) string {
	return prefix + "-" + day
}

func (s *SequenceCounters) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	d := domain.SequenceDay(day)
	filter := bson.M{"_id": counterID(prefix, d)}
	update := bson.M{
		"$inc":         bson.M{"value": int64(1)},
		"$setOnInsert": bson.M{"prefix": prefix, "day": d},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	// two first allocations of a day can race on the upsert; the loser sees
	// a duplicate key and the second attempt increments the winner's document
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		doc, err := resilience.ExecuteValue(ctx, s.coll.breaker, func() (counterDoc, error) {
			var doc counterDoc
			err := s.coll.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
			return doc, err
		})
		if err == nil {
			return doc.Value, nil
		}
		if !pkgmongo.IsDuplicateKey(err) {
			return 0, fmt.Errorf("allocate %s sequence: %w", prefix, err)
		}
		lastErr = err
	}
	return 0, fmt.Errorf("allocate %s sequence: %w", prefix, lastErr)
}

// Seed raises the counter of prefix and day to at least value. It never
// lowers a counter.
func (s *SequenceCounters) Seed(ctx context.Context, prefix, day string, value int64) error {
	_, err := resilience.ExecuteValue(ctx, s.coll.breaker, func() (any, error) {
		return s.coll.c.UpdateOne(ctx,
			bson.M{"_id": counterID(prefix, day)},
			bson.M{
				"$max":         bson.M{"value": value},
				"$setOnInsert": bson.M{"prefix": prefix, "day": day},
			},
			options.Update().SetUpsert(true),
		)
	})
	return err
}
