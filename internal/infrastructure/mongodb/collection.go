package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// collection routes every call through the store's circuit breaker.
type collection struct {
	c       *mongo.Collection
	breaker *resilience.CircuitBreaker
}

func newCollection(c *mongo.Collection, breaker *resilience.CircuitBreaker) collection {
	return collection{c: c, breaker: breaker}
}

func (c collection) insertOne(ctx context.Context, doc any) error {
	return c.breaker.Execute(ctx, func() error {
		_, err := c.c.InsertOne(ctx, doc)
		return err
	})
}

func (c collection) insertMany(ctx context.Context, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	return c.breaker.Execute(ctx, func() error {
		_, err := c.c.InsertMany(ctx, docs)
		return err
	})
}

func (c collection) updateOne(ctx context.Context, filter, update any) (*mongo.UpdateResult, error) {
	return resilience.ExecuteValue(ctx, c.breaker, func() (*mongo.UpdateResult, error) {
		return c.c.UpdateOne(ctx, filter, update)
	})
}

func (c collection) replaceOne(ctx context.Context, filter, doc any) (*mongo.UpdateResult, error) {
	return resilience.ExecuteValue(ctx, c.breaker, func() (*mongo.UpdateResult, error) {
		return c.c.ReplaceOne(ctx, filter, doc)
	})
}

func (c collection) exists(ctx context.Context, id string) (bool, error) {
	n, err := resilience.ExecuteValue(ctx, c.breaker, func() (int64, error) {
		return c.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	})
	return n > 0, err
}

// findByID decodes the document with the given id; a missing document is
// reported through notFound.
func findByID[T any](ctx context.Context, c collection, id string, notFound func() error) (*T, error) {
	doc, err := resilience.ExecuteValue(ctx, c.breaker, func() (*T, error) {
		var doc T
		if err := c.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	})
	if pkgmongo.IsNotFound(err) {
		return nil, notFound()
	}
	return doc, err
}

func findAll[T any](ctx context.Context, c collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	return resilience.ExecuteValue(ctx, c.breaker, func() ([]*T, error) {
		cursor, err := c.c.Find(ctx, filter, opts...)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		docs := make([]*T, 0)
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	})
}

// findPage returns one page in sort order and the number of matches.
func findPage[T any](ctx context.Context, c collection, filter bson.M, sort bson.D, page domain.Page) ([]*T, int64, error) {
	pagination := pkgmongo.Pagination{Page: page.Number, PageSize: page.Size}
	docs, err := findAll[T](ctx, c, filter, pagination.FindOptions(sort))
	if err != nil {
		return nil, 0, err
	}
	total, err := resilience.ExecuteValue(ctx, c.breaker, func() (int64, error) {
		return c.c.CountDocuments(ctx, filter)
	})
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func periodFilter(filter bson.M, field string, period domain.DateRange) {
	pkgmongo.DateRange(filter, field, period.From, period.To)
}

// newestFirst sorts on field descending with the id as tie-break.
func newestFirst(field string) bson.D {
	return pkgmongo.SortMultiple(
		pkgmongo.SortField{Field: field, Descending: true},
		pkgmongo.SortField{Field: "_id", Descending: true},
	)
}

func sorted(sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort)
}

func toDocs[T any](items []T) []any {
	docs := make([]any, len(items))
	for i, item := range items {
		docs[i] = item
	}
	return docs
}
