package mongodb

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// BatchRepository stores inventory batches in inventory_batches.
type BatchRepository struct {
	coll collection
}

var _ domain.BatchRepository = (*BatchRepository)(nil)

func batchNotFound(id string) func() error {
	return func() error { return domain.NotFoundf("batch %s not found", id) }
}

func (r *BatchRepository) Get(ctx context.Context, id string) (*domain.InventoryBatch, error) {
	return findByID[domain.InventoryBatch](ctx, r.coll, id, batchNotFound(id))
}

func (r *BatchRepository) Insert(ctx context.Context, batch *domain.InventoryBatch) error {
	err := r.coll.insertOne(ctx, batch)
	if pkgmongo.IsDuplicateKey(err) {
		return domain.Conflictf("batch %s already exists", batch.ID)
	}
	return err
}

func (r *BatchRepository) InsertMany(ctx context.Context, batches []*domain.InventoryBatch) error {
	err := r.coll.insertMany(ctx, toDocs(batches))
	if pkgmongo.IsDuplicateKey(err) {
		return domain.Conflictf("batch already exists")
	}
	return err
}

// SetQuantity is a compare-and-set on current_quantity.
func (r *BatchRepository) SetQuantity(ctx context.Context, id string, expected, newQty decimal.Decimal, updatedAt time.Time) error {
	res, err := r.coll.updateOne(ctx,
		bson.M{"_id": id, "current_quantity": expected},
		bson.M{"$set": bson.M{"current_quantity": newQty, "updated_at": updatedAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.missOrConflict(ctx, id)
}

func (r *BatchRepository) missOrConflict(ctx context.Context, id string) error {
	found, err := r.coll.exists(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return batchNotFound(id)()
	}
	return domain.Conflictf("batch %s changed concurrently", id)
}

// UpdateMetadata writes the editable fields; nil fields are removed.
func (r *BatchRepository) UpdateMetadata(ctx context.Context, batch *domain.InventoryBatch) error {
	set := bson.M{"updated_at": batch.UpdatedAt}
	unset := bson.M{}
	optional := map[string]any{
		"batch_number":    batch.BatchNumber,
		"expiration_date": batch.ExpirationDate,
		"notes":           batch.Notes,
	}
	for field, value := range optional {
		switch v := value.(type) {
		case *string:
			if v == nil {
				unset[field] = ""
			} else {
				set[field] = *v
			}
		case *time.Time:
			if v == nil {
				unset[field] = ""
			} else {
				set[field] = *v
			}
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.coll.updateOne(ctx, bson.M{"_id": batch.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return batchNotFound(batch.ID)()
	}
	return nil
}

func batchFilter(f domain.BatchFilter) bson.M {
	filter := bson.M{}
	if f.ProductID != "" {
		filter["product_id"] = f.ProductID
	}
	if f.SupplierID != "" {
		filter["supplier_id"] = f.SupplierID
	}
	if f.HasStock != nil {
		if *f.HasStock {
			filter["current_quantity"] = bson.M{"$gt": decimal.Zero}
		} else {
			filter["current_quantity"] = bson.M{"$lte": decimal.Zero}
		}
	}
	pkgmongo.DateRange(filter, "expiration_date", f.ExpiringAfter, f.ExpiringBefore)
	return filter
}

func (r *BatchRepository) List(ctx context.Context, f domain.BatchFilter, page domain.Page) ([]*domain.InventoryBatch, int64, error) {
	return findPage[domain.InventoryBatch](ctx, r.coll, batchFilter(f), newestFirst("entry_date"), page)
}

// ListAvailable returns the product's batches holding stock in FIFO order.
func (r *BatchRepository) ListAvailable(ctx context.Context, productID string) ([]*domain.InventoryBatch, error) {
	sort := pkgmongo.SortMultiple(
		pkgmongo.SortField{Field: "entry_date"},
		pkgmongo.SortField{Field: "_id"},
	)
	return findAll[domain.InventoryBatch](ctx, r.coll,
		bson.M{"product_id": productID, "current_quantity": bson.M{"$gt": decimal.Zero}},
		sorted(sort),
	)
}

func (r *BatchRepository) ListExpiring(ctx context.Context, until time.Time) ([]*domain.InventoryBatch, error) {
	return findAll[domain.InventoryBatch](ctx, r.coll, bson.M{
		"current_quantity": bson.M{"$gt": decimal.Zero},
		"expiration_date":  bson.M{"$lte": until},
	})
}

type productTotal struct {
	ProductID string          `bson:"_id"`
	Total     decimal.Decimal `bson:"total"`
}

func (r *BatchRepository) StockTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"current_quantity": bson.M{"$gt": decimal.Zero}}}},
		{{Key: "$group", Value: bson.M{"_id": "$product_id", "total": bson.M{"$sum": "$current_quantity"}}}},
	}
	rows, err := resilience.ExecuteValue(ctx, r.coll.breaker, func() ([]productTotal, error) {
		cursor, err := r.coll.c.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)
		var rows []productTotal
		err = cursor.All(ctx, &rows)
		return rows, err
	})
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}
