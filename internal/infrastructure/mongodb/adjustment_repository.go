package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// AdjustmentRepository stores adjustments in inventory_adjustments. The
// collection is append-only.
type AdjustmentRepository struct {
	coll collection
}

var _ domain.AdjustmentRepository = (*AdjustmentRepository)(nil)

func (r *AdjustmentRepository) Insert(ctx context.Context, adj *domain.InventoryAdjustment) error {
	return r.coll.insertOne(ctx, adj)
}

func (r *AdjustmentRepository) Get(ctx context.Context, id string) (*domain.InventoryAdjustment, error) {
	return findByID[domain.InventoryAdjustment](ctx, r.coll, id, func() error {
		return domain.NotFoundf("adjustment %s not found", id)
	})
}

func adjustmentFilter(f domain.AdjustmentFilter) bson.M {
	filter := bson.M{}
	if f.BatchID != "" {
		filter["batch_id"] = f.BatchID
	}
	if f.ProductID != "" {
		filter["product_id"] = f.ProductID
	}
	if f.AdjustmentType != "" {
		filter["adjustment_type"] = f.AdjustmentType
	}
	periodFilter(filter, "created_at", f.Period)
	return filter
}

func (r *AdjustmentRepository) List(ctx context.Context, f domain.AdjustmentFilter, page domain.Page) ([]*domain.InventoryAdjustment, int64, error) {
	return findPage[domain.InventoryAdjustment](ctx, r.coll, adjustmentFilter(f), newestFirst("created_at"), page)
}

func (r *AdjustmentRepository) ListByBatch(ctx context.Context, batchID string) ([]*domain.InventoryAdjustment, error) {
	return r.ListAll(ctx, domain.AdjustmentFilter{BatchID: batchID})
}

func (r *AdjustmentRepository) ListAll(ctx context.Context, f domain.AdjustmentFilter) ([]*domain.InventoryAdjustment, error) {
	return findAll[domain.InventoryAdjustment](ctx, r.coll, adjustmentFilter(f), sorted(newestFirst("created_at")))
}
