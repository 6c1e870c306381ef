package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
)

// SaleRepository stores sales in sales and their per-batch movements in
// sale_inventory_movements.
type SaleRepository struct {
	coll      collection
	movements collection
}

var _ domain.SaleRepository = (*SaleRepository)(nil)

func (r *SaleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	err := r.coll.insertOne(ctx, sale)
	if pkgmongo.IsDuplicateKey(err) {
		return domain.Conflictf("sale number %s already used", sale.SaleNumber)
	}
	return err
}

func (r *SaleRepository) InsertMovements(ctx context.Context, movements []*domain.SaleInventoryMovement) error {
	return r.movements.insertMany(ctx, toDocs(movements))
}

func (r *SaleRepository) Get(ctx context.Context, id string) (*domain.Sale, error) {
	return findByID[domain.Sale](ctx, r.coll, id, func() error {
		return domain.NotFoundf("sale %s not found", id)
	})
}

func saleFilter(f domain.SaleFilter) bson.M {
	filter := bson.M{}
	if f.SoldBy != "" {
		filter["sold_by"] = f.SoldBy
	}
	if f.PaymentMethod != "" {
		filter["payment_method"] = f.PaymentMethod
	}
	periodFilter(filter, "created_at", f.Period)
	return filter
}

func (r *SaleRepository) List(ctx context.Context, f domain.SaleFilter, page domain.Page) ([]*domain.Sale, int64, error) {
	return findPage[domain.Sale](ctx, r.coll, saleFilter(f), newestFirst("created_at"), page)
}

func (r *SaleRepository) ListAll(ctx context.Context, f domain.SaleFilter) ([]*domain.Sale, error) {
	return findAll[domain.Sale](ctx, r.coll, saleFilter(f), sorted(newestFirst("created_at")))
}

// MovementsByBatch returns the sale movements that drew from a batch.
func (r *SaleRepository) MovementsByBatch(ctx context.Context, batchID string) ([]*domain.SaleInventoryMovement, error) {
	return findAll[domain.SaleInventoryMovement](ctx, r.movements, bson.M{"batch_id": batchID}, sorted(pkgmongo.SortAscending("created_at")))
}
