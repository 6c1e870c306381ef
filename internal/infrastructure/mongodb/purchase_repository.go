package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
)

// PurchaseRepository stores purchases in purchases.
type PurchaseRepository struct {
	coll collection
}

var _ domain.PurchaseRepository = (*PurchaseRepository)(nil)

func purchaseNotFound(id string) func() error {
	return func() error { return domain.NotFoundf("purchase %s not found", id) }
}

func (r *PurchaseRepository) Insert(ctx context.Context, p *domain.Purchase) error {
	err := r.coll.insertOne(ctx, p)
	if pkgmongo.IsDuplicateKey(err) {
		return domain.Conflictf("purchase number %s already used", p.PurchaseNumber)
	}
	return err
}

func (r *PurchaseRepository) Get(ctx context.Context, id string) (*domain.Purchase, error) {
	return findByID[domain.Purchase](ctx, r.coll, id, purchaseNotFound(id))
}

// Update replaces the document while its status is still expected.
func (r *PurchaseRepository) Update(ctx context.Context, p *domain.Purchase, expected domain.PurchaseStatus) error {
	res, err := r.coll.replaceOne(ctx, bson.M{"_id": p.ID, "status": expected}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	found, err := r.coll.exists(ctx, p.ID)
	if err != nil {
		return err
	}
	if !found {
		return purchaseNotFound(p.ID)()
	}
	return domain.Conflictf("purchase %s changed concurrently", p.ID)
}

func purchaseFilter(f domain.PurchaseFilter) bson.M {
	filter := bson.M{}
	if f.SupplierID != "" {
		filter["supplier_id"] = f.SupplierID
	}
	if f.PurchaseType != "" {
		filter["purchase_type"] = f.PurchaseType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	periodFilter(filter, "purchase_date", f.Period)
	return filter
}

func (r *PurchaseRepository) List(ctx context.Context, f domain.PurchaseFilter, page domain.Page) ([]*domain.Purchase, int64, error) {
	return findPage[domain.Purchase](ctx, r.coll, purchaseFilter(f), newestFirst("purchase_date"), page)
}

func (r *PurchaseRepository) ListAll(ctx context.Context, f domain.PurchaseFilter) ([]*domain.Purchase, error) {
	return findAll[domain.Purchase](ctx, r.coll, purchaseFilter(f), sorted(newestFirst("purchase_date")))
}

// ReturnRepository stores purchase returns in purchase_returns.
type ReturnRepository struct {
	coll collection
}

var _ domain.ReturnRepository = (*ReturnRepository)(nil)

func (r *ReturnRepository) Insert(ctx context.Context, ret *domain.PurchaseReturn) error {
	err := r.coll.insertOne(ctx, ret)
	if pkgmongo.IsDuplicateKey(err) {
		return domain.Conflictf("return number %s already used", ret.ReturnNumber)
	}
	return err
}

func (r *ReturnRepository) Get(ctx context.Context, id string) (*domain.PurchaseReturn, error) {
	return findByID[domain.PurchaseReturn](ctx, r.coll, id, func() error {
		return domain.NotFoundf("purchase return %s not found", id)
	})
}

func returnFilter(f domain.ReturnFilter) bson.M {
	filter := bson.M{}
	if f.PurchaseID != "" {
		filter["purchase_id"] = f.PurchaseID
	}
	if f.SupplierID != "" {
		filter["supplier_id"] = f.SupplierID
	}
	if f.ReturnType != "" {
		filter["return_type"] = f.ReturnType
	}
	periodFilter(filter, "return_date", f.Period)
	return filter
}

func (r *ReturnRepository) List(ctx context.Context, f domain.ReturnFilter, page domain.Page) ([]*domain.PurchaseReturn, int64, error) {
	return findPage[domain.PurchaseReturn](ctx, r.coll, returnFilter(f), newestFirst("return_date"), page)
}

func (r *ReturnRepository) ListByPurchase(ctx context.Context, purchaseID string) ([]*domain.PurchaseReturn, error) {
	return findAll[domain.PurchaseReturn](ctx, r.coll, returnFilter(domain.ReturnFilter{PurchaseID: purchaseID}), sorted(newestFirst("return_date")))
}
