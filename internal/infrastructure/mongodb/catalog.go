package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// ProductCatalog reads the products collection. The collection is owned
// by the catalog service; this service never writes it.
type ProductCatalog struct {
	coll collection
}

var _ domain.ProductCatalog = (*ProductCatalog)(nil)

// NewProductCatalog creates a ProductCatalog.
func NewProductCatalog(client *pkgmongo.Client, breaker *resilience.CircuitBreaker) *ProductCatalog {
	return &ProductCatalog{coll: newCollection(client.Collection(CollectionProducts), breaker)}
}

func (c *ProductCatalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	return findByID[domain.Product](ctx, c.coll, id, func() error {
		return domain.NotFoundf("product %s not found", id)
	})
}

func (c *ProductCatalog) ListActive(ctx context.Context) ([]*domain.Product, error) {
	return findAll[domain.Product](ctx, c.coll, bson.M{"is_active": true}, sorted(pkgmongo.SortAscending("_id")))
}

func (c *ProductCatalog) Names(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	products, err := findAll[domain.Product](ctx, c.coll,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

// SupplierCatalog reads the suppliers collection.
type SupplierCatalog struct {
	coll collection
}

var _ domain.SupplierCatalog = (*SupplierCatalog)(nil)

// NewSupplierCatalog creates a SupplierCatalog.
func NewSupplierCatalog(client *pkgmongo.Client, breaker *resilience.CircuitBreaker) *SupplierCatalog {
	return &SupplierCatalog{coll: newCollection(client.Collection(CollectionSuppliers), breaker)}
}

func (c *SupplierCatalog) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	return findByID[domain.Supplier](ctx, c.coll, id, func() error {
		return domain.NotFoundf("supplier %s not found", id)
	})
}
