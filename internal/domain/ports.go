package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BatchRepository persists inventory batches. Get returns a NotFound error
// for unknown ids.
type BatchRepository interface {
	Get(ctx context.Context, id string) (*InventoryBatch, error)
	Insert(ctx context.Context, batch *InventoryBatch) error
	InsertMany(ctx context.Context, batches []*InventoryBatch) error
	// SetQuantity writes newQty only while the stored current quantity
	// still equals expected; otherwise it fails with a Conflict error.
	SetQuantity(ctx context.Context, id string, expected, newQty decimal.Decimal, updatedAt time.Time) error
	UpdateMetadata(ctx context.Context, batch *InventoryBatch) error
	// List returns one page ordered by entry_date descending plus the
	// total number of matches.
	List(ctx context.Context, filter BatchFilter, page Page) ([]*InventoryBatch, int64, error)
	// ListAvailable returns the batches of a product holding stock,
	// ordered by entry_date then id.
	ListAvailable(ctx context.Context, productID string) ([]*InventoryBatch, error)
	// ListExpiring returns batches holding stock whose expiration date is
	// at or before until, expired ones included.
	ListExpiring(ctx context.Context, until time.Time) ([]*InventoryBatch, error)
	// StockTotals sums current quantity per product over batches holding
	// stock.
	StockTotals(ctx context.Context) (map[string]decimal.Decimal, error)
}

// AdjustmentRepository persists adjustments. They are never modified.
type AdjustmentRepository interface {
	Insert(ctx context.Context, adj *InventoryAdjustment) error
	Get(ctx context.Context, id string) (*InventoryAdjustment, error)
	List(ctx context.Context, filter AdjustmentFilter, page Page) ([]*InventoryAdjustment, int64, error)
	ListByBatch(ctx context.Context, batchID string) ([]*InventoryAdjustment, error)
	ListAll(ctx context.Context, filter AdjustmentFilter) ([]*InventoryAdjustment, error)
}

// SaleRepository persists sales and their inventory movements.
type SaleRepository interface {
	Insert(ctx context.Context, sale *Sale) error
	InsertMovements(ctx context.Context, movements []*SaleInventoryMovement) error
	Get(ctx context.Context, id string) (*Sale, error)
	List(ctx context.Context, filter SaleFilter, page Page) ([]*Sale, int64, error)
	ListAll(ctx context.Context, filter SaleFilter) ([]*Sale, error)
}

// PurchaseRepository persists purchases.
type PurchaseRepository interface {
	Insert(ctx context.Context, purchase *Purchase) error
	Get(ctx context.Context, id string) (*Purchase, error)
	// Update replaces the purchase only while its stored status is still
	// expected; otherwise it fails with a Conflict error.
	Update(ctx context.Context, purchase *Purchase, expected PurchaseStatus) error
	List(ctx context.Context, filter PurchaseFilter, page Page) ([]*Purchase, int64, error)
	ListAll(ctx context.Context, filter PurchaseFilter) ([]*Purchase, error)
}

// ReturnRepository persists purchase returns.
type ReturnRepository interface {
	Insert(ctx context.Context, ret *PurchaseReturn) error
	Get(ctx context.Context, id string) (*PurchaseReturn, error)
	List(ctx context.Context, filter ReturnFilter, page Page) ([]*PurchaseReturn, int64, error)
	ListByPurchase(ctx context.Context, purchaseID string) ([]*PurchaseReturn, error)
}

// EventRecorder stores domain events for later delivery.
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}

// Repositories groups the stores a unit of work can touch.
type Repositories interface {
	Batches() BatchRepository
	Adjustments() AdjustmentRepository
	Sales() SaleRepository
	Purchases() PurchaseRepository
	Returns() ReturnRepository
	Events() EventRecorder
}

// AtomicUnit runs fn so that every write made through tx commits together
// or not at all. The ctx passed to fn must be used for those writes.
type AtomicUnit interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// Store is the repositories plus the ability to group writes.
type Store interface {
	Repositories
	AtomicUnit
}

// ProductCatalog reads product master data.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	// Names maps the given ids to product names; unknown ids are absent.
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// SupplierCatalog reads supplier master data.
type SupplierCatalog interface {
	Get(ctx context.Context, id string) (*Supplier, error)
}

// Clock returns the current time.
type Clock func() time.Time
