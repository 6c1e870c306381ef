package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryBatch is one received lot of one product from one supplier.
// CurrentQuantity only decreases after creation and stays within
// [0, InitialQuantity].
type InventoryBatch struct {
	ID              string          `bson:"_id" json:"id"`
	ProductID       string          `bson:"product_id" json:"product_id"`
	SupplierID      string          `bson:"supplier_id" json:"supplier_id"`
	BatchNumber     *string         `bson:"batch_number,omitempty" json:"batch_number,omitempty"`
	InitialQuantity decimal.Decimal `bson:"initial_quantity" json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `bson:"current_quantity" json:"current_quantity"`
	PurchasePrice   decimal.Decimal `bson:"purchase_price" json:"purchase_price"`
	EntryDate       time.Time       `bson:"entry_date" json:"entry_date"`
	ExpirationDate  *time.Time      `bson:"expiration_date,omitempty" json:"expiration_date,omitempty"`
	Notes           *string         `bson:"notes,omitempty" json:"notes,omitempty"`
	PurchaseID      *string         `bson:"purchase_id,omitempty" json:"purchase_id,omitempty"`
	CreatedBy       string          `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// NewBatchParams holds the validated inputs of a new batch.
type NewBatchParams struct {
	ID             string
	ProductID      string
	SupplierID     string
	BatchNumber    *string
	Quantity       decimal.Decimal
	PurchasePrice  decimal.Decimal
	EntryDate      *time.Time
	ExpirationDate *time.Time
	Notes          *string
	PurchaseID     *string
	CreatedBy      string
}

// NewBatch creates a batch holding its full initial quantity. EntryDate
// defaults to now.
func NewBatch(p NewBatchParams, now time.Time) (*InventoryBatch, error) {
	if p.ProductID == "" {
		return nil, InvalidArgumentf("product_id is required")
	}
	if p.SupplierID == "" {
		return nil, InvalidArgumentf("supplier_id is required")
	}
	if !p.Quantity.IsPositive() {
		return nil, InvalidArgumentf("quantity must be greater than 0")
	}
	if p.PurchasePrice.IsNegative() {
		return nil, InvalidArgumentf("purchase_price must not be negative")
	}

	entry := now
	if p.EntryDate != nil {
		entry = p.EntryDate.UTC()
	}

	return &InventoryBatch{
		ID:              p.ID,
		ProductID:       p.ProductID,
		SupplierID:      p.SupplierID,
		BatchNumber:     emptyToNil(p.BatchNumber),
		InitialQuantity: p.Quantity,
		CurrentQuantity: p.Quantity,
		PurchasePrice:   p.PurchasePrice,
		EntryDate:       entry,
		ExpirationDate:  utcPtr(p.ExpirationDate),
		Notes:           emptyToNil(p.Notes),
		PurchaseID:      p.PurchaseID,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// HasStock reports whether the batch still holds any quantity.
func (b *InventoryBatch) HasStock() bool {
	return b.CurrentQuantity.IsPositive()
}

// IsExpired reports whether the batch expired at or before now. Batches
// without an expiration date never expire.
func (b *InventoryBatch) IsExpired(now time.Time) bool {
	return b.ExpirationDate != nil && !b.ExpirationDate.After(now)
}

// CheckQuantity validates a new current quantity for the batch.
func (b *InventoryBatch) CheckQuantity(newQty decimal.Decimal) error {
	if newQty.IsNegative() {
		return InvalidArgumentf("quantity of batch %s cannot be negative", b.ID)
	}
	if newQty.GreaterThan(b.InitialQuantity) {
		return InvalidArgumentf("quantity of batch %s cannot exceed its initial quantity %s", b.ID, b.InitialQuantity)
	}
	return nil
}

// SetQuantity sets the current quantity after CheckQuantity. The store
// persists it with a write guarded on the previous value.
func (b *InventoryBatch) SetQuantity(newQty decimal.Decimal, now time.Time) error {
	if err := b.CheckQuantity(newQty); err != nil {
		return err
	}
	b.CurrentQuantity = newQty
	b.UpdatedAt = now
	return nil
}

// Consume takes used units from a batch re-read inside an atomic unit. A
// batch that no longer holds the planned amount means another writer got
// there first.
func (b *InventoryBatch) Consume(used decimal.Decimal, now time.Time) error {
	if b.CurrentQuantity.LessThan(used) {
		return Conflictf("batch %s changed concurrently: %s available, %s planned", b.ID, b.CurrentQuantity, used)
	}
	return b.SetQuantity(b.CurrentQuantity.Sub(used), now)
}

// BatchUpdate carries metadata edits. Nil leaves a field as is; an empty
// string clears it.
type BatchUpdate struct {
	BatchNumber    *string
	ExpirationDate *string
	Notes          *string
}

// ApplyUpdate edits batch metadata. Quantities are never touched here.
func (b *InventoryBatch) ApplyUpdate(u BatchUpdate, now time.Time) error {
	if u.ExpirationDate != nil {
		if *u.ExpirationDate == "" {
			b.ExpirationDate = nil
		} else {
			exp, err := ParseDate("expiration_date", *u.ExpirationDate)
			if err != nil {
				return err
			}
			b.ExpirationDate = &exp
		}
	}
	if u.BatchNumber != nil {
		b.BatchNumber = emptyToNil(u.BatchNumber)
	}
	if u.Notes != nil {
		b.Notes = emptyToNil(u.Notes)
	}
	b.UpdatedAt = now
	return nil
}

// BatchFilter selects batches in listings.
type BatchFilter struct {
	ProductID  string
	SupplierID string
	HasStock   *bool
	// ExpiringBefore and ExpiringAfter bound expiration_date when set.
	ExpiringAfter  *time.Time
	ExpiringBefore *time.Time
}

// ExpiringWithin sets the window [now, now+days] on the filter.
func (f *BatchFilter) ExpiringWithin(days int, now time.Time) {
	until := now.AddDate(0, 0, days)
	f.ExpiringAfter = &now
	f.ExpiringBefore = &until
}

// ProductStock is the running stock of one product.
type ProductStock struct {
	ProductID             string          `json:"product_id"`
	TotalQuantity         decimal.Decimal `json:"total_quantity"`
	BatchesCount          int             `json:"batches_count"`
	OldestBatchDate       *time.Time      `json:"oldest_batch_date,omitempty"`
	NearestExpirationDate *time.Time      `json:"nearest_expiration_date,omitempty"`
}

// ComputeProductStock sums the batches that still hold stock.
func ComputeProductStock(productID string, batches []*InventoryBatch) ProductStock {
	stock := ProductStock{ProductID: productID, TotalQuantity: decimal.Zero}
	for _, b := range batches {
		if b.ProductID != productID || !b.HasStock() {
			continue
		}
		stock.TotalQuantity = stock.TotalQuantity.Add(b.CurrentQuantity)
		stock.BatchesCount++

		if stock.OldestBatchDate == nil || b.EntryDate.Before(*stock.OldestBatchDate) {
			entry := b.EntryDate
			stock.OldestBatchDate = &entry
		}
		if b.ExpirationDate != nil && (stock.NearestExpirationDate == nil || b.ExpirationDate.Before(*stock.NearestExpirationDate)) {
			exp := *b.ExpirationDate
			stock.NearestExpirationDate = &exp
		}
	}
	return stock
}
