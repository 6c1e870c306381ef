package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func testBatch(id, productID, qty string, entry time.Time) *InventoryBatch {
	return &InventoryBatch{
		ID:              id,
		ProductID:       productID,
		SupplierID:      "sup-1",
		InitialQuantity: dec(qty),
		CurrentQuantity: dec(qty),
		PurchasePrice:   dec("2.50"),
		EntryDate:       entry,
		CreatedAt:       entry,
		UpdatedAt:       entry,
	}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
