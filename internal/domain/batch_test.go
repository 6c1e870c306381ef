package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	b, err := NewBatch(NewBatchParams{
		ID:            "b1",
		ProductID:     "p1",
		SupplierID:    "s1",
		BatchNumber:   StringPtr("  "),
		Quantity:      dec("12.5"),
		PurchasePrice: dec("0"),
		CreatedBy:     "u1",
	}, testNow)
	require.NoError(t, err)

	assert.True(t, b.InitialQuantity.Equal(b.CurrentQuantity))
	assert.Equal(t, testNow, b.EntryDate)
	assert.Nil(t, b.BatchNumber)
	assert.True(t, b.HasStock())
}

func TestNewBatch_Validation(t *testing.T) {
	base := NewBatchParams{ID: "b1", ProductID: "p1", SupplierID: "s1", Quantity: dec("1"), PurchasePrice: dec("1")}

	zero := base
	zero.Quantity = dec("0")
	_, err := NewBatch(zero, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	negativePrice := base
	negativePrice.PurchasePrice = dec("-0.01")
	_, err = NewBatch(negativePrice, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestInventoryBatch_SetQuantityBounds(t *testing.T) {
	b := testBatch("b1", "p1", "10", testNow)

	assert.ErrorIs(t, b.SetQuantity(dec("-1"), testNow), ErrInvalidArgument)
	assert.ErrorIs(t, b.SetQuantity(dec("10.01"), testNow), ErrInvalidArgument)
	assert.True(t, b.CurrentQuantity.Equal(dec("10")))

	require.NoError(t, b.SetQuantity(dec("0"), testNow))
	assert.False(t, b.HasStock())
	require.NoError(t, b.SetQuantity(dec("10"), testNow))
}

func TestInventoryBatch_ConsumeConflict(t *testing.T) {
	b := testBatch("b1", "p1", "3", testNow)

	assert.ErrorIs(t, b.Consume(dec("4"), testNow), ErrConflict)
	require.NoError(t, b.Consume(dec("3"), testNow))
	assert.True(t, b.CurrentQuantity.IsZero())
}

func TestInventoryBatch_IsExpired(t *testing.T) {
	b := testBatch("b1", "p1", "3", testNow)
	assert.False(t, b.IsExpired(testNow))

	b.ExpirationDate = timePtr(testNow)
	assert.True(t, b.IsExpired(testNow))

	b.ExpirationDate = timePtr(testNow.Add(1))
	assert.False(t, b.IsExpired(testNow))
}

func TestInventoryBatch_ApplyUpdate(t *testing.T) {
	b := testBatch("b1", "p1", "3", testNow)
	b.Notes = StringPtr("old")

	require.NoError(t, b.ApplyUpdate(BatchUpdate{
		BatchNumber:    StringPtr("L-7"),
		ExpirationDate: StringPtr("2025-04-01"),
		Notes:          StringPtr(""),
	}, testNow))
	assert.Equal(t, "L-7", *b.BatchNumber)
	require.NotNil(t, b.ExpirationDate)
	assert.Equal(t, 2025, b.ExpirationDate.Year())
	assert.Nil(t, b.Notes)
	assert.True(t, b.CurrentQuantity.Equal(dec("3")))

	err := b.ApplyUpdate(BatchUpdate{ExpirationDate: StringPtr("tomorrow")}, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputeProductStock(t *testing.T) {
	b1 := testBatch("b1", "p1", "4", testNow.AddDate(0, 0, -8))
	b1.ExpirationDate = timePtr(testNow.AddDate(0, 1, 0))
	b2 := testBatch("b2", "p1", "6", testNow.AddDate(0, 0, -2))
	b2.ExpirationDate = timePtr(testNow.AddDate(0, 0, 9))
	empty := testBatch("b3", "p1", "5", testNow.AddDate(0, 0, -20))
	empty.CurrentQuantity = dec("0")
	other := testBatch("b4", "p2", "100", testNow)

	stock := ComputeProductStock("p1", []*InventoryBatch{b1, b2, empty, other})
	assert.True(t, stock.TotalQuantity.Equal(dec("10")))
	assert.Equal(t, 2, stock.BatchesCount)
	assert.Equal(t, b1.EntryDate, *stock.OldestBatchDate)
	assert.Equal(t, *b2.ExpirationDate, *stock.NearestExpirationDate)

	none := ComputeProductStock("p9", nil)
	assert.True(t, none.TotalQuantity.IsZero())
	assert.Nil(t, none.OldestBatchDate)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("entry_date", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Day())

	d, err = ParseDate("entry_date", "2025-01-02T10:00:00-06:00")
	require.NoError(t, err)
	assert.Equal(t, 16, d.Hour())

	_, err = ParseDate("entry_date", "02/01/2025")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
