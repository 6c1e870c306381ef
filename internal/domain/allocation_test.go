package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_OldestEntryFirst(t *testing.T) {
	older := testBatch("b1", "p1", "5", testNow.AddDate(0, 0, -10))
	newer := testBatch("b2", "p1", "5", testNow.AddDate(0, 0, -2))

	plan, err := Allocate("p1", dec("7"), []*InventoryBatch{newer, older}, testNow)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "b1", plan[0].BatchID)
	assert.True(t, plan[0].Quantity.Equal(dec("5")))
	assert.Equal(t, "b2", plan[1].BatchID)
	assert.True(t, plan[1].Quantity.Equal(dec("2")))

	// planning does not touch the batches
	assert.True(t, older.CurrentQuantity.Equal(dec("5")))
	assert.True(t, newer.CurrentQuantity.Equal(dec("5")))
}

func TestAllocate_SkipsExpiredBatches(t *testing.T) {
	expired := testBatch("b1", "p1", "10", testNow.AddDate(0, 0, -30))
	expired.ExpirationDate = timePtr(testNow)
	fresh := testBatch("b2", "p1", "4", testNow.AddDate(0, 0, -1))
	fresh.ExpirationDate = timePtr(testNow.AddDate(0, 0, 5))

	plan, err := Allocate("p1", dec("3"), []*InventoryBatch{expired, fresh}, testNow)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "b2", plan[0].BatchID)

	_, err = Allocate("p1", dec("5"), []*InventoryBatch{expired, fresh}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAllocate_InsufficientStock(t *testing.T) {
	_, err := Allocate("p1", dec("1"), nil, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	b := testBatch("b1", "p1", "10", testNow.AddDate(0, 0, -1))
	plan, err := Allocate("p1", dec("10"), []*InventoryBatch{b}, testNow)
	require.NoError(t, err)
	require.NoError(t, b.Consume(plan[0].Quantity, testNow))
	assert.True(t, b.CurrentQuantity.IsZero())

	_, err = Allocate("p1", dec("0.001"), []*InventoryBatch{b}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAllocate_RejectsNonPositiveRequest(t *testing.T) {
	b := testBatch("b1", "p1", "10", testNow)
	_, err := Allocate("p1", decimal.Zero, []*InventoryBatch{b}, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Allocate("p1", dec("-1"), []*InventoryBatch{b}, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAllocate_EqualEntryDatesKeepInputOrder(t *testing.T) {
	entry := testNow.AddDate(0, 0, -3)
	a := testBatch("a", "p1", "2", entry)
	b := testBatch("b", "p1", "2", entry)

	plan, err := Allocate("p1", dec("3"), []*InventoryBatch{b, a}, testNow)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "b", plan[0].BatchID)
	assert.Equal(t, "a", plan[1].BatchID)
}

func TestAllocate_IgnoresOtherProducts(t *testing.T) {
	other := testBatch("x", "p2", "100", testNow.AddDate(0, 0, -9))
	mine := testBatch("m", "p1", "1", testNow.AddDate(0, 0, -1))

	_, err := Allocate("p1", dec("2"), []*InventoryBatch{other, mine}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPlanner_RepeatedProductSeesEarlierLines(t *testing.T) {
	b1 := testBatch("b1", "p1", "3", testNow.AddDate(0, 0, -5))
	b2 := testBatch("b2", "p1", "3", testNow.AddDate(0, 0, -1))
	batches := []*InventoryBatch{b1, b2}

	planner := NewPlanner(testNow)
	first, err := planner.Plan("p1", dec("2"), batches)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := planner.Plan("p1", dec("2"), batches)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, second[0].Quantity.Equal(dec("1")))
	assert.True(t, second[1].Quantity.Equal(dec("1")))

	totals := planner.Totals()
	require.Len(t, totals, 2)
	assert.Equal(t, "b1", totals[0].BatchID)
	assert.True(t, totals[0].Quantity.Equal(dec("3")))
	assert.True(t, totals[1].Quantity.Equal(dec("1")))

	_, err = planner.Plan("p1", dec("3"), batches)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}
