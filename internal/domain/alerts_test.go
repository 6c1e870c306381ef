package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLowStock(t *testing.T) {
	p := activeProduct("p1")
	p.MinSaleQuantity = decPtr("2")

	critical := ClassifyLowStock(p, dec("0"))
	require.NotNil(t, critical)
	assert.Equal(t, AlertCritical, critical.Status)

	warning := ClassifyLowStock(p, dec("1.5"))
	require.NotNil(t, warning)
	assert.Equal(t, AlertWarning, warning.Status)

	assert.Nil(t, ClassifyLowStock(p, dec("2")))

	p.MinSaleQuantity = nil
	assert.Nil(t, ClassifyLowStock(p, dec("0.1")))
}

func TestSortLowStockAlerts(t *testing.T) {
	alerts := []LowStockAlert{
		{ProductID: "w2", Status: AlertWarning, CurrentStock: dec("3")},
		{ProductID: "c", Status: AlertCritical, CurrentStock: dec("0")},
		{ProductID: "w1", Status: AlertWarning, CurrentStock: dec("1")},
	}
	SortLowStockAlerts(alerts)
	assert.Equal(t, "c", alerts[0].ProductID)
	assert.Equal(t, "w1", alerts[1].ProductID)
	assert.Equal(t, "w2", alerts[2].ProductID)
}

func TestClassifyExpiring(t *testing.T) {
	expiringIn := func(d time.Duration) *InventoryBatch {
		b := testBatch("b", "p1", "5", testNow)
		b.ExpirationDate = timePtr(testNow.Add(d))
		return b
	}
	day := 24 * time.Hour

	expired := ClassifyExpiring(expiringIn(-36*time.Hour), "Milk", 7, testNow)
	require.NotNil(t, expired)
	assert.Equal(t, AlertExpired, expired.Status)
	assert.Equal(t, -1, expired.DaysUntilExpiration)

	for _, past := range []time.Duration{-12 * time.Hour, 0} {
		recent := ClassifyExpiring(expiringIn(past), "Milk", 7, testNow)
		require.NotNil(t, recent)
		assert.Equal(t, AlertExpired, recent.Status, "expired %s ago", -past)
		assert.Equal(t, 0, recent.DaysUntilExpiration)
	}

	soon := ClassifyExpiring(expiringIn(time.Hour), "Milk", 7, testNow)
	require.NotNil(t, soon)
	assert.Equal(t, AlertCritical, soon.Status)
	assert.Equal(t, 1, soon.DaysUntilExpiration)

	critical := ClassifyExpiring(expiringIn(2*day+time.Hour), "Milk", 7, testNow)
	require.NotNil(t, critical)
	assert.Equal(t, AlertCritical, critical.Status)
	assert.Equal(t, 3, critical.DaysUntilExpiration)

	warning := ClassifyExpiring(expiringIn(6*day), "", 7, testNow)
	require.NotNil(t, warning)
	assert.Equal(t, AlertWarning, warning.Status)
	assert.Equal(t, UnknownProductName, warning.ProductName)

	assert.Nil(t, ClassifyExpiring(expiringIn(8*day), "Milk", 7, testNow))
	assert.NotNil(t, ClassifyExpiring(expiringIn(8*day), "Milk", 30, testNow))

	empty := expiringIn(day)
	empty.CurrentQuantity = dec("0")
	assert.Nil(t, ClassifyExpiring(empty, "Milk", 7, testNow))
	assert.Nil(t, ClassifyExpiring(testBatch("b", "p1", "5", testNow), "Milk", 7, testNow))
}

func TestSortExpiringAlerts(t *testing.T) {
	alerts := []ExpiringAlert{
		{BatchID: "w", Status: AlertWarning, DaysUntilExpiration: 5},
		{BatchID: "c2", Status: AlertCritical, DaysUntilExpiration: 3},
		{BatchID: "e", Status: AlertExpired, DaysUntilExpiration: -2},
		{BatchID: "c1", Status: AlertCritical, DaysUntilExpiration: 1},
	}
	SortExpiringAlerts(alerts)

	var order []string
	for _, a := range alerts {
		order = append(order, a.BatchID)
	}
	assert.Equal(t, []string{"e", "c1", "c2", "w"}, order)
}

func TestClampExpiringDays(t *testing.T) {
	assert.Equal(t, 7, ClampExpiringDays(0))
	assert.Equal(t, 7, ClampExpiringDays(-3))
	assert.Equal(t, 30, ClampExpiringDays(30))
	assert.Equal(t, 365, ClampExpiringDays(1000))
}
