package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

func TestAlertService_LowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBatch(t, "p1", "1.5", 1)
	f.addBatch(t, "p3", "1", 1)

	alerts, err := f.alerts.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "p2", alerts[0].ProductID)
	assert.Equal(t, domain.AlertCritical, alerts[0].Status)
	assert.Equal(t, "p1", alerts[1].ProductID)
	assert.Equal(t, domain.AlertWarning, alerts[1].Status)
	assert.True(t, alerts[1].MinSaleQuantity.Equal(dec("2")))

	f.addBatch(t, "p1", "1", 1)
	f.addBatch(t, "p2", "1", 1)
	alerts, err = f.alerts.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlertService_Expiring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	add := func(productID, expires string) *domain.InventoryBatch {
		b, err := f.ledger.CreateBatch(ctx, CreateBatchCommand{
			ProductID:       productID,
			SupplierID:      "s1",
			InitialQuantity: dec("3"),
			PurchasePrice:   dec("1"),
			ExpirationDate:  strPtr(expires),
		})
		require.NoError(t, err)
		return b
	}
	warning := add("p1", "2025-03-16")
	expired := add("p2", "2025-03-09")
	critical := add("p1", "2025-03-12")
	later := add("p2", "2025-03-30")
	empty := add("p1", "2025-03-11")
	f.forceQuantity(t, empty.ID, "0")
	_, err := f.ledger.CreateBatch(ctx, CreateBatchCommand{ProductID: "p1", SupplierID: "s1", InitialQuantity: dec("1"), PurchasePrice: dec("1")})
	require.NoError(t, err)

	alerts, err := f.alerts.Expiring(ctx, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, expired.ID, alerts[0].BatchID)
	assert.Equal(t, domain.AlertExpired, alerts[0].Status)
	assert.Equal(t, -1, alerts[0].DaysUntilExpiration)
	assert.Equal(t, critical.ID, alerts[1].BatchID)
	assert.Equal(t, 2, alerts[1].DaysUntilExpiration)
	assert.Equal(t, warning.ID, alerts[2].BatchID)
	assert.Equal(t, domain.AlertWarning, alerts[2].Status)
	assert.Equal(t, "Tomato", alerts[2].ProductName)

	wide, err := f.alerts.Expiring(ctx, 30)
	require.NoError(t, err)
	require.Len(t, wide, 4)
	assert.Equal(t, later.ID, wide[3].BatchID)
}
