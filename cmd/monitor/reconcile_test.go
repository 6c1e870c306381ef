package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/internal/infrastructure/memory"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seededStore(t *testing.T) (*memory.Store, string, string) {
	t.Helper()
	ctx := context.Background()

	catalog := memory.NewCatalog()
	catalog.AddProduct(domain.Product{ID: "p1", Name: "Rice", SaleType: domain.SaleByWeight, IsActive: true})
	catalog.AddProduct(domain.Product{ID: "p2", Name: "Soap", SaleType: domain.SaleByPiece, IsActive: true})
	catalog.AddSupplier(domain.Supplier{ID: "s1", Name: "Acme"})

	store := memory.NewStore()
	n := 0
	deps := application.Deps{
		Store:     store,
		Products:  catalog,
		Suppliers: catalog.Suppliers(),
		Sequences: memory.NewSequences(),
		Logger:    logging.NewNop(),
		Clock:     func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	}

	manual, err := application.NewLedgerService(deps).CreateBatch(ctx, application.CreateBatchCommand{
		ProductID: "p1", SupplierID: "s1", InitialQuantity: dec("12.5"), PurchasePrice: dec("1"), ActorID: "u1",
	})
	require.NoError(t, err)

	_, err = application.NewSaleService(deps).CreateSale(ctx, application.CreateSaleCommand{
		Items:         []application.SaleItemInput{{ProductID: "p1", Quantity: dec("4.25"), UnitPrice: dec("2")}},
		PaymentMethod: "cash",
		ActorID:       "u1",
	})
	require.NoError(t, err)

	_, err = application.NewAdjustmentService(deps).CreateAdjustment(ctx, application.CreateAdjustmentCommand{
		BatchID: manual.ID, AdjustmentType: "waste_damaged", Quantity: dec("-0.25"), Reason: "spilled", ActorID: "u1",
	})
	require.NoError(t, err)

	purchases := application.NewPurchaseService(deps)
	purchase, err := purchases.CreatePurchase(ctx, application.CreatePurchaseCommand{
		SupplierID:   "s1",
		PurchaseType: "direct",
		Items:        []application.PurchaseItemInput{{ProductID: "p2", Quantity: dec("10"), UnitCost: dec("3")}},
		ActorID:      "u1",
	})
	require.NoError(t, err)
	receipt, err := purchases.MarkReceived(ctx, purchase.ID, "u1")
	require.NoError(t, err)
	received := receipt.Batches[0].ID

	_, err = application.NewReturnService(deps).CreateReturn(ctx, application.CreateReturnCommand{
		PurchaseID: purchase.ID,
		ReturnType: "refund",
		Items:      []application.ReturnItemInput{{BatchID: received, QuantityReturned: dec("3"), Reason: "damaged"}},
		ActorID:    "u1",
	})
	require.NoError(t, err)

	return store, manual.ID, received
}

func TestReconcileConsistentLedger(t *testing.T) {
	store, _, _ := seededStore(t)

	report, err := newReconciler(store, 1).Run(context.Background(), domain.BatchFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.BatchesChecked)
	assert.Empty(t, report.Discrepancies)
}

func TestReconcileFlagsDriftedBatch(t *testing.T) {
	store, manual, received := seededStore(t)
	// the stored quantity drifts from its history, as after a manual edit
	ctx := context.Background()
	require.NoError(t, store.Batches().SetQuantity(ctx, received, dec("7"), dec("9"), time.Now()))

	report, err := newReconciler(store, 0).Run(ctx, domain.BatchFilter{})
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)

	d := report.Discrepancies[0]
	assert.Equal(t, received, d.BatchID)
	assert.True(t, d.Expected.Equal(dec("7")), d.Expected.String())
	assert.True(t, d.Returned.Equal(dec("3")))
	assert.True(t, d.Stored.Equal(dec("9")))

	report, err = newReconciler(store, 0).Run(ctx, domain.BatchFilter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.BatchesChecked)
	assert.Empty(t, report.Discrepancies, "batch %s is consistent", manual)
}
