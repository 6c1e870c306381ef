package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/internal/infrastructure/memory"
	apperrors "github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
)

var fixtureNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	catalog   *memory.Catalog
	sequences *memory.Sequences
	faults    *memory.Faults
	clock     time.Time
	deps      Deps

	ledger      *LedgerService
	adjustments *AdjustmentService
	sales       *SaleService
	purchases   *PurchaseService
	returns     *ReturnService
	alerts      *AlertService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	faults := &memory.Faults{}
	f := &fixture{
		store:     memory.NewStore(memory.WithFaults(faults)),
		catalog:   memory.NewCatalog(),
		sequences: memory.NewSequences(memory.WithFaults(faults)),
		faults:    faults,
		clock:     fixtureNow,
	}
	f.catalog.AddProduct(domain.Product{ID: "p1", Name: "Tomato", SaleType: domain.SaleByWeight, MinSaleQuantity: decPtr("2"), IsActive: true})
	f.catalog.AddProduct(domain.Product{ID: "p2", Name: "Soap", SaleType: domain.SaleByPiece, IsActive: true})
	f.catalog.AddProduct(domain.Product{ID: "p3", Name: "Retired", SaleType: domain.SaleByPiece, IsActive: false})
	f.catalog.AddSupplier(domain.Supplier{ID: "s1", Name: "Acme"})

	n := 0
	f.deps = Deps{
		Store:     f.store,
		Products:  f.catalog,
		Suppliers: f.catalog.Suppliers(),
		Sequences: f.sequences,
		Logger:    logging.NewNop(),
		Clock:     func() time.Time { return f.clock },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	}
	f.ledger = NewLedgerService(f.deps)
	f.adjustments = NewAdjustmentService(f.deps)
	f.sales = NewSaleService(f.deps)
	f.purchases = NewPurchaseService(f.deps)
	f.returns = NewReturnService(f.deps)
	f.alerts = NewAlertService(f.deps)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

// addBatch enters a batch with the given entry date offset in days.
func (f *fixture) addBatch(t *testing.T, productID, qty string, daysAgo int) *domain.InventoryBatch {
	t.Helper()
	entry := fixtureNow.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
	b, err := f.ledger.CreateBatch(context.Background(), CreateBatchCommand{
		ProductID:       productID,
		SupplierID:      "s1",
		InitialQuantity: dec(qty),
		PurchasePrice:   dec("1.25"),
		EntryDate:       &entry,
		ActorID:         "manager-1",
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) batch(t *testing.T, id string) *domain.InventoryBatch {
	t.Helper()
	b, err := f.store.Batches().Get(context.Background(), id)
	require.NoError(t, err)
	return b
}

func assertKind(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

// forceQuantity overwrites a batch's quantity behind the services' back, the
// way a concurrent writer would.
func (f *fixture) forceQuantity(t *testing.T, id, qty string) {
	t.Helper()
	ctx := context.Background()
	b, err := f.store.Batches().Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.store.Batches().SetQuantity(ctx, id, b.CurrentQuantity, dec(qty), f.clock))
}
