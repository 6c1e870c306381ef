package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// ledgerReader is the read side the reconciliation needs.
type ledgerReader interface {
	Batches() domain.BatchRepository
	Adjustments() domain.AdjustmentRepository
	Returns() domain.ReturnRepository
	MovementsByBatch(ctx context.Context, batchID string) ([]*domain.SaleInventoryMovement, error)
}

// Discrepancy is a batch whose stored quantity disagrees with its history.
type Discrepancy struct {
	BatchID   string          `json:"batch_id"`
	ProductID string          `json:"product_id"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
	Sold      decimal.Decimal `json:"sold"`
	Adjusted  decimal.Decimal `json:"adjusted"`
	Returned  decimal.Decimal `json:"returned"`
}

// Report summarizes one reconciliation run.
type Report struct {
	BatchesChecked int           `json:"batches_checked"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
}

// reconciler replays each batch's movements, adjustments and returns.
type reconciler struct {
	ledger   ledgerReader
	pageSize int64

	// returns of a purchase are shared by all of its batches
	returnsByPurchase map[string][]*domain.PurchaseReturn
}

func newReconciler(ledger ledgerReader, pageSize int64) *reconciler {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &reconciler{
		ledger:            ledger,
		pageSize:          pageSize,
		returnsByPurchase: make(map[string][]*domain.PurchaseReturn),
	}
}

// Run checks every batch matching filter.
func (r *reconciler) Run(ctx context.Context, filter domain.BatchFilter) (*Report, error) {
	report := &Report{Discrepancies: []Discrepancy{}}

	for page := int64(1); ; page++ {
		batches, total, err := r.ledger.Batches().List(ctx, filter, domain.Page{Number: page, Size: r.pageSize})
		if err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		for _, b := range batches {
			d, err := r.check(ctx, b)
			if err != nil {
				return nil, err
			}
			report.BatchesChecked++
			if d != nil {
				report.Discrepancies = append(report.Discrepancies, *d)
			}
		}
		if len(batches) == 0 || page*r.pageSize >= total {
			return report, nil
		}
	}
}

func (r *reconciler) check(ctx context.Context, b *domain.InventoryBatch) (*Discrepancy, error) {
	movements, err := r.ledger.MovementsByBatch(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("movements of batch %s: %w", b.ID, err)
	}
	adjustments, err := r.ledger.Adjustments().ListByBatch(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("adjustments of batch %s: %w", b.ID, err)
	}
	returned, err := r.returnedFrom(ctx, b)
	if err != nil {
		return nil, err
	}

	sold := decimal.Zero
	for _, m := range movements {
		sold = sold.Add(m.Quantity.Abs())
	}
	adjusted := decimal.Zero
	for _, a := range adjustments {
		adjusted = adjusted.Add(a.Quantity)
	}

	expected := b.InitialQuantity.Sub(sold).Add(adjusted).Sub(returned)
	if expected.Equal(b.CurrentQuantity) {
		return nil, nil
	}
	return &Discrepancy{
		BatchID:   b.ID,
		ProductID: b.ProductID,
		Stored:    b.CurrentQuantity,
		Expected:  expected,
		Sold:      sold,
		Adjusted:  adjusted,
		Returned:  returned,
	}, nil
}

// returnedFrom sums the quantities returned from b. Only batches created
// by a purchase receipt can be returned.
func (r *reconciler) returnedFrom(ctx context.Context, b *domain.InventoryBatch) (decimal.Decimal, error) {
	total := decimal.Zero
	if b.PurchaseID == nil {
		return total, nil
	}

	returns, ok := r.returnsByPurchase[*b.PurchaseID]
	if !ok {
		var err error
		returns, err = r.ledger.Returns().ListByPurchase(ctx, *b.PurchaseID)
		if err != nil {
			return total, fmt.Errorf("returns of purchase %s: %w", *b.PurchaseID, err)
		}
		r.returnsByPurchase[*b.PurchaseID] = returns
	}

	for _, ret := range returns {
		for _, item := range ret.Items {
			if item.BatchID == b.ID {
				total = total.Add(item.QuantityReturned)
			}
		}
	}
	return total, nil
}
