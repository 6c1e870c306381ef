package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationLine is the quantity a plan takes from one batch.
type AllocationLine struct {
	BatchID  string          `bson:"batch_id" json:"batch_id"`
	Quantity decimal.Decimal `bson:"quantity_used" json:"quantity_used"`
}

// Allocate plans the consumption of requested units of a product, oldest
// entry date first, skipping batches without stock and batches expired at
// now. Batches with equal entry dates keep their input order. Nothing is
// mutated; the plan is committed separately inside an atomic unit.
func Allocate(productID string, requested decimal.Decimal, batches []*InventoryBatch, now time.Time) ([]AllocationLine, error) {
	return allocate(productID, requested, batches, now, nil)
}

func allocate(productID string, requested decimal.Decimal, batches []*InventoryBatch, now time.Time, reserved map[string]decimal.Decimal) ([]AllocationLine, error) {
	if !requested.IsPositive() {
		return nil, InvalidArgumentf("requested quantity must be greater than 0")
	}

	type candidate struct {
		batch     *InventoryBatch
		available decimal.Decimal
	}

	candidates := make([]candidate, 0, len(batches))
	available := decimal.Zero
	for _, b := range batches {
		if b.ProductID != productID || b.IsExpired(now) {
			continue
		}
		left := b.CurrentQuantity.Sub(reserved[b.ID])
		if !left.IsPositive() {
			continue
		}
		candidates = append(candidates, candidate{batch: b, available: left})
		available = available.Add(left)
	}

	if available.LessThan(requested) {
		return nil, InsufficientStockf("insufficient stock for product %s: available %s, requested %s",
			productID, available, requested)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].batch.EntryDate.Before(candidates[j].batch.EntryDate)
	})

	remaining := requested
	plan := make([]AllocationLine, 0, len(candidates))
	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		used := decimal.Min(remaining, c.available)
		plan = append(plan, AllocationLine{BatchID: c.batch.ID, Quantity: used})
		remaining = remaining.Sub(used)
	}

	return plan, nil
}

// Planner allocates several lines against the same stock snapshot, so a
// product appearing on two lines is planned against what the first line
// left over.
type Planner struct {
	now      time.Time
	reserved map[string]decimal.Decimal
	order    []string
}

// NewPlanner returns a planner evaluating expiry at now.
func NewPlanner(now time.Time) *Planner {
	return &Planner{now: now, reserved: make(map[string]decimal.Decimal)}
}

// Plan allocates one line and records its usage.
func (p *Planner) Plan(productID string, requested decimal.Decimal, batches []*InventoryBatch) ([]AllocationLine, error) {
	plan, err := allocate(productID, requested, batches, p.now, p.reserved)
	if err != nil {
		return nil, err
	}
	for _, line := range plan {
		if _, seen := p.reserved[line.BatchID]; !seen {
			p.order = append(p.order, line.BatchID)
		}
		p.reserved[line.BatchID] = p.reserved[line.BatchID].Add(line.Quantity)
	}
	return plan, nil
}

// Totals returns the summed usage per batch in first-use order. This is
// what the commit applies, one guarded write per batch.
func (p *Planner) Totals() []AllocationLine {
	totals := make([]AllocationLine, 0, len(p.order))
	for _, id := range p.order {
		totals = append(totals, AllocationLine{BatchID: id, Quantity: p.reserved[id]})
	}
	return totals
}
