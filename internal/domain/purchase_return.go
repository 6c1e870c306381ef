package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnReason explains why goods went back to the supplier.
type ReturnReason string

const (
	ReasonDamaged  ReturnReason = "damaged"
	ReasonExpired  ReturnReason = "expired"
	ReasonExchange ReturnReason = "exchange"
	ReasonOther    ReturnReason = "other"
)

// IsValid reports whether r is a known return reason.
func (r ReturnReason) IsValid() bool {
	switch r {
	case ReasonDamaged, ReasonExpired, ReasonExchange, ReasonOther:
		return true
	}
	return false
}

// ReturnType is how the supplier settles a return.
type ReturnType string

const (
	ReturnRefund   ReturnType = "refund"
	ReturnExchange ReturnType = "exchange"
	ReturnCredit   ReturnType = "credit"
)

// IsValid reports whether t is a known return type.
func (t ReturnType) IsValid() bool {
	switch t {
	case ReturnRefund, ReturnExchange, ReturnCredit:
		return true
	}
	return false
}

// PurchaseReturnItem is one returned batch line.
type PurchaseReturnItem struct {
	ProductID        string          `bson:"product_id" json:"product_id"`
	ProductName      string          `bson:"product_name" json:"product_name"`
	BatchID          string          `bson:"batch_id" json:"batch_id"`
	QuantityReturned decimal.Decimal `bson:"quantity_returned" json:"quantity_returned"`
	UnitCost         decimal.Decimal `bson:"unit_cost" json:"unit_cost"`
	Subtotal         decimal.Decimal `bson:"subtotal" json:"subtotal"`
	Reason           ReturnReason    `bson:"reason" json:"reason"`
	Notes            *string         `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PurchaseReturn sends part of a received purchase back to its supplier.
type PurchaseReturn struct {
	ID             string               `bson:"_id" json:"id"`
	ReturnNumber   string               `bson:"return_number" json:"return_number"`
	PurchaseID     string               `bson:"purchase_id" json:"purchase_id"`
	PurchaseNumber string               `bson:"purchase_number" json:"purchase_number"`
	SupplierID     string               `bson:"supplier_id" json:"supplier_id"`
	SupplierName   string               `bson:"supplier_name" json:"supplier_name"`
	Items          []PurchaseReturnItem `bson:"items" json:"items"`
	ReturnType     ReturnType           `bson:"return_type" json:"return_type"`
	TotalRefund    decimal.Decimal      `bson:"total_refund" json:"total_refund"`
	ReturnDate     time.Time            `bson:"return_date" json:"return_date"`
	CreatedBy      string               `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
}

// ReturnLine is a requested return line.
type ReturnLine struct {
	BatchID  string
	Quantity decimal.Decimal
	Reason   ReturnReason
	Notes    *string
}

// ValidateReturnRequest checks what can be checked without reading stock.
func ValidateReturnRequest(lines []ReturnLine, returnType ReturnType) error {
	if len(lines) == 0 {
		return InvalidArgumentf("a return needs at least one item")
	}
	if !returnType.IsValid() {
		return InvalidArgumentf("return_type must be one of refund, exchange, credit")
	}
	for i, line := range lines {
		if line.BatchID == "" {
			return InvalidArgumentf("items[%d].batch_id is required", i)
		}
		if !line.Quantity.IsPositive() {
			return InvalidArgumentf("items[%d].quantity_returned must be greater than 0", i)
		}
		if !line.Reason.IsValid() {
			return InvalidArgumentf("items[%d].reason must be one of damaged, expired, exchange, other", i)
		}
	}
	return nil
}

// ReturnTotals sums the requested quantity per batch in first-seen order.
func ReturnTotals(lines []ReturnLine) []AllocationLine {
	totals := make(map[string]decimal.Decimal, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, seen := totals[line.BatchID]; !seen {
			order = append(order, line.BatchID)
		}
		totals[line.BatchID] = totals[line.BatchID].Add(line.Quantity)
	}
	out := make([]AllocationLine, 0, len(order))
	for _, id := range order {
		out = append(out, AllocationLine{BatchID: id, Quantity: totals[id]})
	}
	return out
}

// NewReturnParams holds the inputs of a return. Batches maps every batch id
// named by Lines to its current state.
type NewReturnParams struct {
	ID         string
	Number     string
	Purchase   *Purchase
	Batches    map[string]*InventoryBatch
	Lines      []ReturnLine
	ReturnType ReturnType
	ReturnDate *time.Time
	CreatedBy  string
}

// NewPurchaseReturn builds a return against a received purchase. Each
// batch must belong to the purchase and hold at least the summed quantity
// returned from it. Batches are not mutated.
func NewPurchaseReturn(p NewReturnParams, now time.Time) (*PurchaseReturn, error) {
	if err := ValidateReturnRequest(p.Lines, p.ReturnType); err != nil {
		return nil, err
	}
	if p.Purchase.Status != PurchaseReceived {
		return nil, InvalidStatef("purchase %s is %s; only received purchases can be returned", p.Purchase.PurchaseNumber, p.Purchase.Status)
	}

	names := make(map[string]string, len(p.Purchase.Items))
	for _, item := range p.Purchase.Items {
		if item.BatchID != nil {
			names[*item.BatchID] = item.ProductName
		}
	}

	for _, total := range ReturnTotals(p.Lines) {
		batch, ok := p.Batches[total.BatchID]
		if !ok {
			return nil, NotFoundf("batch %s not found", total.BatchID)
		}
		if _, ok := names[total.BatchID]; !ok {
			return nil, InvalidArgumentf("batch %s does not belong to purchase %s", total.BatchID, p.Purchase.PurchaseNumber)
		}
		if total.Quantity.GreaterThan(batch.CurrentQuantity) {
			return nil, InvalidArgumentf("quantity returned (%s) exceeds the current stock of batch %s (%s)",
				total.Quantity, total.BatchID, batch.CurrentQuantity)
		}
	}

	returnDate := now
	if p.ReturnDate != nil {
		returnDate = p.ReturnDate.UTC()
	}

	ret := &PurchaseReturn{
		ID:             p.ID,
		ReturnNumber:   p.Number,
		PurchaseID:     p.Purchase.ID,
		PurchaseNumber: p.Purchase.PurchaseNumber,
		SupplierID:     p.Purchase.SupplierID,
		SupplierName:   p.Purchase.SupplierName,
		Items:          make([]PurchaseReturnItem, 0, len(p.Lines)),
		ReturnType:     p.ReturnType,
		TotalRefund:    decimal.Zero,
		ReturnDate:     returnDate,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      now,
	}
	for _, line := range p.Lines {
		batch := p.Batches[line.BatchID]
		subtotal := line.Quantity.Mul(batch.PurchasePrice)
		ret.Items = append(ret.Items, PurchaseReturnItem{
			ProductID:        batch.ProductID,
			ProductName:      names[line.BatchID],
			BatchID:          line.BatchID,
			QuantityReturned: line.Quantity,
			UnitCost:         batch.PurchasePrice,
			Subtotal:         subtotal,
			Reason:           line.Reason,
			Notes:            emptyToNil(line.Notes),
		})
		ret.TotalRefund = ret.TotalRefund.Add(subtotal)
	}
	return ret, nil
}

// ReturnFilter selects returns in listings.
type ReturnFilter struct {
	PurchaseID string
	SupplierID string
	ReturnType ReturnType
	Period     DateRange
}
