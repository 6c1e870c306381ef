package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseType is the commercial arrangement of a purchase.
type PurchaseType string

const (
	PurchaseDirect       PurchaseType = "direct"
	PurchaseConsignment  PurchaseType = "consignment"
	PurchaseSelfPurchase PurchaseType = "self_purchase"
)

// PurchaseTypes lists every purchase type.
var PurchaseTypes = []PurchaseType{PurchaseDirect, PurchaseConsignment, PurchaseSelfPurchase}

// IsValid reports whether t is a known purchase type.
func (t PurchaseType) IsValid() bool {
	switch t {
	case PurchaseDirect, PurchaseConsignment, PurchaseSelfPurchase:
		return true
	}
	return false
}

// PurchaseStatus moves pending -> received, or pending -> cancelled.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseReceived  PurchaseStatus = "received"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// PurchaseStatuses lists every purchase status.
var PurchaseStatuses = []PurchaseStatus{PurchasePending, PurchaseReceived, PurchaseCancelled}

// IsValid reports whether s is a known purchase status.
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchasePending, PurchaseReceived, PurchaseCancelled:
		return true
	}
	return false
}

// PurchaseItem is one line of a purchase. BatchID stays nil until the
// purchase is received.
type PurchaseItem struct {
	ProductID      string          `bson:"product_id" json:"product_id"`
	ProductName    string          `bson:"product_name" json:"product_name"`
	Quantity       decimal.Decimal `bson:"quantity" json:"quantity"`
	UnitCost       decimal.Decimal `bson:"unit_cost" json:"unit_cost"`
	Subtotal       decimal.Decimal `bson:"subtotal" json:"subtotal"`
	ExpirationDate *time.Time      `bson:"expiration_date,omitempty" json:"expiration_date,omitempty"`
	BatchNumber    *string         `bson:"batch_number,omitempty" json:"batch_number,omitempty"`
	BatchID        *string         `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
}

// Purchase is a purchase order from one supplier.
type Purchase struct {
	ID             string         `bson:"_id" json:"id"`
	PurchaseNumber string         `bson:"purchase_number" json:"purchase_number"`
	SupplierID     string         `bson:"supplier_id" json:"supplier_id"`
	SupplierName   string         `bson:"supplier_name" json:"supplier_name"`
	PurchaseType   PurchaseType   `bson:"purchase_type" json:"purchase_type"`
	Status         PurchaseStatus `bson:"status" json:"status"`
	Items          []PurchaseItem `bson:"items" json:"items"`

	Subtotal decimal.Decimal `bson:"subtotal" json:"subtotal"`
	Tax      decimal.Decimal `bson:"tax" json:"tax"`
	Total    decimal.Decimal `bson:"total" json:"total"`

	PurchaseDate  time.Time  `bson:"purchase_date" json:"purchase_date"`
	ReceivedDate  *time.Time `bson:"received_date,omitempty" json:"received_date,omitempty"`
	CancelledDate *time.Time `bson:"cancelled_date,omitempty" json:"cancelled_date,omitempty"`

	InvoiceNumber *string `bson:"invoice_number,omitempty" json:"invoice_number,omitempty"`
	Notes         *string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedBy  string    `bson:"created_by" json:"created_by"`
	ReceivedBy *string   `bson:"received_by,omitempty" json:"received_by,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// PurchaseLine is a requested purchase line with its product resolved.
type PurchaseLine struct {
	Product        *Product
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ExpirationDate *time.Time
	BatchNumber    *string
}

// NewPurchaseParams holds the inputs of a new purchase.
type NewPurchaseParams struct {
	ID            string
	Number        string
	Supplier      *Supplier
	PurchaseType  PurchaseType
	Lines         []PurchaseLine
	Tax           *decimal.Decimal
	PurchaseDate  *time.Time
	InvoiceNumber *string
	Notes         *string
	CreatedBy     string
}

// ValidatePurchaseLines checks the lines of a new purchase. Expiration
// dates in the past are rejected.
func ValidatePurchaseLines(lines []PurchaseLine, now time.Time) error {
	if len(lines) == 0 {
		return InvalidArgumentf("a purchase needs at least one item")
	}
	for i, line := range lines {
		if !line.Quantity.IsPositive() {
			return InvalidArgumentf("items[%d].quantity must be greater than 0", i)
		}
		if line.UnitCost.IsNegative() {
			return InvalidArgumentf("items[%d].unit_cost must not be negative", i)
		}
		if line.ExpirationDate != nil && line.ExpirationDate.Before(now) {
			return InvalidArgumentf("expiration date of %s is in the past", line.Product.Name)
		}
	}
	return nil
}

// NewPurchase creates a pending purchase. Tax defaults to 0 and the
// purchase date to now.
func NewPurchase(p NewPurchaseParams, now time.Time) (*Purchase, error) {
	if !p.PurchaseType.IsValid() {
		return nil, InvalidArgumentf("purchase_type must be one of direct, consignment, self_purchase")
	}
	if err := ValidatePurchaseLines(p.Lines, now); err != nil {
		return nil, err
	}

	tax := decimal.Zero
	if p.Tax != nil {
		if p.Tax.IsNegative() {
			return nil, InvalidArgumentf("tax must not be negative")
		}
		tax = *p.Tax
	}

	purchaseDate := now
	if p.PurchaseDate != nil {
		purchaseDate = p.PurchaseDate.UTC()
	}

	purchase := &Purchase{
		ID:             p.ID,
		PurchaseNumber: p.Number,
		SupplierID:     p.Supplier.ID,
		SupplierName:   p.Supplier.Name,
		PurchaseType:   p.PurchaseType,
		Status:         PurchasePending,
		Items:          make([]PurchaseItem, 0, len(p.Lines)),
		Subtotal:       decimal.Zero,
		Tax:            tax,
		PurchaseDate:   purchaseDate,
		InvoiceNumber:  emptyToNil(p.InvoiceNumber),
		Notes:          emptyToNil(p.Notes),
		CreatedBy:      p.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, line := range p.Lines {
		subtotal := line.Quantity.Mul(line.UnitCost)
		purchase.Items = append(purchase.Items, PurchaseItem{
			ProductID:      line.Product.ID,
			ProductName:    line.Product.Name,
			Quantity:       line.Quantity,
			UnitCost:       line.UnitCost,
			Subtotal:       subtotal,
			ExpirationDate: utcPtr(line.ExpirationDate),
			BatchNumber:    emptyToNil(line.BatchNumber),
		})
		purchase.Subtotal = purchase.Subtotal.Add(subtotal)
	}
	purchase.Total = purchase.Subtotal.Add(tax)

	return purchase, nil
}

// IsPending reports whether the purchase can still change.
func (p *Purchase) IsPending() bool {
	return p.Status == PurchasePending
}

func (p *Purchase) requirePending(action string) error {
	if !p.IsPending() {
		return InvalidStatef("only pending purchases can be %s; purchase %s is %s", action, p.PurchaseNumber, p.Status)
	}
	return nil
}

// ReceiptBatchNumber is the batch number used for a received line: the
// line's own, or the purchase number plus the first six characters of the
// product id.
func (p *Purchase) ReceiptBatchNumber(item PurchaseItem) string {
	if item.BatchNumber != nil {
		return *item.BatchNumber
	}
	productID := item.ProductID
	if len(productID) > 6 {
		productID = productID[:6]
	}
	return fmt.Sprintf("%s-%s", p.PurchaseNumber, productID)
}

// Receive creates one batch per line, records the batch ids on the lines
// and moves the purchase to received. On error the purchase is unchanged.
func (p *Purchase) Receive(actorID string, newID func() string, now time.Time) ([]*InventoryBatch, error) {
	if err := p.requirePending("received"); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Purchase %s", p.PurchaseNumber)
	purchaseID := p.ID
	batches := make([]*InventoryBatch, 0, len(p.Items))
	batchIDs := make([]string, 0, len(p.Items))

	for _, item := range p.Items {
		batchNumber := p.ReceiptBatchNumber(item)
		entry := p.PurchaseDate
		batch, err := NewBatch(NewBatchParams{
			ID:             newID(),
			ProductID:      item.ProductID,
			SupplierID:     p.SupplierID,
			BatchNumber:    &batchNumber,
			Quantity:       item.Quantity,
			PurchasePrice:  item.UnitCost,
			EntryDate:      &entry,
			ExpirationDate: item.ExpirationDate,
			Notes:          &notes,
			PurchaseID:     &purchaseID,
			CreatedBy:      actorID,
		}, now)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
		batchIDs = append(batchIDs, batch.ID)
	}

	for i := range p.Items {
		id := batchIDs[i]
		p.Items[i].BatchID = &id
	}
	p.Status = PurchaseReceived
	p.ReceivedDate = &now
	p.ReceivedBy = &actorID
	p.UpdatedAt = now

	return batches, nil
}

// Cancel moves a pending purchase to cancelled.
func (p *Purchase) Cancel(now time.Time) error {
	if err := p.requirePending("cancelled"); err != nil {
		return err
	}
	p.Status = PurchaseCancelled
	p.CancelledDate = &now
	p.UpdatedAt = now
	return nil
}

// PurchaseUpdate carries metadata edits of a pending purchase. Nil leaves
// a field as is; an empty string clears it.
type PurchaseUpdate struct {
	InvoiceNumber *string
	Notes         *string
}

// ApplyUpdate edits the metadata of a pending purchase.
func (p *Purchase) ApplyUpdate(u PurchaseUpdate, now time.Time) error {
	if err := p.requirePending("edited"); err != nil {
		return err
	}
	if u.InvoiceNumber != nil {
		p.InvoiceNumber = emptyToNil(u.InvoiceNumber)
	}
	if u.Notes != nil {
		p.Notes = emptyToNil(u.Notes)
	}
	p.UpdatedAt = now
	return nil
}

// HasBatch reports whether one of the purchase lines was received into
// batchID.
func (p *Purchase) HasBatch(batchID string) bool {
	for _, item := range p.Items {
		if item.BatchID != nil && *item.BatchID == batchID {
			return true
		}
	}
	return false
}

// PurchaseFilter selects purchases in listings and stats.
type PurchaseFilter struct {
	SupplierID   string
	PurchaseType PurchaseType
	Status       PurchaseStatus
	Period       DateRange
}

// CountAmount is a count with the amount it adds up to.
type CountAmount struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// PurchaseStats aggregates purchases.
type PurchaseStats struct {
	TotalPurchases int                            `json:"total_purchases"`
	TotalAmount    decimal.Decimal                `json:"total_amount"`
	TotalItems     decimal.Decimal                `json:"total_items"`
	ByType         map[PurchaseType]CountAmount   `json:"by_type"`
	ByStatus       map[PurchaseStatus]CountAmount `json:"by_status"`
}

// SummarizePurchases reduces purchases into totals by type and status.
func SummarizePurchases(purchases []*Purchase) PurchaseStats {
	stats := PurchaseStats{
		TotalAmount: decimal.Zero,
		TotalItems:  decimal.Zero,
		ByType:      make(map[PurchaseType]CountAmount, len(PurchaseTypes)),
		ByStatus:    make(map[PurchaseStatus]CountAmount, len(PurchaseStatuses)),
	}
	for _, t := range PurchaseTypes {
		stats.ByType[t] = CountAmount{Amount: decimal.Zero}
	}
	for _, s := range PurchaseStatuses {
		stats.ByStatus[s] = CountAmount{Amount: decimal.Zero}
	}

	for _, p := range purchases {
		stats.TotalPurchases++
		stats.TotalAmount = stats.TotalAmount.Add(p.Total)
		for _, item := range p.Items {
			stats.TotalItems = stats.TotalItems.Add(item.Quantity)
		}

		byType := stats.ByType[p.PurchaseType]
		byType.Count++
		byType.Amount = byType.Amount.Add(p.Total)
		stats.ByType[p.PurchaseType] = byType

		byStatus := stats.ByStatus[p.Status]
		byStatus.Count++
		byStatus.Amount = byStatus.Amount.Add(p.Total)
		stats.ByStatus[p.Status] = byStatus
	}
	return stats
}
