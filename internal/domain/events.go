package domain

import (
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/shopspring/decimal"
)

// Aggregate types carried on outbox records.
const (
	AggregateBatch      = "inventory_batch"
	AggregateAdjustment = "inventory_adjustment"
	AggregateSale       = "sale"
	AggregatePurchase   = "purchase"
	AggregateReturn     = "purchase_return"
)

// DomainEvent is recorded in the same atomic unit as the state change it
// announces.
type DomainEvent interface {
	EventType() string
	AggregateType() string
	AggregateID() string
	OccurredAt() time.Time
}

// BatchCreatedEvent is recorded when a batch enters the ledger.
type BatchCreatedEvent struct {
	BatchID        string          `json:"batch_id"`
	ProductID      string          `json:"product_id"`
	SupplierID     string          `json:"supplier_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	EntryDate      time.Time       `json:"entry_date"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	PurchaseID     *string         `json:"purchase_id,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (e *BatchCreatedEvent) EventType() string     { return cloudevents.BatchCreated }
func (e *BatchCreatedEvent) AggregateType() string { return AggregateBatch }
func (e *BatchCreatedEvent) AggregateID() string   { return e.BatchID }
func (e *BatchCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// NewBatchCreatedEvent describes b.
func NewBatchCreatedEvent(b *InventoryBatch) *BatchCreatedEvent {
	return &BatchCreatedEvent{
		BatchID:        b.ID,
		ProductID:      b.ProductID,
		SupplierID:     b.SupplierID,
		Quantity:       b.InitialQuantity,
		PurchasePrice:  b.PurchasePrice,
		EntryDate:      b.EntryDate,
		ExpirationDate: b.ExpirationDate,
		PurchaseID:     b.PurchaseID,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
	}
}

// BatchUpdatedEvent is recorded when batch metadata changes.
type BatchUpdatedEvent struct {
	BatchID        string     `json:"batch_id"`
	BatchNumber    *string    `json:"batch_number,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	UpdatedBy      string     `json:"updated_by"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *BatchUpdatedEvent) EventType() string     { return cloudevents.BatchUpdated }
func (e *BatchUpdatedEvent) AggregateType() string { return AggregateBatch }
func (e *BatchUpdatedEvent) AggregateID() string   { return e.BatchID }
func (e *BatchUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// InventoryAdjustedEvent is recorded with every adjustment.
type InventoryAdjustedEvent struct {
	AdjustmentID     string          `json:"adjustment_id"`
	BatchID          string          `json:"batch_id"`
	ProductID        string          `json:"product_id"`
	AdjustmentType   AdjustmentType  `json:"adjustment_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Reason           string          `json:"reason"`
	AdjustedBy       string          `json:"adjusted_by"`
	AdjustedAt       time.Time       `json:"adjusted_at"`
}

func (e *InventoryAdjustedEvent) EventType() string     { return cloudevents.InventoryAdjusted }
func (e *InventoryAdjustedEvent) AggregateType() string { return AggregateAdjustment }
func (e *InventoryAdjustedEvent) AggregateID() string   { return e.AdjustmentID }
func (e *InventoryAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// SaleCompletedEvent is recorded with every sale.
type SaleCompletedEvent struct {
	SaleID        string          `json:"sale_id"`
	SaleNumber    string          `json:"sale_number"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []SoldItem      `json:"items"`
	SoldBy        string          `json:"sold_by"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// SoldItem is the stock side of a sale line.
type SoldItem struct {
	ProductID   string           `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	BatchesUsed []AllocationLine `json:"batches_used"`
}

func (e *SaleCompletedEvent) EventType() string     { return cloudevents.SaleCompleted }
func (e *SaleCompletedEvent) AggregateType() string { return AggregateSale }
func (e *SaleCompletedEvent) AggregateID() string   { return e.SaleID }
func (e *SaleCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// NewSaleCompletedEvent describes s.
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	items := make([]SoldItem, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SoldItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			BatchesUsed: item.BatchesUsed,
		})
	}
	return &SaleCompletedEvent{
		SaleID:        s.ID,
		SaleNumber:    s.SaleNumber,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		Items:         items,
		SoldBy:        s.SoldBy,
		CompletedAt:   s.CreatedAt,
	}
}

// PurchaseEvent is recorded on every purchase status change and edit. The
// event type tells which.
type PurchaseEvent struct {
	Type           string          `json:"-"`
	PurchaseID     string          `json:"purchase_id"`
	PurchaseNumber string          `json:"purchase_number"`
	SupplierID     string          `json:"supplier_id"`
	PurchaseType   PurchaseType    `json:"purchase_type"`
	Status         PurchaseStatus  `json:"status"`
	Total          decimal.Decimal `json:"total"`
	BatchIDs       []string        `json:"batch_ids,omitempty"`
	ActorID        string          `json:"actor_id"`
	At             time.Time       `json:"at"`
}

func (e *PurchaseEvent) EventType() string     { return e.Type }
func (e *PurchaseEvent) AggregateType() string { return AggregatePurchase }
func (e *PurchaseEvent) AggregateID() string   { return e.PurchaseID }
func (e *PurchaseEvent) OccurredAt() time.Time { return e.At }

// NewPurchaseEvent describes p under eventType.
func NewPurchaseEvent(eventType string, p *Purchase, actorID string) *PurchaseEvent {
	var batchIDs []string
	for _, item := range p.Items {
		if item.BatchID != nil {
			batchIDs = append(batchIDs, *item.BatchID)
		}
	}
	return &PurchaseEvent{
		Type:           eventType,
		PurchaseID:     p.ID,
		PurchaseNumber: p.PurchaseNumber,
		SupplierID:     p.SupplierID,
		PurchaseType:   p.PurchaseType,
		Status:         p.Status,
		Total:          p.Total,
		BatchIDs:       batchIDs,
		ActorID:        actorID,
		At:             p.UpdatedAt,
	}
}

// PurchaseReturnedEvent is recorded with every purchase return.
type PurchaseReturnedEvent struct {
	ReturnID     string           `json:"return_id"`
	ReturnNumber string           `json:"return_number"`
	PurchaseID   string           `json:"purchase_id"`
	SupplierID   string           `json:"supplier_id"`
	ReturnType   ReturnType       `json:"return_type"`
	TotalRefund  decimal.Decimal  `json:"total_refund"`
	Batches      []AllocationLine `json:"batches"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (e *PurchaseReturnedEvent) EventType() string     { return cloudevents.PurchaseReturned }
func (e *PurchaseReturnedEvent) AggregateType() string { return AggregateReturn }
func (e *PurchaseReturnedEvent) AggregateID() string   { return e.ReturnID }
func (e *PurchaseReturnedEvent) OccurredAt() time.Time { return e.CreatedAt }
