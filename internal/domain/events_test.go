package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
)

func TestDomainEvents_Metadata(t *testing.T) {
	now := testNow
	tests := []struct {
		name          string
		eventType     string
		aggregateType string
		aggregateID   string
		event         DomainEvent
	}{
		{
			name:          "batch_created",
			eventType:     "retail.inventory.batch-created",
			aggregateType: AggregateBatch,
			aggregateID:   "b1",
			event:         &BatchCreatedEvent{BatchID: "b1", CreatedAt: now},
		},
		{
			name:          "batch_updated",
			eventType:     "retail.inventory.batch-updated",
			aggregateType: AggregateBatch,
			aggregateID:   "b1",
			event:         &BatchUpdatedEvent{BatchID: "b1", UpdatedAt: now},
		},
		{
			name:          "inventory_adjusted",
			eventType:     "retail.inventory.adjusted",
			aggregateType: AggregateAdjustment,
			aggregateID:   "a1",
			event:         &InventoryAdjustedEvent{AdjustmentID: "a1", AdjustedAt: now},
		},
		{
			name:          "sale_completed",
			eventType:     "retail.sales.sale-completed",
			aggregateType: AggregateSale,
			aggregateID:   "s1",
			event:         &SaleCompletedEvent{SaleID: "s1", CompletedAt: now},
		},
		{
			name:          "purchase_received",
			eventType:     "retail.purchasing.purchase-received",
			aggregateType: AggregatePurchase,
			aggregateID:   "pu1",
			event:         &PurchaseEvent{Type: cloudevents.PurchaseReceived, PurchaseID: "pu1", At: now},
		},
		{
			name:          "purchase_returned",
			eventType:     "retail.purchasing.purchase-returned",
			aggregateType: AggregateReturn,
			aggregateID:   "r1",
			event:         &PurchaseReturnedEvent{ReturnID: "r1", CreatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eventType, tt.event.EventType())
			assert.Equal(t, tt.aggregateType, tt.event.AggregateType())
			assert.Equal(t, tt.aggregateID, tt.event.AggregateID())
			assert.Equal(t, now, tt.event.OccurredAt())
		})
	}
}

func TestNewPurchaseEventListsReceivedBatches(t *testing.T) {
	batchID := "b9"
	p := &Purchase{
		ID:     "pu1",
		Status: PurchaseReceived,
		Items: []PurchaseItem{
			{ProductID: "p1", BatchID: &batchID},
			{ProductID: "p2"},
		},
		Total:     dec("12"),
		UpdatedAt: testNow,
	}

	e := NewPurchaseEvent(cloudevents.PurchaseReceived, p, "u1")
	assert.Equal(t, []string{"b9"}, e.BatchIDs)
	assert.Equal(t, "u1", e.ActorID)
	assert.Equal(t, testNow, e.OccurredAt())
}

func TestNewSaleCompletedEventCarriesAllocations(t *testing.T) {
	lines := []AllocationLine{{BatchID: "b1", Quantity: dec("1")}, {BatchID: "b2", Quantity: dec("2")}}
	s := &Sale{
		ID:            "s1",
		SaleNumber:    "VENTA-20250310-0001",
		Items:         []SaleItem{{ProductID: "p1", Quantity: dec("3"), BatchesUsed: lines}},
		Total:         dec("9"),
		PaymentMethod: PaymentCard,
		SoldBy:        "u1",
		CreatedAt:     testNow,
	}

	e := NewSaleCompletedEvent(s)
	assert.Equal(t, "VENTA-20250310-0001", e.SaleNumber)
	if assert.Len(t, e.Items, 1) {
		assert.Equal(t, lines, e.Items[0].BatchesUsed)
	}
}
