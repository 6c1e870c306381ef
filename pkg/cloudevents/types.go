package cloudevents

import (
	"encoding/json"
	"time"
)

// Event types for retail domain events. Events announce committed
// transactions; they are not a stock level stream.
const (
	// Inventory events
	BatchCreated      = "retail.inventory.batch-created"
	BatchUpdated      = "retail.inventory.batch-updated"
	InventoryAdjusted = "retail.inventory.adjusted"

	// Sales events
	SaleCompleted = "retail.sales.sale-completed"

	// Purchasing events
	PurchaseCreated   = "retail.purchasing.purchase-created"
	PurchaseUpdated   = "retail.purchasing.purchase-updated"
	PurchaseReceived  = "retail.purchasing.purchase-received"
	PurchaseCancelled = "retail.purchasing.purchase-cancelled"
	PurchaseReturned  = "retail.purchasing.purchase-returned"
)

// SourceInventory is the source of every event emitted by this service.
const SourceInventory = "/retail/inventory-service"

// CloudEvent is a CloudEvents v1.0 structured-mode event.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`

	// Extensions
	CorrelationID string `json:"retailcorrelationid,omitempty"`
	ActorID       string `json:"retailactorid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
	TraceState    string `json:"tracestate,omitempty"`
}

// DecodeData unmarshals the event data into v.
func (e *CloudEvent) DecodeData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}
