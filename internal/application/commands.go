package application

import (
	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// CreateBatchCommand enters a batch by hand.
type CreateBatchCommand struct {
	ProductID       string
	SupplierID      string
	BatchNumber     *string
	InitialQuantity decimal.Decimal
	PurchasePrice   decimal.Decimal
	EntryDate       *string
	ExpirationDate  *string
	Notes           *string
	ActorID         string
}

// UpdateBatchCommand edits batch metadata.
type UpdateBatchCommand struct {
	BatchID        string
	BatchNumber    *string
	ExpirationDate *string
	Notes          *string
	ActorID        string
}

// ListBatchesQuery filters the batch listing.
type ListBatchesQuery struct {
	ProductID      string
	SupplierID     string
	HasStock       *bool
	ExpiringInDays *int
	Page           domain.Page
}

// CreateAdjustmentCommand applies a signed delta to a batch.
type CreateAdjustmentCommand struct {
	BatchID        string
	AdjustmentType string
	Quantity       decimal.Decimal
	Reason         string
	ActorID        string
}

// ListAdjustmentsQuery filters the adjustment listing and summary.
type ListAdjustmentsQuery struct {
	BatchID        string
	ProductID      string
	AdjustmentType string
	StartDate      *string
	EndDate        *string
	Page           domain.Page
}

// SaleItemInput is one requested sale line.
type SaleItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateSaleCommand sells stock.
type CreateSaleCommand struct {
	Items            []SaleItemInput
	Discount         *decimal.Decimal
	PaymentMethod    string
	PaymentBreakdown *domain.PaymentBreakdown
	ActorID          string
}

// ListSalesQuery filters the sale listing and stats.
type ListSalesQuery struct {
	SoldBy        string
	PaymentMethod string
	StartDate     *string
	EndDate       *string
	Page          domain.Page
}

// PurchaseItemInput is one requested purchase line.
type PurchaseItemInput struct {
	ProductID      string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ExpirationDate *string
	BatchNumber    *string
}

// CreatePurchaseCommand registers a pending purchase.
type CreatePurchaseCommand struct {
	SupplierID    string
	PurchaseType  string
	Items         []PurchaseItemInput
	Tax           *decimal.Decimal
	PurchaseDate  *string
	InvoiceNumber *string
	Notes         *string
	ActorID       string
}

// UpdatePurchaseCommand edits a pending purchase.
type UpdatePurchaseCommand struct {
	PurchaseID    string
	InvoiceNumber *string
	Notes         *string
	ActorID       string
}

// ListPurchasesQuery filters the purchase listing and stats.
type ListPurchasesQuery struct {
	SupplierID   string
	PurchaseType string
	Status       string
	StartDate    *string
	EndDate      *string
	Page         domain.Page
}

// ReturnItemInput is one requested return line.
type ReturnItemInput struct {
	BatchID          string
	QuantityReturned decimal.Decimal
	Reason           string
	Notes            *string
}

// CreateReturnCommand returns received goods to the supplier.
type CreateReturnCommand struct {
	PurchaseID string
	Items      []ReturnItemInput
	ReturnType string
	ReturnDate *string
	ActorID    string
}

// ListReturnsQuery filters the return listing.
type ListReturnsQuery struct {
	PurchaseID string
	SupplierID string
	ReturnType string
	StartDate  *string
	EndDate    *string
	Page       domain.Page
}
