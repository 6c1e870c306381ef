package application

import "github.com/LocalHostDiluk/reinicializado/internal/domain"

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  domain.Page
}

// SaleResult is a completed sale with the movements it wrote.
type SaleResult struct {
	Sale      *domain.Sale
	Movements []*domain.SaleInventoryMovement
}

// ReceiptResult is a received purchase with the batches it created.
type ReceiptResult struct {
	Purchase *domain.Purchase
	Batches  []*domain.InventoryBatch
}
