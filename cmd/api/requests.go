package main

import (
	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

type createBatchRequest struct {
	ProductID       string          `json:"product_id" binding:"required"`
	SupplierID      string          `json:"supplier_id" binding:"required"`
	BatchNumber     *string         `json:"batch_number"`
	InitialQuantity decimal.Decimal `json:"initial_quantity" binding:"required,gt=0"`
	PurchasePrice   decimal.Decimal `json:"purchase_price" binding:"gte=0"`
	EntryDate       *string         `json:"entry_date"`
	ExpirationDate  *string         `json:"expiration_date"`
	Notes           *string         `json:"notes"`
}

func (r createBatchRequest) command(actorID string) application.CreateBatchCommand {
	return application.CreateBatchCommand{
		ProductID:       r.ProductID,
		SupplierID:      r.SupplierID,
		BatchNumber:     r.BatchNumber,
		InitialQuantity: r.InitialQuantity,
		PurchasePrice:   r.PurchasePrice,
		EntryDate:       r.EntryDate,
		ExpirationDate:  r.ExpirationDate,
		Notes:           r.Notes,
		ActorID:         actorID,
	}
}

type updateBatchRequest struct {
	BatchNumber    *string `json:"batch_number"`
	ExpirationDate *string `json:"expiration_date"`
	Notes          *string `json:"notes"`
}

type listBatchesParams struct {
	ProductID      string `form:"product_id"`
	SupplierID     string `form:"supplier_id"`
	HasStock       *bool  `form:"has_stock"`
	ExpiringInDays *int   `form:"expiring_in_days" binding:"omitempty,gte=0"`
}

type createAdjustmentRequest struct {
	BatchID        string          `json:"batch_id" binding:"required"`
	AdjustmentType string          `json:"adjustment_type" binding:"required,oneof=waste_expired waste_damaged manual_correction"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required"`
}

type listAdjustmentsParams struct {
	BatchID        string  `form:"batch_id"`
	ProductID      string  `form:"product_id"`
	AdjustmentType string  `form:"adjustment_type" binding:"omitempty,oneof=waste_expired waste_damaged manual_correction"`
	StartDate      *string `form:"start_date"`
	EndDate        *string `form:"end_date"`
}

func (p listAdjustmentsParams) query(page domain.Page) application.ListAdjustmentsQuery {
	return application.ListAdjustmentsQuery{
		BatchID:        p.BatchID,
		ProductID:      p.ProductID,
		AdjustmentType: p.AdjustmentType,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Page:           page,
	}
}

type saleItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"gte=0"`
}

type createSaleRequest struct {
	Items            []saleItemRequest        `json:"items" binding:"required,min=1,dive"`
	Discount         *decimal.Decimal         `json:"discount"`
	PaymentMethod    string                   `json:"payment_method" binding:"required,oneof=cash card transfer mixed"`
	PaymentBreakdown *domain.PaymentBreakdown `json:"payment_breakdown"`
}

func (r createSaleRequest) command(actorID string) application.CreateSaleCommand {
	items := make([]application.SaleItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, application.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return application.CreateSaleCommand{
		Items:            items,
		Discount:         r.Discount,
		PaymentMethod:    r.PaymentMethod,
		PaymentBreakdown: r.PaymentBreakdown,
		ActorID:          actorID,
	}
}

type listSalesParams struct {
	SoldBy        string  `form:"sold_by"`
	PaymentMethod string  `form:"payment_method" binding:"omitempty,oneof=cash card transfer mixed"`
	StartDate     *string `form:"start_date"`
	EndDate       *string `form:"end_date"`
}

func (p listSalesParams) query(page domain.Page) application.ListSalesQuery {
	return application.ListSalesQuery{
		SoldBy:        p.SoldBy,
		PaymentMethod: p.PaymentMethod,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Page:          page,
	}
}

type purchaseItemRequest struct {
	ProductID      string          `json:"product_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCost       decimal.Decimal `json:"unit_cost" binding:"gte=0"`
	ExpirationDate *string         `json:"expiration_date"`
	BatchNumber    *string         `json:"batch_number"`
}

type createPurchaseRequest struct {
	SupplierID    string                `json:"supplier_id" binding:"required"`
	PurchaseType  string                `json:"purchase_type" binding:"required,oneof=direct consignment self_purchase"`
	Items         []purchaseItemRequest `json:"items" binding:"required,min=1,dive"`
	Tax           *decimal.Decimal      `json:"tax"`
	PurchaseDate  *string               `json:"purchase_date"`
	InvoiceNumber *string               `json:"invoice_number"`
	Notes         *string               `json:"notes"`
}

func (r createPurchaseRequest) command(actorID string) application.CreatePurchaseCommand {
	items := make([]application.PurchaseItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, application.PurchaseItemInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitCost:       item.UnitCost,
			ExpirationDate: item.ExpirationDate,
			BatchNumber:    item.BatchNumber,
		})
	}
	return application.CreatePurchaseCommand{
		SupplierID:    r.SupplierID,
		PurchaseType:  r.PurchaseType,
		Items:         items,
		Tax:           r.Tax,
		PurchaseDate:  r.PurchaseDate,
		InvoiceNumber: r.InvoiceNumber,
		Notes:         r.Notes,
		ActorID:       actorID,
	}
}

type updatePurchaseRequest struct {
	InvoiceNumber *string `json:"invoice_number"`
	Notes         *string `json:"notes"`
}

type listPurchasesParams struct {
	SupplierID   string  `form:"supplier_id"`
	PurchaseType string  `form:"purchase_type" binding:"omitempty,oneof=direct consignment self_purchase"`
	Status       string  `form:"status" binding:"omitempty,oneof=pending received cancelled"`
	StartDate    *string `form:"start_date"`
	EndDate      *string `form:"end_date"`
}

func (p listPurchasesParams) query(page domain.Page) application.ListPurchasesQuery {
	return application.ListPurchasesQuery{
		SupplierID:   p.SupplierID,
		PurchaseType: p.PurchaseType,
		Status:       p.Status,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Page:         page,
	}
}

type returnItemRequest struct {
	BatchID          string          `json:"batch_id" binding:"required"`
	QuantityReturned decimal.Decimal `json:"quantity_returned" binding:"required,gt=0"`
	Reason           string          `json:"reason" binding:"required,oneof=damaged expired exchange other"`
	Notes            *string         `json:"notes"`
}

type createReturnRequest struct {
	PurchaseID string              `json:"purchase_id" binding:"required"`
	Items      []returnItemRequest `json:"items" binding:"required,min=1,dive"`
	ReturnType string              `json:"return_type" binding:"required,oneof=refund exchange credit"`
	ReturnDate *string             `json:"return_date"`
}

func (r createReturnRequest) command(actorID string) application.CreateReturnCommand {
	items := make([]application.ReturnItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, application.ReturnItemInput{
			BatchID:          item.BatchID,
			QuantityReturned: item.QuantityReturned,
			Reason:           item.Reason,
			Notes:            item.Notes,
		})
	}
	return application.CreateReturnCommand{
		PurchaseID: r.PurchaseID,
		Items:      items,
		ReturnType: r.ReturnType,
		ReturnDate: r.ReturnDate,
		ActorID:    actorID,
	}
}

type listReturnsParams struct {
	PurchaseID string  `form:"purchase_id"`
	SupplierID string  `form:"supplier_id"`
	ReturnType string  `form:"return_type" binding:"omitempty,oneof=refund exchange credit"`
	StartDate  *string `form:"start_date"`
	EndDate    *string `form:"end_date"`
}

func (p listReturnsParams) query(page domain.Page) application.ListReturnsQuery {
	return application.ListReturnsQuery{
		PurchaseID: p.PurchaseID,
		SupplierID: p.SupplierID,
		ReturnType: p.ReturnType,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Page:       page,
	}
}
