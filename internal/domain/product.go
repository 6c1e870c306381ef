package domain

import "github.com/shopspring/decimal"

// SaleType is how a product is sold.
type SaleType string

const (
	SaleByWeight        SaleType = "by_weight"
	SaleByPiece         SaleType = "by_piece"
	SaleByWeightOrPiece SaleType = "by_weight_or_piece"
)

// Product is read-only master data owned by the catalog.
type Product struct {
	ID              string           `bson:"_id" json:"id"`
	Name            string           `bson:"name" json:"name"`
	SaleType        SaleType         `bson:"sale_type" json:"sale_type"`
	MinSaleQuantity *decimal.Decimal `bson:"min_sale_quantity,omitempty" json:"min_sale_quantity,omitempty"`
	IsActive        bool             `bson:"is_active" json:"is_active"`
}

// Supplier is read-only master data owned by the catalog.
type Supplier struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	IsActive *bool  `bson:"is_active,omitempty" json:"is_active,omitempty"`
}
