package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentMixed    PaymentMethod = "mixed"
)

// PaymentMethods lists every payment method.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer, PaymentMixed}

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentMixed:
		return true
	}
	return false
}

// mixedPaymentTolerance absorbs rounding in client-side splits.
var mixedPaymentTolerance = decimal.RequireFromString("0.01")

// PaymentBreakdown splits a mixed payment.
type PaymentBreakdown struct {
	Cash     *decimal.Decimal `bson:"cash,omitempty" json:"cash,omitempty"`
	Card     *decimal.Decimal `bson:"card,omitempty" json:"card,omitempty"`
	Transfer *decimal.Decimal `bson:"transfer,omitempty" json:"transfer,omitempty"`
}

// Sum adds the present components.
func (b PaymentBreakdown) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, part := range []*decimal.Decimal{b.Cash, b.Card, b.Transfer} {
		if part != nil {
			sum = sum.Add(*part)
		}
	}
	return sum
}

func (b PaymentBreakdown) validate() error {
	parts := []struct {
		name  string
		value *decimal.Decimal
	}{{"cash", b.Cash}, {"card", b.Card}, {"transfer", b.Transfer}}
	for _, part := range parts {
		if part.value != nil && part.value.IsNegative() {
			return InvalidArgumentf("payment_breakdown.%s must not be negative", part.name)
		}
	}
	if !b.Sum().IsPositive() {
		return InvalidArgumentf("payment_breakdown must add up to more than 0")
	}
	return nil
}

// SaleItem is one line of a sale with the batches it consumed.
type SaleItem struct {
	ProductID   string           `bson:"product_id" json:"product_id"`
	ProductName string           `bson:"product_name" json:"product_name"`
	Quantity    decimal.Decimal  `bson:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal  `bson:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal  `bson:"subtotal" json:"subtotal"`
	SaleType    SaleType         `bson:"sale_type" json:"sale_type"`
	BatchesUsed []AllocationLine `bson:"batches_used" json:"batches_used"`
}

// Sale is a completed sale.
type Sale struct {
	ID               string            `bson:"_id" json:"id"`
	SaleNumber       string            `bson:"sale_number" json:"sale_number"`
	Items            []SaleItem        `bson:"items" json:"items"`
	Subtotal         decimal.Decimal   `bson:"subtotal" json:"subtotal"`
	Discount         decimal.Decimal   `bson:"discount" json:"discount"`
	Total            decimal.Decimal   `bson:"total" json:"total"`
	PaymentMethod    PaymentMethod     `bson:"payment_method" json:"payment_method"`
	PaymentBreakdown *PaymentBreakdown `bson:"payment_breakdown,omitempty" json:"payment_breakdown,omitempty"`
	SoldBy           string            `bson:"sold_by" json:"sold_by"`
	CreatedAt        time.Time         `bson:"created_at" json:"created_at"`
}

// SaleInventoryMovement records one batch consumed by one sale. Quantity is
// negative.
type SaleInventoryMovement struct {
	ID        string          `bson:"_id" json:"id"`
	SaleID    string          `bson:"sale_id" json:"sale_id"`
	BatchID   string          `bson:"batch_id" json:"batch_id"`
	ProductID string          `bson:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `bson:"quantity" json:"quantity"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

// SaleLine is a requested sale line with its product already resolved.
type SaleLine struct {
	Product   *Product
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ValidateSaleLine checks a line before any stock is looked at.
func ValidateSaleLine(line SaleLine) error {
	if !line.Quantity.IsPositive() {
		return InvalidArgumentf("quantity must be greater than 0")
	}
	if line.UnitPrice.IsNegative() {
		return InvalidArgumentf("unit_price must not be negative")
	}
	if !line.Product.IsActive {
		return InvalidArgumentf("product %s is not active", line.Product.Name)
	}
	return nil
}

// SaleDraft is a priced sale whose payment has been checked, waiting for
// its allocation and number.
type SaleDraft struct {
	Items            []SaleItem
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    PaymentMethod
	PaymentBreakdown *PaymentBreakdown
}

// PriceSale computes line subtotals and totals and checks the discount and
// payment rules: discount within [0, subtotal]; a mixed payment carries a
// breakdown adding up to the total within 0.01; other methods drop it.
func PriceSale(lines []SaleLine, discount *decimal.Decimal, method PaymentMethod, breakdown *PaymentBreakdown) (*SaleDraft, error) {
	if len(lines) == 0 {
		return nil, InvalidArgumentf("a sale needs at least one item")
	}
	if !method.IsValid() {
		return nil, InvalidArgumentf("payment_method must be one of cash, card, transfer, mixed")
	}
	if method == PaymentMixed {
		if breakdown == nil {
			return nil, InvalidArgumentf("mixed payment requires payment_breakdown")
		}
		if err := breakdown.validate(); err != nil {
			return nil, err
		}
	}

	draft := &SaleDraft{
		Items:         make([]SaleItem, 0, len(lines)),
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		PaymentMethod: method,
	}

	for _, line := range lines {
		if err := ValidateSaleLine(line); err != nil {
			return nil, err
		}
		subtotal := line.Quantity.Mul(line.UnitPrice)
		draft.Items = append(draft.Items, SaleItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    subtotal,
			SaleType:    line.Product.SaleType,
		})
		draft.Subtotal = draft.Subtotal.Add(subtotal)
	}

	if discount != nil {
		if discount.IsNegative() {
			return nil, InvalidArgumentf("discount must not be negative")
		}
		draft.Discount = *discount
	}
	if draft.Discount.GreaterThan(draft.Subtotal) {
		return nil, InvalidArgumentf("discount %s exceeds the subtotal %s", draft.Discount, draft.Subtotal)
	}
	draft.Total = draft.Subtotal.Sub(draft.Discount)

	if method == PaymentMixed {
		sum := breakdown.Sum()
		if sum.Sub(draft.Total).Abs().GreaterThan(mixedPaymentTolerance) {
			return nil, InvalidArgumentf("payment_breakdown adds up to %s but the total is %s", sum, draft.Total)
		}
		draft.PaymentBreakdown = breakdown
	}

	return draft, nil
}

// Complete turns the draft into a sale with its per-line allocations and
// the movement rows for them.
func (d *SaleDraft) Complete(id, number, soldBy string, allocations [][]AllocationLine, newID func() string, now time.Time) (*Sale, []*SaleInventoryMovement) {
	sale := &Sale{
		ID:               id,
		SaleNumber:       number,
		Items:            d.Items,
		Subtotal:         d.Subtotal,
		Discount:         d.Discount,
		Total:            d.Total,
		PaymentMethod:    d.PaymentMethod,
		PaymentBreakdown: d.PaymentBreakdown,
		SoldBy:           soldBy,
		CreatedAt:        now,
	}

	var movements []*SaleInventoryMovement
	for i := range sale.Items {
		sale.Items[i].BatchesUsed = allocations[i]
		for _, line := range allocations[i] {
			movements = append(movements, &SaleInventoryMovement{
				ID:        newID(),
				SaleID:    id,
				BatchID:   line.BatchID,
				ProductID: sale.Items[i].ProductID,
				Quantity:  line.Quantity.Neg(),
				CreatedAt: now,
			})
		}
	}
	return sale, movements
}

// SaleFilter selects sales in listings and stats.
type SaleFilter struct {
	SoldBy        string
	PaymentMethod PaymentMethod
	Period        DateRange
}

// PaymentMethodStats aggregates the sales of one payment method.
type PaymentMethodStats struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// SalesStats aggregates sales.
type SalesStats struct {
	TotalSales     int                                  `json:"total_sales"`
	TotalAmount    decimal.Decimal                      `json:"total_amount"`
	TotalItemsSold decimal.Decimal                      `json:"total_items_sold"`
	PaymentMethods map[PaymentMethod]PaymentMethodStats `json:"payment_methods"`
}

// SummarizeSales reduces sales into totals per payment method.
func SummarizeSales(sales []*Sale) SalesStats {
	stats := SalesStats{
		TotalAmount:    decimal.Zero,
		TotalItemsSold: decimal.Zero,
		PaymentMethods: make(map[PaymentMethod]PaymentMethodStats, len(PaymentMethods)),
	}
	for _, m := range PaymentMethods {
		stats.PaymentMethods[m] = PaymentMethodStats{Amount: decimal.Zero}
	}

	for _, s := range sales {
		stats.TotalSales++
		stats.TotalAmount = stats.TotalAmount.Add(s.Total)
		for _, item := range s.Items {
			stats.TotalItemsSold = stats.TotalItemsSold.Add(item.Quantity)
		}
		m := stats.PaymentMethods[s.PaymentMethod]
		m.Count++
		m.Amount = m.Amount.Add(s.Total)
		stats.PaymentMethods[s.PaymentMethod] = m
	}
	return stats
}
