package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AlertStatus grades an alert.
type AlertStatus string

const (
	AlertExpired  AlertStatus = "expired"
	AlertCritical AlertStatus = "critical"
	AlertWarning  AlertStatus = "warning"
)

func (s AlertStatus) rank() int {
	switch s {
	case AlertExpired:
		return 0
	case AlertCritical:
		return 1
	default:
		return 2
	}
}

// Expiry alert window, in days.
const (
	DefaultExpiringDays = 7
	MaxExpiringDays     = 365
	criticalExpiryDays  = 3
)

// UnknownProductName stands in for a product missing from the catalog.
const UnknownProductName = "unknown product"

// LowStockAlert flags an active product without enough stock to sell.
type LowStockAlert struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	MinSaleQuantity decimal.Decimal `json:"min_sale_quantity"`
	Status          AlertStatus     `json:"status"`
}

// ExpiringAlert flags a batch with stock close to or past its expiration.
type ExpiringAlert struct {
	BatchID             string          `json:"batch_id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	CurrentQuantity     decimal.Decimal `json:"current_quantity"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	Status              AlertStatus     `json:"status"`
}

// ClassifyLowStock returns the alert for a product with the given stock, or
// nil when the stock is sufficient: critical at zero, warning below the
// minimum sale quantity.
func ClassifyLowStock(product *Product, stock decimal.Decimal) *LowStockAlert {
	minQty := decimal.Zero
	if product.MinSaleQuantity != nil {
		minQty = *product.MinSaleQuantity
	}

	var status AlertStatus
	switch {
	case stock.IsZero():
		status = AlertCritical
	case stock.LessThan(minQty):
		status = AlertWarning
	default:
		return nil
	}

	return &LowStockAlert{
		ProductID:       product.ID,
		ProductName:     product.Name,
		CurrentStock:    stock,
		MinSaleQuantity: minQty,
		Status:          status,
	}
}

// SortLowStockAlerts orders critical alerts first, then by ascending stock.
func SortLowStockAlerts(alerts []LowStockAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Status != alerts[j].Status {
			return alerts[i].Status == AlertCritical
		}
		return alerts[i].CurrentStock.LessThan(alerts[j].CurrentStock)
	})
}

// ClampExpiringDays bounds the expiry window to 1..365, defaulting to 7.
func ClampExpiringDays(days int) int {
	switch {
	case days <= 0:
		return DefaultExpiringDays
	case days > MaxExpiringDays:
		return MaxExpiringDays
	}
	return days
}

// DaysUntil is the whole number of days from now to t, rounded up.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// ClassifyExpiring returns the alert for a batch, or nil when the batch
// has no stock, no expiration date, or expires beyond the window.
func ClassifyExpiring(batch *InventoryBatch, productName string, windowDays int, now time.Time) *ExpiringAlert {
	if !batch.HasStock() || batch.ExpirationDate == nil {
		return nil
	}
	days := DaysUntil(*batch.ExpirationDate, now)

	// Same cutoff as allocation; the rounded day count may still be 0.
	var status AlertStatus
	switch {
	case batch.IsExpired(now):
		status = AlertExpired
	case days <= criticalExpiryDays:
		status = AlertCritical
	case days <= windowDays:
		status = AlertWarning
	default:
		return nil
	}

	if productName == "" {
		productName = UnknownProductName
	}
	return &ExpiringAlert{
		BatchID:             batch.ID,
		ProductID:           batch.ProductID,
		ProductName:         productName,
		CurrentQuantity:     batch.CurrentQuantity,
		ExpirationDate:      *batch.ExpirationDate,
		DaysUntilExpiration: days,
		Status:              status,
	}
}

// SortExpiringAlerts orders expired, critical, then warning alerts, each
// group by ascending days until expiration.
func SortExpiringAlerts(alerts []ExpiringAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if ri, rj := alerts[i].Status.rank(), alerts[j].Status.rank(); ri != rj {
			return ri < rj
		}
		return alerts[i].DaysUntilExpiration < alerts[j].DaysUntilExpiration
	})
}
