package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType is the kind of an inventory adjustment.
type AdjustmentType string

const (
	AdjustmentWasteExpired     AdjustmentType = "waste_expired"
	AdjustmentWasteDamaged     AdjustmentType = "waste_damaged"
	AdjustmentManualCorrection AdjustmentType = "manual_correction"
)

// AdjustmentTypes lists every adjustment type.
var AdjustmentTypes = []AdjustmentType{AdjustmentWasteExpired, AdjustmentWasteDamaged, AdjustmentManualCorrection}

// IsValid reports whether t is a known adjustment type.
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentWasteExpired, AdjustmentWasteDamaged, AdjustmentManualCorrection:
		return true
	}
	return false
}

// IsWaste reports whether the type only allows removing stock.
func (t AdjustmentType) IsWaste() bool {
	return t == AdjustmentWasteExpired || t == AdjustmentWasteDamaged
}

// InventoryAdjustment is an audited signed delta applied to one batch. It is
// immutable once written.
type InventoryAdjustment struct {
	ID             string          `bson:"_id" json:"id"`
	BatchID        string          `bson:"batch_id" json:"batch_id"`
	ProductID      string          `bson:"product_id" json:"product_id"`
	AdjustmentType AdjustmentType  `bson:"adjustment_type" json:"adjustment_type"`
	Quantity       decimal.Decimal `bson:"quantity" json:"quantity"`
	Reason         string          `bson:"reason" json:"reason"`
	AdjustedBy     string          `bson:"adjusted_by" json:"adjusted_by"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
}

// ValidateAdjustment checks the request independently of any batch.
func ValidateAdjustment(t AdjustmentType, quantity decimal.Decimal, reason string) error {
	if !t.IsValid() {
		return InvalidArgumentf("adjustment_type must be one of waste_expired, waste_damaged, manual_correction")
	}
	if quantity.IsZero() {
		return InvalidArgumentf("quantity must not be zero")
	}
	if t.IsWaste() && !quantity.IsNegative() {
		return InvalidArgumentf("%s adjustments must have a negative quantity", t)
	}
	if strings.TrimSpace(reason) == "" {
		return InvalidArgumentf("reason is required")
	}
	return nil
}

// ApplyAdjustment validates the request against the batch, applies the
// delta to it and returns the adjustment record. The batch is left as it
// was when an error is returned.
func ApplyAdjustment(id string, batch *InventoryBatch, t AdjustmentType, quantity decimal.Decimal, reason, actorID string, now time.Time) (*InventoryAdjustment, error) {
	if err := ValidateAdjustment(t, quantity, reason); err != nil {
		return nil, err
	}

	result := batch.CurrentQuantity.Add(quantity)
	if result.IsNegative() {
		return nil, InvalidArgumentf("insufficient stock to adjust: batch %s holds %s", batch.ID, batch.CurrentQuantity)
	}
	if result.GreaterThan(batch.InitialQuantity) {
		return nil, InvalidArgumentf("adjustment would exceed the initial quantity %s of batch %s", batch.InitialQuantity, batch.ID)
	}
	if err := batch.SetQuantity(result, now); err != nil {
		return nil, err
	}

	return &InventoryAdjustment{
		ID:             id,
		BatchID:        batch.ID,
		ProductID:      batch.ProductID,
		AdjustmentType: t,
		Quantity:       quantity,
		Reason:         strings.TrimSpace(reason),
		AdjustedBy:     actorID,
		CreatedAt:      now,
	}, nil
}

// AdjustmentFilter selects adjustments in listings and summaries.
type AdjustmentFilter struct {
	BatchID        string
	ProductID      string
	AdjustmentType AdjustmentType
	Period         DateRange
}

// AdjustmentTypeSummary aggregates the adjustments of one type.
type AdjustmentTypeSummary struct {
	Count         int             `json:"count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// AdjustmentSummary aggregates adjustments by type. Quantities are absolute.
type AdjustmentSummary struct {
	TotalAdjustments int                                      `json:"total_adjustments"`
	ByType           map[AdjustmentType]AdjustmentTypeSummary `json:"by_type"`
}

// SummarizeAdjustments reduces adjustments into counts and absolute totals
// per type. Every type is present in the result.
func SummarizeAdjustments(adjustments []*InventoryAdjustment) AdjustmentSummary {
	summary := AdjustmentSummary{ByType: make(map[AdjustmentType]AdjustmentTypeSummary, len(AdjustmentTypes))}
	for _, t := range AdjustmentTypes {
		summary.ByType[t] = AdjustmentTypeSummary{TotalQuantity: decimal.Zero}
	}

	for _, a := range adjustments {
		s := summary.ByType[a.AdjustmentType]
		s.Count++
		s.TotalQuantity = s.TotalQuantity.Add(a.Quantity.Abs())
		summary.ByType[a.AdjustmentType] = s
		summary.TotalAdjustments++
	}
	return summary
}
