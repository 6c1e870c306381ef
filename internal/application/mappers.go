package application

import (
	"strings"
	"time"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// toPeriod parses an optional start/end pair. A plain YYYY-MM-DD end date
// covers the whole day.
func toPeriod(start, end *string) (domain.DateRange, error) {
	from, err := domain.ParseOptionalDate("start_date", start)
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := domain.ParseOptionalDate("end_date", end)
	if err != nil {
		return domain.DateRange{}, err
	}
	if to != nil && isDateOnly(*end) {
		endOfDay := to.Add(24*time.Hour - time.Millisecond)
		to = &endOfDay
	}
	if from != nil && to != nil && to.Before(*from) {
		return domain.DateRange{}, domain.InvalidArgumentf("end_date must not be before start_date")
	}
	return domain.DateRange{From: from, To: to}, nil
}

func isDateOnly(s string) bool {
	return len(strings.TrimSpace(s)) == len("2006-01-02")
}

func toBatchFilter(q ListBatchesQuery, now time.Time) (domain.BatchFilter, error) {
	f := domain.BatchFilter{
		ProductID:  q.ProductID,
		SupplierID: q.SupplierID,
		HasStock:   q.HasStock,
	}
	if q.ExpiringInDays != nil {
		if *q.ExpiringInDays < 0 {
			return f, domain.InvalidArgumentf("expiring_in_days must not be negative")
		}
		f.ExpiringWithin(*q.ExpiringInDays, now)
	}
	return f, nil
}

func toAdjustmentFilter(q ListAdjustmentsQuery) (domain.AdjustmentFilter, error) {
	period, err := toPeriod(q.StartDate, q.EndDate)
	if err != nil {
		return domain.AdjustmentFilter{}, err
	}
	t := domain.AdjustmentType(q.AdjustmentType)
	if t != "" && !t.IsValid() {
		return domain.AdjustmentFilter{}, domain.InvalidArgumentf("adjustment_type must be one of waste_expired, waste_damaged, manual_correction")
	}
	return domain.AdjustmentFilter{
		BatchID:        q.BatchID,
		ProductID:      q.ProductID,
		AdjustmentType: t,
		Period:         period,
	}, nil
}

func toSaleFilter(q ListSalesQuery) (domain.SaleFilter, error) {
	period, err := toPeriod(q.StartDate, q.EndDate)
	if err != nil {
		return domain.SaleFilter{}, err
	}
	m := domain.PaymentMethod(q.PaymentMethod)
	if m != "" && !m.IsValid() {
		return domain.SaleFilter{}, domain.InvalidArgumentf("payment_method must be one of cash, card, transfer, mixed")
	}
	return domain.SaleFilter{SoldBy: q.SoldBy, PaymentMethod: m, Period: period}, nil
}

func toPurchaseFilter(q ListPurchasesQuery) (domain.PurchaseFilter, error) {
	period, err := toPeriod(q.StartDate, q.EndDate)
	if err != nil {
		return domain.PurchaseFilter{}, err
	}
	t := domain.PurchaseType(q.PurchaseType)
	if t != "" && !t.IsValid() {
		return domain.PurchaseFilter{}, domain.InvalidArgumentf("purchase_type must be one of direct, consignment, self_purchase")
	}
	s := domain.PurchaseStatus(q.Status)
	if s != "" && !s.IsValid() {
		return domain.PurchaseFilter{}, domain.InvalidArgumentf("status must be one of pending, received, cancelled")
	}
	return domain.PurchaseFilter{SupplierID: q.SupplierID, PurchaseType: t, Status: s, Period: period}, nil
}

func toReturnFilter(q ListReturnsQuery) (domain.ReturnFilter, error) {
	period, err := toPeriod(q.StartDate, q.EndDate)
	if err != nil {
		return domain.ReturnFilter{}, err
	}
	t := domain.ReturnType(q.ReturnType)
	if t != "" && !t.IsValid() {
		return domain.ReturnFilter{}, domain.InvalidArgumentf("return_type must be one of refund, exchange, credit")
	}
	return domain.ReturnFilter{PurchaseID: q.PurchaseID, SupplierID: q.SupplierID, ReturnType: t, Period: period}, nil
}

func toReturnLines(items []ReturnItemInput) []domain.ReturnLine {
	lines := make([]domain.ReturnLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.ReturnLine{
			BatchID:  item.BatchID,
			Quantity: item.QuantityReturned,
			Reason:   domain.ReturnReason(item.Reason),
			Notes:    item.Notes,
		})
	}
	return lines
}
