package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// AlertService answers the low-stock and expiry alert queries.
type AlertService struct {
	base
}

// NewAlertService creates an AlertService.
func NewAlertService(deps Deps) *AlertService {
	return &AlertService{base: newBase(deps, "alerts")}
}

// LowStock flags every active product whose stock is zero or below its
// minimum sale quantity.
func (s *AlertService) LowStock(ctx context.Context) ([]domain.LowStockAlert, error) {
	return traced(ctx, &s.base, "AlertService.LowStock", func(ctx context.Context) ([]domain.LowStockAlert, error) {
		products, err := s.deps.Products.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		totals, err := s.deps.Store.Batches().StockTotals(ctx)
		if err != nil {
			return nil, err
		}

		alerts := make([]domain.LowStockAlert, 0)
		for _, p := range products {
			stock, ok := totals[p.ID]
			if !ok {
				stock = decimal.Zero
			}
			if alert := domain.ClassifyLowStock(p, stock); alert != nil {
				alerts = append(alerts, *alert)
			}
		}
		domain.SortLowStockAlerts(alerts)
		return alerts, nil
	})
}

// Expiring flags batches with stock that expired or expire within days
// (clamped to 1..365, 7 when unset).
func (s *AlertService) Expiring(ctx context.Context, days int) ([]domain.ExpiringAlert, error) {
	return traced(ctx, &s.base, "AlertService.Expiring", func(ctx context.Context) ([]domain.ExpiringAlert, error) {
		days = domain.ClampExpiringDays(days)
		now := s.now()

		batches, err := s.deps.Store.Batches().ListExpiring(ctx, now.AddDate(0, 0, days))
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(batches))
		seen := make(map[string]bool, len(batches))
		for _, b := range batches {
			if !seen[b.ProductID] {
				seen[b.ProductID] = true
				ids = append(ids, b.ProductID)
			}
		}
		names, err := s.deps.Products.Names(ctx, ids)
		if err != nil {
			return nil, err
		}

		alerts := make([]domain.ExpiringAlert, 0, len(batches))
		for _, b := range batches {
			if alert := domain.ClassifyExpiring(b, names[b.ProductID], days, now); alert != nil {
				alerts = append(alerts, *alert)
			}
		}
		domain.SortExpiringAlerts(alerts)
		return alerts, nil
	})
}
