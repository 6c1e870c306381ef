package application

import (
	"context"
	"errors"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// SaleService sells stock, oldest batch first.
type SaleService struct {
	base
}

// NewSaleService creates a SaleService.
func NewSaleService(deps Deps) *SaleService {
	return &SaleService{base: newBase(deps, "sales")}
}

// CreateSale prices the sale, plans every line against the batches of its
// product and commits the stock writes, movements, sale and event in one
// atomic unit.
func (s *SaleService) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*SaleResult, error) {
	return traced(ctx, &s.base, "SaleService.CreateSale", func(ctx context.Context) (*SaleResult, error) {
		result, err := s.createSale(ctx, cmd)
		if err != nil {
			s.recordRejection(err)
			return nil, err
		}
		return result, nil
	})
}

func (s *SaleService) createSale(ctx context.Context, cmd CreateSaleCommand) (*SaleResult, error) {
	if len(cmd.Items) == 0 {
		return nil, domain.InvalidArgumentf("a sale needs at least one item")
	}

	lines := make([]domain.SaleLine, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		product, err := s.deps.Products.Get(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.SaleLine{Product: product, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	draft, err := domain.PriceSale(lines, cmd.Discount, domain.PaymentMethod(cmd.PaymentMethod), cmd.PaymentBreakdown)
	if err != nil {
		return nil, err
	}

	now := s.now()
	planner := domain.NewPlanner(now)
	available := make(map[string][]*domain.InventoryBatch)
	allocations := make([][]domain.AllocationLine, 0, len(draft.Items))
	for _, item := range draft.Items {
		batches, ok := available[item.ProductID]
		if !ok {
			batches, err = s.deps.Store.Batches().ListAvailable(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			available[item.ProductID] = batches
		}
		plan, err := planner.Plan(item.ProductID, item.Quantity, batches)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, plan)
	}

	number, err := s.nextNumber(ctx, domain.PrefixSale)
	if err != nil {
		return nil, err
	}

	sale, movements := draft.Complete(s.deps.NewID(), number, cmd.ActorID, allocations, s.deps.NewID, now)

	err = s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := consume(ctx, tx, planner.Totals(), now); err != nil {
			return err
		}
		if err := tx.Sales().InsertMovements(ctx, movements); err != nil {
			return err
		}
		if err := tx.Sales().Insert(ctx, sale); err != nil {
			return err
		}
		return tx.Events().Record(ctx, domain.NewSaleCompletedEvent(sale))
	})
	if err != nil {
		return nil, err
	}

	total, _ := sale.Total.Float64()
	s.deps.Metrics.RecordSale(string(sale.PaymentMethod), total)
	s.logger.Audit(ctx, "create", "sale", sale.ID, cmd.ActorID, map[string]any{
		"saleNumber": sale.SaleNumber,
		"total":      sale.Total.String(),
		"batches":    len(movements),
	})
	return &SaleResult{Sale: sale, Movements: movements}, nil
}

func (s *SaleService) recordRejection(err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		s.deps.Metrics.RecordStockRejection("sale", "insufficient_stock")
	case errors.Is(err, domain.ErrConflict):
		s.deps.Metrics.RecordStockRejection("sale", "conflict")
	}
}

// GetSale returns one sale.
func (s *SaleService) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return traced(ctx, &s.base, "SaleService.GetSale", func(ctx context.Context) (*domain.Sale, error) {
		return s.deps.Store.Sales().Get(ctx, id)
	})
}

// ListSales returns a page of sales, newest first.
func (s *SaleService) ListSales(ctx context.Context, q ListSalesQuery) (*ListResult[*domain.Sale], error) {
	return traced(ctx, &s.base, "SaleService.ListSales", func(ctx context.Context) (*ListResult[*domain.Sale], error) {
		filter, err := toSaleFilter(q)
		if err != nil {
			return nil, err
		}
		items, total, err := s.deps.Store.Sales().List(ctx, filter, q.Page)
		if err != nil {
			return nil, err
		}
		return listResult(items, total, q.Page), nil
	})
}

// Stats aggregates the sales matching the filter.
func (s *SaleService) Stats(ctx context.Context, q ListSalesQuery) (*domain.SalesStats, error) {
	return traced(ctx, &s.base, "SaleService.Stats", func(ctx context.Context) (*domain.SalesStats, error) {
		filter, err := toSaleFilter(q)
		if err != nil {
			return nil, err
		}
		sales, err := s.deps.Store.Sales().ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		stats := domain.SummarizeSales(sales)
		return &stats, nil
	})
}
