package application

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// ReturnService sends received goods back to their supplier.
type ReturnService struct {
	base
}

// NewReturnService creates a ReturnService.
func NewReturnService(deps Deps) *ReturnService {
	return &ReturnService{base: newBase(deps, "returns")}
}

// CreateReturn validates the return against the purchase and the current
// batch stock, then takes the returned quantities out of the batches and
// stores the return in one atomic unit. The checks run again inside the
// unit on freshly read state.
func (s *ReturnService) CreateReturn(ctx context.Context, cmd CreateReturnCommand) (*domain.PurchaseReturn, error) {
	return traced(ctx, &s.base, "ReturnService.CreateReturn", func(ctx context.Context) (*domain.PurchaseReturn, error) {
		lines := toReturnLines(cmd.Items)
		returnType := domain.ReturnType(cmd.ReturnType)
		if err := domain.ValidateReturnRequest(lines, returnType); err != nil {
			return nil, err
		}
		returnDate, err := domain.ParseOptionalDate("return_date", cmd.ReturnDate)
		if err != nil {
			return nil, err
		}

		params := domain.NewReturnParams{
			ID:         s.deps.NewID(),
			Lines:      lines,
			ReturnType: returnType,
			ReturnDate: returnDate,
			CreatedBy:  cmd.ActorID,
		}
		totals := domain.ReturnTotals(lines)

		build := func(ctx context.Context, repos domain.Repositories) (*domain.PurchaseReturn, error) {
			purchase, err := repos.Purchases().Get(ctx, cmd.PurchaseID)
			if err != nil {
				return nil, err
			}
			batches, err := loadBatches(ctx, repos.Batches(), totals)
			if err != nil {
				return nil, err
			}
			p := params
			p.Purchase = purchase
			p.Batches = batches
			return domain.NewPurchaseReturn(p, s.now())
		}

		if _, err := build(ctx, s.deps.Store); err != nil {
			return nil, err
		}
		params.Number, err = s.nextNumber(ctx, domain.PrefixReturn)
		if err != nil {
			return nil, err
		}

		var ret *domain.PurchaseReturn
		err = s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			var err error
			ret, err = build(ctx, tx)
			if err != nil {
				return err
			}
			if err := consume(ctx, tx, totals, ret.CreatedAt); err != nil {
				return err
			}
			if err := tx.Returns().Insert(ctx, ret); err != nil {
				return err
			}
			return tx.Events().Record(ctx, &domain.PurchaseReturnedEvent{
				ReturnID:     ret.ID,
				ReturnNumber: ret.ReturnNumber,
				PurchaseID:   ret.PurchaseID,
				SupplierID:   ret.SupplierID,
				ReturnType:   ret.ReturnType,
				TotalRefund:  ret.TotalRefund,
				Batches:      totals,
				CreatedBy:    ret.CreatedBy,
				CreatedAt:    ret.CreatedAt,
			})
		})
		if err != nil {
			return nil, err
		}

		s.deps.Metrics.RecordPurchaseReturn(string(ret.ReturnType))
		s.logger.Audit(ctx, "create", "purchase_return", ret.ID, cmd.ActorID, map[string]any{
			"returnNumber": ret.ReturnNumber,
			"purchaseId":   ret.PurchaseID,
			"totalRefund":  ret.TotalRefund.String(),
		})
		return ret, nil
	})
}

// GetReturn returns one purchase return.
func (s *ReturnService) GetReturn(ctx context.Context, id string) (*domain.PurchaseReturn, error) {
	return traced(ctx, &s.base, "ReturnService.GetReturn", func(ctx context.Context) (*domain.PurchaseReturn, error) {
		return s.deps.Store.Returns().Get(ctx, id)
	})
}

// ListReturns returns a page of returns, newest return date first.
func (s *ReturnService) ListReturns(ctx context.Context, q ListReturnsQuery) (*ListResult[*domain.PurchaseReturn], error) {
	return traced(ctx, &s.base, "ReturnService.ListReturns", func(ctx context.Context) (*ListResult[*domain.PurchaseReturn], error) {
		filter, err := toReturnFilter(q)
		if err != nil {
			return nil, err
		}
		items, total, err := s.deps.Store.Returns().List(ctx, filter, q.Page)
		if err != nil {
			return nil, err
		}
		return listResult(items, total, q.Page), nil
	})
}

// ListPurchaseReturns returns every return of a purchase.
func (s *ReturnService) ListPurchaseReturns(ctx context.Context, purchaseID string) ([]*domain.PurchaseReturn, error) {
	return traced(ctx, &s.base, "ReturnService.ListPurchaseReturns", func(ctx context.Context) ([]*domain.PurchaseReturn, error) {
		if _, err := s.deps.Store.Purchases().Get(ctx, purchaseID); err != nil {
			return nil, err
		}
		return s.deps.Store.Returns().ListByPurchase(ctx, purchaseID)
	})
}
