package application

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
)

// PurchaseService manages purchase orders and their receipt into batches.
type PurchaseService struct {
	base
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(deps Deps) *PurchaseService {
	return &PurchaseService{base: newBase(deps, "purchases")}
}

// CreatePurchase registers a pending purchase.
func (s *PurchaseService) CreatePurchase(ctx context.Context, cmd CreatePurchaseCommand) (*domain.Purchase, error) {
	return traced(ctx, &s.base, "PurchaseService.CreatePurchase", func(ctx context.Context) (*domain.Purchase, error) {
		supplier, err := s.deps.Suppliers.Get(ctx, cmd.SupplierID)
		if err != nil {
			return nil, err
		}
		if len(cmd.Items) == 0 {
			return nil, domain.InvalidArgumentf("a purchase needs at least one item")
		}

		lines := make([]domain.PurchaseLine, 0, len(cmd.Items))
		for _, item := range cmd.Items {
			product, err := s.deps.Products.Get(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			expiration, err := domain.ParseOptionalDate("expiration_date", item.ExpirationDate)
			if err != nil {
				return nil, err
			}
			lines = append(lines, domain.PurchaseLine{
				Product:        product,
				Quantity:       item.Quantity,
				UnitCost:       item.UnitCost,
				ExpirationDate: expiration,
				BatchNumber:    item.BatchNumber,
			})
		}
		purchaseDate, err := domain.ParseOptionalDate("purchase_date", cmd.PurchaseDate)
		if err != nil {
			return nil, err
		}

		now := s.now()
		params := domain.NewPurchaseParams{
			ID:            s.deps.NewID(),
			Supplier:      supplier,
			PurchaseType:  domain.PurchaseType(cmd.PurchaseType),
			Lines:         lines,
			Tax:           cmd.Tax,
			PurchaseDate:  purchaseDate,
			InvoiceNumber: cmd.InvoiceNumber,
			Notes:         cmd.Notes,
			CreatedBy:     cmd.ActorID,
		}
		// validate before taking a number
		if _, err := domain.NewPurchase(params, now); err != nil {
			return nil, err
		}
		params.Number, err = s.nextNumber(ctx, domain.PrefixPurchase)
		if err != nil {
			return nil, err
		}
		purchase, err := domain.NewPurchase(params, now)
		if err != nil {
			return nil, err
		}

		err = s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			if err := tx.Purchases().Insert(ctx, purchase); err != nil {
				return err
			}
			return tx.Events().Record(ctx, domain.NewPurchaseEvent(cloudevents.PurchaseCreated, purchase, cmd.ActorID))
		})
		if err != nil {
			return nil, err
		}

		s.logger.Audit(ctx, "create", "purchase", purchase.ID, cmd.ActorID, map[string]any{
			"purchaseNumber": purchase.PurchaseNumber,
			"total":          purchase.Total.String(),
		})
		return purchase, nil
	})
}

// GetPurchase returns one purchase.
func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return traced(ctx, &s.base, "PurchaseService.GetPurchase", func(ctx context.Context) (*domain.Purchase, error) {
		return s.deps.Store.Purchases().Get(ctx, id)
	})
}

// ListPurchases returns a page of purchases, newest purchase date first.
func (s *PurchaseService) ListPurchases(ctx context.Context, q ListPurchasesQuery) (*ListResult[*domain.Purchase], error) {
	return traced(ctx, &s.base, "PurchaseService.ListPurchases", func(ctx context.Context) (*ListResult[*domain.Purchase], error) {
		filter, err := toPurchaseFilter(q)
		if err != nil {
			return nil, err
		}
		items, total, err := s.deps.Store.Purchases().List(ctx, filter, q.Page)
		if err != nil {
			return nil, err
		}
		return listResult(items, total, q.Page), nil
	})
}

// Stats aggregates the purchases matching the filter.
func (s *PurchaseService) Stats(ctx context.Context, q ListPurchasesQuery) (*domain.PurchaseStats, error) {
	return traced(ctx, &s.base, "PurchaseService.Stats", func(ctx context.Context) (*domain.PurchaseStats, error) {
		filter, err := toPurchaseFilter(q)
		if err != nil {
			return nil, err
		}
		purchases, err := s.deps.Store.Purchases().ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		stats := domain.SummarizePurchases(purchases)
		return &stats, nil
	})
}

// UpdatePurchase edits the metadata of a pending purchase.
func (s *PurchaseService) UpdatePurchase(ctx context.Context, cmd UpdatePurchaseCommand) (*domain.Purchase, error) {
	return traced(ctx, &s.base, "PurchaseService.UpdatePurchase", func(ctx context.Context) (*domain.Purchase, error) {
		purchase, err := s.transition(ctx, cmd.PurchaseID, cloudevents.PurchaseUpdated, cmd.ActorID, func(p *domain.Purchase) error {
			return p.ApplyUpdate(domain.PurchaseUpdate{InvoiceNumber: cmd.InvoiceNumber, Notes: cmd.Notes}, s.now())
		})
		if err != nil {
			return nil, err
		}
		s.logger.Audit(ctx, "update", "purchase", purchase.ID, cmd.ActorID, nil)
		return purchase, nil
	})
}

// CancelPurchase cancels a pending purchase.
func (s *PurchaseService) CancelPurchase(ctx context.Context, id, actorID string) (*domain.Purchase, error) {
	return traced(ctx, &s.base, "PurchaseService.CancelPurchase", func(ctx context.Context) (*domain.Purchase, error) {
		purchase, err := s.transition(ctx, id, cloudevents.PurchaseCancelled, actorID, func(p *domain.Purchase) error {
			return p.Cancel(s.now())
		})
		if err != nil {
			return nil, err
		}
		s.logger.Audit(ctx, "cancel", "purchase", purchase.ID, actorID, nil)
		return purchase, nil
	})
}

// transition applies change to a pending purchase re-read inside a unit
// and stores it guarded on the status still being pending.
func (s *PurchaseService) transition(ctx context.Context, id, eventType, actorID string, change func(*domain.Purchase) error) (*domain.Purchase, error) {
	var purchase *domain.Purchase
	err := s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
		p, err := tx.Purchases().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := change(p); err != nil {
			return err
		}
		if err := tx.Purchases().Update(ctx, p, domain.PurchasePending); err != nil {
			return err
		}
		purchase = p
		return tx.Events().Record(ctx, domain.NewPurchaseEvent(eventType, p, actorID))
	})
	return purchase, err
}

// MarkReceived receives a pending purchase: one batch per line, the batch
// ids on the lines and the status change commit together or not at all.
func (s *PurchaseService) MarkReceived(ctx context.Context, id, actorID string) (*ReceiptResult, error) {
	return traced(ctx, &s.base, "PurchaseService.MarkReceived", func(ctx context.Context) (*ReceiptResult, error) {
		var result ReceiptResult
		err := s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			purchase, err := tx.Purchases().Get(ctx, id)
			if err != nil {
				return err
			}
			batches, err := purchase.Receive(actorID, s.deps.NewID, s.now())
			if err != nil {
				return err
			}
			if err := tx.Purchases().Update(ctx, purchase, domain.PurchasePending); err != nil {
				return err
			}
			if err := tx.Batches().InsertMany(ctx, batches); err != nil {
				return err
			}

			events := make([]domain.DomainEvent, 0, len(batches)+1)
			events = append(events, domain.NewPurchaseEvent(cloudevents.PurchaseReceived, purchase, actorID))
			for _, b := range batches {
				events = append(events, domain.NewBatchCreatedEvent(b))
			}
			if err := tx.Events().Record(ctx, events...); err != nil {
				return err
			}

			result = ReceiptResult{Purchase: purchase, Batches: batches}
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.deps.Metrics.RecordPurchaseReceived()
		s.deps.Metrics.RecordBatchesCreated("receipt", len(result.Batches))
		s.logger.Audit(ctx, "receive", "purchase", id, actorID, map[string]any{
			"purchaseNumber": result.Purchase.PurchaseNumber,
			"batches":        len(result.Batches),
		})
		return &result, nil
	})
}
