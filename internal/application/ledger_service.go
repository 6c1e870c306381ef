package application

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// LedgerService owns the batch ledger: manual entry, metadata edits,
// listings and per-product stock.
type LedgerService struct {
	base
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(deps Deps) *LedgerService {
	return &LedgerService{base: newBase(deps, "ledger")}
}

// CreateBatch enters a batch by hand.
func (s *LedgerService) CreateBatch(ctx context.Context, cmd CreateBatchCommand) (*domain.InventoryBatch, error) {
	return traced(ctx, &s.base, "LedgerService.CreateBatch", func(ctx context.Context) (*domain.InventoryBatch, error) {
		if _, err := s.deps.Products.Get(ctx, cmd.ProductID); err != nil {
			return nil, err
		}
		if _, err := s.deps.Suppliers.Get(ctx, cmd.SupplierID); err != nil {
			return nil, err
		}
		entry, err := domain.ParseOptionalDate("entry_date", cmd.EntryDate)
		if err != nil {
			return nil, err
		}
		expiration, err := domain.ParseOptionalDate("expiration_date", cmd.ExpirationDate)
		if err != nil {
			return nil, err
		}

		now := s.now()
		batch, err := domain.NewBatch(domain.NewBatchParams{
			ID:             s.deps.NewID(),
			ProductID:      cmd.ProductID,
			SupplierID:     cmd.SupplierID,
			BatchNumber:    cmd.BatchNumber,
			Quantity:       cmd.InitialQuantity,
			PurchasePrice:  cmd.PurchasePrice,
			EntryDate:      entry,
			ExpirationDate: expiration,
			Notes:          cmd.Notes,
			CreatedBy:      cmd.ActorID,
		}, now)
		if err != nil {
			return nil, err
		}

		err = s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			if err := tx.Batches().Insert(ctx, batch); err != nil {
				return err
			}
			return tx.Events().Record(ctx, domain.NewBatchCreatedEvent(batch))
		})
		if err != nil {
			return nil, err
		}

		s.deps.Metrics.RecordBatchesCreated("manual", 1)
		s.logger.Audit(ctx, "create", "inventory_batch", batch.ID, cmd.ActorID, map[string]any{
			"productId": batch.ProductID,
			"quantity":  batch.InitialQuantity.String(),
		})
		return batch, nil
	})
}

// GetBatch returns one batch.
func (s *LedgerService) GetBatch(ctx context.Context, id string) (*domain.InventoryBatch, error) {
	return traced(ctx, &s.base, "LedgerService.GetBatch", func(ctx context.Context) (*domain.InventoryBatch, error) {
		return s.deps.Store.Batches().Get(ctx, id)
	})
}

// ListBatches returns a page of batches, newest entry first.
func (s *LedgerService) ListBatches(ctx context.Context, q ListBatchesQuery) (*ListResult[*domain.InventoryBatch], error) {
	return traced(ctx, &s.base, "LedgerService.ListBatches", func(ctx context.Context) (*ListResult[*domain.InventoryBatch], error) {
		filter, err := toBatchFilter(q, s.now())
		if err != nil {
			return nil, err
		}
		items, total, err := s.deps.Store.Batches().List(ctx, filter, q.Page)
		if err != nil {
			return nil, err
		}
		return listResult(items, total, q.Page), nil
	})
}

// UpdateBatch edits batch metadata. Quantities are never changed here.
func (s *LedgerService) UpdateBatch(ctx context.Context, cmd UpdateBatchCommand) (*domain.InventoryBatch, error) {
	return traced(ctx, &s.base, "LedgerService.UpdateBatch", func(ctx context.Context) (*domain.InventoryBatch, error) {
		var updated *domain.InventoryBatch
		err := s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			batch, err := tx.Batches().Get(ctx, cmd.BatchID)
			if err != nil {
				return err
			}
			now := s.now()
			if err := batch.ApplyUpdate(domain.BatchUpdate{
				BatchNumber:    cmd.BatchNumber,
				ExpirationDate: cmd.ExpirationDate,
				Notes:          cmd.Notes,
			}, now); err != nil {
				return err
			}
			if err := tx.Batches().UpdateMetadata(ctx, batch); err != nil {
				return err
			}
			updated = batch
			return tx.Events().Record(ctx, &domain.BatchUpdatedEvent{
				BatchID:        batch.ID,
				BatchNumber:    batch.BatchNumber,
				ExpirationDate: batch.ExpirationDate,
				Notes:          batch.Notes,
				UpdatedBy:      cmd.ActorID,
				UpdatedAt:      now,
			})
		})
		if err != nil {
			return nil, err
		}

		s.logger.Audit(ctx, "update", "inventory_batch", updated.ID, cmd.ActorID, nil)
		return updated, nil
	})
}

// ProductStock sums the stock of a product over its batches.
func (s *LedgerService) ProductStock(ctx context.Context, productID string) (*domain.ProductStock, error) {
	return traced(ctx, &s.base, "LedgerService.ProductStock", func(ctx context.Context) (*domain.ProductStock, error) {
		if _, err := s.deps.Products.Get(ctx, productID); err != nil {
			return nil, err
		}
		batches, err := s.deps.Store.Batches().ListAvailable(ctx, productID)
		if err != nil {
			return nil, err
		}
		stock := domain.ComputeProductStock(productID, batches)
		return &stock, nil
	})
}
