package application

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// AdjustmentService records waste and manual corrections against batches.
type AdjustmentService struct {
	base
}

// NewAdjustmentService creates an AdjustmentService.
func NewAdjustmentService(deps Deps) *AdjustmentService {
	return &AdjustmentService{base: newBase(deps, "adjustments")}
}

// CreateAdjustment applies a signed delta to a batch. The batch read, the
// adjustment record and the stock write commit together.
func (s *AdjustmentService) CreateAdjustment(ctx context.Context, cmd CreateAdjustmentCommand) (*domain.InventoryAdjustment, error) {
	return traced(ctx, &s.base, "AdjustmentService.CreateAdjustment", func(ctx context.Context) (*domain.InventoryAdjustment, error) {
		adjType := domain.AdjustmentType(cmd.AdjustmentType)
		if err := domain.ValidateAdjustment(adjType, cmd.Quantity, cmd.Reason); err != nil {
			return nil, err
		}

		id := s.deps.NewID()
		var adj *domain.InventoryAdjustment
		err := s.deps.Store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
			batch, err := tx.Batches().Get(ctx, cmd.BatchID)
			if err != nil {
				return err
			}
			previous := batch.CurrentQuantity
			now := s.now()

			adj, err = domain.ApplyAdjustment(id, batch, adjType, cmd.Quantity, cmd.Reason, cmd.ActorID, now)
			if err != nil {
				return err
			}
			if err := tx.Batches().SetQuantity(ctx, batch.ID, previous, batch.CurrentQuantity, now); err != nil {
				return err
			}
			if err := tx.Adjustments().Insert(ctx, adj); err != nil {
				return err
			}
			return tx.Events().Record(ctx, &domain.InventoryAdjustedEvent{
				AdjustmentID:     adj.ID,
				BatchID:          batch.ID,
				ProductID:        batch.ProductID,
				AdjustmentType:   adj.AdjustmentType,
				Quantity:         adj.Quantity,
				PreviousQuantity: previous,
				NewQuantity:      batch.CurrentQuantity,
				Reason:           adj.Reason,
				AdjustedBy:       adj.AdjustedBy,
				AdjustedAt:       now,
			})
		})
		if err != nil {
			return nil, err
		}

		s.deps.Metrics.RecordAdjustment(string(adj.AdjustmentType))
		s.logger.Audit(ctx, "adjust", "inventory_batch", adj.BatchID, cmd.ActorID, map[string]any{
			"adjustmentId":   adj.ID,
			"adjustmentType": string(adj.AdjustmentType),
			"quantity":       adj.Quantity.String(),
		})
		return adj, nil
	})
}

// GetAdjustment returns one adjustment.
func (s *AdjustmentService) GetAdjustment(ctx context.Context, id string) (*domain.InventoryAdjustment, error) {
	return traced(ctx, &s.base, "AdjustmentService.GetAdjustment", func(ctx context.Context) (*domain.InventoryAdjustment, error) {
		return s.deps.Store.Adjustments().Get(ctx, id)
	})
}

// ListAdjustments returns a page of adjustments, newest first.
func (s *AdjustmentService) ListAdjustments(ctx context.Context, q ListAdjustmentsQuery) (*ListResult[*domain.InventoryAdjustment], error) {
	return traced(ctx, &s.base, "AdjustmentService.ListAdjustments", func(ctx context.Context) (*ListResult[*domain.InventoryAdjustment], error) {
		filter, err := toAdjustmentFilter(q)
		if err != nil {
			return nil, err
		}
		items, total, err := s.deps.Store.Adjustments().List(ctx, filter, q.Page)
		if err != nil {
			return nil, err
		}
		return listResult(items, total, q.Page), nil
	})
}

// ListBatchAdjustments returns every adjustment of a batch, newest first.
func (s *AdjustmentService) ListBatchAdjustments(ctx context.Context, batchID string) ([]*domain.InventoryAdjustment, error) {
	return traced(ctx, &s.base, "AdjustmentService.ListBatchAdjustments", func(ctx context.Context) ([]*domain.InventoryAdjustment, error) {
		if _, err := s.deps.Store.Batches().Get(ctx, batchID); err != nil {
			return nil, err
		}
		return s.deps.Store.Adjustments().ListByBatch(ctx, batchID)
	})
}

// Summary counts adjustments and sums their absolute quantities per type.
func (s *AdjustmentService) Summary(ctx context.Context, q ListAdjustmentsQuery) (*domain.AdjustmentSummary, error) {
	return traced(ctx, &s.base, "AdjustmentService.Summary", func(ctx context.Context) (*domain.AdjustmentSummary, error) {
		filter, err := toAdjustmentFilter(q)
		if err != nil {
			return nil, err
		}
		adjustments, err := s.deps.Store.Adjustments().ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		summary := domain.SummarizeAdjustments(adjustments)
		return &summary, nil
	})
}
