package application

import (
	"context"
	"time"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// consume re-reads every batch of a plan inside the unit and takes the
// planned quantity from it. Each write is guarded on the quantity just read,
// so a concurrent writer turns into a Conflict instead of a lost update.
func consume(ctx context.Context, tx domain.Repositories, lines []domain.AllocationLine, now time.Time) error {
	for _, line := range lines {
		batch, err := tx.Batches().Get(ctx, line.BatchID)
		if err != nil {
			return err
		}
		previous := batch.CurrentQuantity
		if err := batch.Consume(line.Quantity, now); err != nil {
			return err
		}
		if err := tx.Batches().SetQuantity(ctx, batch.ID, previous, batch.CurrentQuantity, now); err != nil {
			return err
		}
	}
	return nil
}

// loadBatches reads the batches named by lines, keyed by id.
func loadBatches(ctx context.Context, repo domain.BatchRepository, lines []domain.AllocationLine) (map[string]*domain.InventoryBatch, error) {
	batches := make(map[string]*domain.InventoryBatch, len(lines))
	for _, line := range lines {
		batch, err := repo.Get(ctx, line.BatchID)
		if err != nil {
			return nil, err
		}
		batches[batch.ID] = batch
	}
	return batches, nil
}
