package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestStoreWithoutFaultsRecordsEvents(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Events().Record(ctx, &domain.BatchCreatedEvent{BatchID: "b1"}))
	assert.Len(t, store.RecordedEvents(), 1)
}

func TestRecordErrFailsOnce(t *testing.T) {
	faults := &Faults{RecordErr: errors.New("outbox down")}
	store := NewStore(WithFaults(faults))
	ctx := context.Background()

	err := store.Run(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Events().Record(ctx, &domain.BatchCreatedEvent{BatchID: "b1"})
	})
	assert.EqualError(t, err, "outbox down")
	assert.Nil(t, faults.RecordErr)
	assert.Empty(t, store.RecordedEvents())

	require.NoError(t, store.Events().Record(ctx, &domain.BatchCreatedEvent{BatchID: "b1"}))
	assert.Len(t, store.RecordedEvents(), 1)
}

func TestBeforeSetQuantityRunsBeforeTheGuard(t *testing.T) {
	ctx := context.Background()
	faults := &Faults{}
	store := NewStore(WithFaults(faults))
	require.NoError(t, store.Batches().Insert(ctx, &domain.InventoryBatch{
		ID:              "b1",
		ProductID:       "p1",
		InitialQuantity: decimal.NewFromInt(5),
		CurrentQuantity: decimal.NewFromInt(5),
		EntryDate:       testDay,
	}))

	var seen []string
	faults.BeforeSetQuantity = func(id string) { seen = append(seen, id) }
	require.NoError(t, store.Batches().SetQuantity(ctx, "b1", decimal.NewFromInt(5), decimal.NewFromInt(3), testDay))
	assert.Equal(t, []string{"b1"}, seen)

	err := store.Batches().SetQuantity(ctx, "b1", decimal.NewFromInt(5), decimal.NewFromInt(1), testDay)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSequencesFaults(t *testing.T) {
	ctx := context.Background()
	faults := &Faults{}
	seq := NewSequences(WithFaults(faults))

	calls := 0
	faults.BeforeNextSequence = func() { calls++ }
	n, err := seq.Next(ctx, domain.PrefixSale, testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, calls)

	faults.SequenceErr = errors.New("counter unavailable")
	_, err = seq.Next(ctx, domain.PrefixSale, testDay)
	assert.Error(t, err)

	faults.SequenceErr = nil
	n, err = NewSequences().Next(ctx, domain.PrefixSale, testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "counters are per instance")
}
