package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
)

type recordingSeeder struct {
	seeded []string
	err    error
}

func (s *recordingSeeder) Seed(_ context.Context, prefix, day string, value int64) error {
	if s.err != nil {
		return s.err
	}
	s.seeded = append(s.seeded, fmt.Sprintf("%s-%s=%d", prefix, day, value))
	return nil
}

func TestHighWaterKeepsLargestPerDay(t *testing.T) {
	marks := highWater{}
	for _, n := range []string{
		"VENTA-20250310-0003",
		"VENTA-20250310-0007",
		"VENTA-20250311-0001",
		"COMPRA-20250310-0002",
	} {
		assert.True(t, marks.observe(n), n)
	}
	assert.False(t, marks.observe("legacy-42"))

	assert.Equal(t, int64(7), marks[counterKey{Prefix: "VENTA", Day: "20250310"}])
	assert.Equal(t, int64(1), marks[counterKey{Prefix: "VENTA", Day: "20250311"}])
	assert.Equal(t, []counterKey{
		{Prefix: "COMPRA", Day: "20250310"},
		{Prefix: "VENTA", Day: "20250310"},
		{Prefix: "VENTA", Day: "20250311"},
	}, marks.keys())
}

func TestSeedCounters(t *testing.T) {
	marks := highWater{}
	marks.observe("DEV-20250310-0004")
	marks.observe("VENTA-20250310-0009")

	s := &recordingSeeder{}
	require.NoError(t, seedCounters(context.Background(), s, marks, logging.NewNop()))
	assert.Equal(t, []string{"DEV-20250310=4", "VENTA-20250310=9"}, s.seeded)

	require.NoError(t, seedCounters(context.Background(), nil, marks, logging.NewNop()), "dry run writes nothing")

	err := seedCounters(context.Background(), &recordingSeeder{err: errors.New("down")}, marks, logging.NewNop())
	assert.ErrorContains(t, err, "DEV-20250310")
}
