package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSequence struct {
	n   int64
	err error
}

func (s *stubSequence) Next(_ context.Context, _ string, _ time.Time) (int64, error) {
	s.n++
	return s.n, s.err
}

func TestFormatSequence(t *testing.T) {
	day := time.Date(2025, 1, 5, 23, 30, 0, 0, time.FixedZone("CST", -6*3600))

	assert.Equal(t, "VENTA-20250106-0001", FormatSequence(PrefixSale, day, 1))
	assert.Equal(t, "DEV-20250106-12345", FormatSequence(PrefixReturn, day, 12345))
}

func TestNextNumber(t *testing.T) {
	seq := &stubSequence{}
	first, err := NextNumber(context.Background(), seq, PrefixPurchase, testNow)
	require.NoError(t, err)
	second, err := NextNumber(context.Background(), seq, PrefixPurchase, testNow)
	require.NoError(t, err)

	assert.Equal(t, "COMPRA-20250310-0001", first)
	assert.Equal(t, "COMPRA-20250310-0002", second)

	_, err = NextNumber(context.Background(), &stubSequence{err: errors.New("down")}, PrefixSale, testNow)
	assert.Error(t, err)
}

func TestParseSequence(t *testing.T) {
	prefix, day, n, ok := ParseSequence("VENTA-20250310-0042")
	require.True(t, ok)
	assert.Equal(t, PrefixSale, prefix)
	assert.Equal(t, "20250310", day)
	assert.Equal(t, int64(42), n)

	_, _, n, ok = ParseSequence("DEV-20250106-12345")
	require.True(t, ok)
	assert.Equal(t, int64(12345), n)

	for _, bad := range []string{"", "VENTA", "VENTA-2025-0001", "VENTA-20251399-0001", "VENTA-20250310-01", "VENTA-20250310-0000", "VENTA-20250310-00x1"} {
		_, _, _, ok := ParseSequence(bad)
		assert.False(t, ok, bad)
	}
}
