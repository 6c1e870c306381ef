package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

func TestToPeriod(t *testing.T) {
	period, err := toPeriod(strPtr("2025-03-01"), strPtr("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), period.From.UTC())
	assert.True(t, period.Contains(time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)), "date-only end covers its whole day")
	assert.False(t, period.Contains(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))

	period, err = toPeriod(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, period.From)
	assert.Nil(t, period.To)

	_, err = toPeriod(strPtr("2025-03-10"), strPtr("2025-03-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = toPeriod(strPtr("yesterday"), nil)
	assert.Error(t, err)
}

func TestToBatchFilterExpiringWindow(t *testing.T) {
	days := 7
	f, err := toBatchFilter(ListBatchesQuery{ProductID: "p1", ExpiringInDays: &days}, fixtureNow)
	require.NoError(t, err)
	assert.Equal(t, "p1", f.ProductID)
	require.NotNil(t, f.ExpiringBefore)
	assert.Equal(t, fixtureNow.AddDate(0, 0, 7), *f.ExpiringBefore)

	negative := -1
	_, err = toBatchFilter(ListBatchesQuery{ExpiringInDays: &negative}, fixtureNow)
	assert.Error(t, err)
}

func TestFiltersRejectUnknownEnums(t *testing.T) {
	_, err := toAdjustmentFilter(ListAdjustmentsQuery{AdjustmentType: "theft"})
	assert.Error(t, err)
	_, err = toSaleFilter(ListSalesQuery{PaymentMethod: "cheque"})
	assert.Error(t, err)
	_, err = toPurchaseFilter(ListPurchasesQuery{Status: "lost"})
	assert.Error(t, err)
	_, err = toReturnFilter(ListReturnsQuery{ReturnType: "swap"})
	assert.Error(t, err)

	f, err := toPurchaseFilter(ListPurchasesQuery{Status: "received", PurchaseType: "consignment"})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseReceived, f.Status)
}
