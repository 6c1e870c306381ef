package cloudevents

import (
	"context"
	"testing"

	"github.com/LocalHostDiluk/reinicializado/pkg/actor"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventCarriesContext(t *testing.T) {
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	ctx = actor.ToContext(ctx, actor.Actor{UserID: "user-7", Role: actor.RoleManager})

	f := NewEventFactory(SourceInventory)
	event, err := f.CreateEvent(ctx, SaleCompleted, "sale/s1", map[string]string{"sale_id": "s1"})
	require.NoError(t, err)

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, SaleCompleted, event.Type)
	assert.Equal(t, SourceInventory, event.Source)
	assert.Equal(t, "sale/s1", event.Subject)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "user-7", event.ActorID)

	var data map[string]string
	require.NoError(t, event.DecodeData(&data))
	assert.Equal(t, "s1", data["sale_id"])

	ext := event.Extensions()
	assert.Equal(t, "corr-1", ext[ExtCorrelationID])
	assert.NotContains(t, ext, ExtTraceParent)
}

func TestCreateEventRejectsUnmarshalableData(t *testing.T) {
	f := NewEventFactory(SourceInventory)
	_, err := f.CreateEvent(context.Background(), SaleCompleted, "sale/s1", make(chan int))
	assert.Error(t, err)
}
