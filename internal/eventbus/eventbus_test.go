package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/backtest-service/internal/model"
)

func TestTypedSubscription(t *testing.T) {
	bus := New()
	var got []model.Event
	bus.Subscribe(func(e model.Event) {
		got = append(got, e)
	}, model.EventTrade)

	bus.Publish(model.EventTrade, "fill")
	bus.Publish(model.EventSignal, "ignored")

	require.Len(t, got, 1)
	assert.Equal(t, model.EventTrade, got[0].Type)
	assert.Equal(t, "fill", got[0].Payload)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestCatchAllSubscription(t *testing.T) {
	bus := New()
	var count int
	bus.Subscribe(func(model.Event) { count++ })

	bus.Publish(model.EventTrade, nil)
	bus.Publish(model.EventError, nil)
	bus.Publish(model.EventImportProgress, nil)

	assert.Equal(t, 3, count)
}

func TestMultipleSubscribersPerType(t *testing.T) {
	bus := New()
	var a, b int
	bus.Subscribe(func(model.Event) { a++ }, model.EventOrder)
	bus.Subscribe(func(model.Event) { b++ }, model.EventOrder)

	bus.Publish(model.EventOrder, nil)
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := New()
	assert.NotPanics(t, func() {
		bus.Publish(model.EventTick, nil)
	})
}
