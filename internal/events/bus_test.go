package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), Event{Name: UserRegistered}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_OnlyMatchingSignal(t *testing.T) {
	bus := NewBus()

	var calls int
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), Event{Name: UserDeleted}))
	assert.Zero(t, calls)
}

func TestBus_ErrorStopsDelivery(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")

	var reached bool
	bus.Subscribe(TokenCreated, func(ctx context.Context, e Event) error { return boom })
	bus.Subscribe(TokenCreated, func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	err := bus.Emit(context.Background(), Event{Name: TokenCreated})
	assert.ErrorIs(t, err, boom)
	assert.False(t, reached, "el error del primer handler corta la cadena")
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Emit(context.Background(), Event{Name: UserLoggedOut}))
}
