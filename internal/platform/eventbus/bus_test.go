package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := New[testEvent]()
	var got []string
	bus.Subscribe("a", func(_ context.Context, e testEvent) error {
		got = append(got, "first:"+string(e))
		return nil
	})
	bus.SubscribeAll(func(_ context.Context, e testEvent) error {
		got = append(got, "all:"+string(e))
		return nil
	})
	bus.Subscribe("a", func(_ context.Context, e testEvent) error {
		got = append(got, "third:"+string(e))
		return nil
	})

	bus.Publish(context.Background(), testEvent("a"))
	bus.Publish(context.Background(), testEvent("b"))

	require.Equal(t, []string{"first:a", "all:a", "third:a", "all:b"}, got)
}

func TestBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := New[testEvent]()
	delivered := 0
	bus.Subscribe("x", func(context.Context, testEvent) error { return errors.New("boom") })
	bus.Subscribe("x", func(context.Context, testEvent) error { panic("kaboom") })
	bus.Subscribe("x", func(context.Context, testEvent) error {
		delivered++
		return nil
	})

	require.NotPanics(t, func() { bus.Publish(context.Background(), testEvent("x")) })
	require.Equal(t, 1, delivered)
}

func TestBus_CancelRemovesOnlyThatHandler(t *testing.T) {
	bus := New[testEvent]()
	var first, second int
	cancel := bus.Subscribe("x", func(context.Context, testEvent) error { first++; return nil })
	bus.Subscribe("x", func(context.Context, testEvent) error { second++; return nil })

	cancel()
	bus.Publish(context.Background(), testEvent("x"))

	require.Zero(t, first)
	require.Equal(t, 1, second)
}
