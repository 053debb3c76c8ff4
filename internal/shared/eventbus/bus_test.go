package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var got Event
	bus.Subscribe(EventTypeRateLimited, func(ctx context.Context, event Event) error {
		got = event
		return nil
	})

	err := bus.Publish(context.Background(), NewEvent(EventTypeRateLimited, "slow down", "http-access"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, EventTypeRateLimited, got.Type())
	assert.Equal(t, "slow down", got.Data())
	assert.Equal(t, "http-access", got.Source())
	assert.False(t, got.Timestamp().IsZero())
}

func TestEventBus_NoSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), NewEvent("nobody.listens", nil, "test")))
}

func TestEventBus_AsyncPublish(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{AsyncProcessing: true})
	var count int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventTypeEnrollmentChanged, func(ctx context.Context, event Event) error {
			atomic.AddInt32(&count, 1)
			return nil
		})
	}
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventTypeEnrollmentChanged, nil, "test")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&count))
}

func TestEventBus_RetriesThenFails(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	var calls int
	bus.Subscribe("flaky", func(ctx context.Context, event Event) error {
		calls++
		return errors.New("boom")
	})

	err := bus.Publish(context.Background(), NewEvent("flaky", nil, "test"))
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus(nil)
	var second bool
	bus.Subscribe("ev", func(ctx context.Context, event Event) error { return errors.New("first") })
	bus.Subscribe("ev", func(ctx context.Context, event Event) error { second = true; return nil })

	err := bus.Publish(context.Background(), NewEvent("ev", nil, "test"))
	assert.Error(t, err)
	assert.True(t, second)
}

func TestEventBus_UnsubscribeAndTypes(t *testing.T) {
	bus := NewEventBus(nil)
	bus.Subscribe(EventTypeSessionLogin, func(ctx context.Context, event Event) error { return nil })
	bus.Subscribe(EventTypeSessionLogout, func(ctx context.Context, event Event) error { return nil })
	assert.ElementsMatch(t, []string{EventTypeSessionLogin, EventTypeSessionLogout}, bus.EventTypes())

	bus.Unsubscribe(EventTypeSessionLogin)
	assert.Equal(t, 0, bus.SubscriberCount(EventTypeSessionLogin))
	assert.Equal(t, 1, bus.SubscriberCount(EventTypeSessionLogout))
}

func TestEventBus_PublishAndForget(t *testing.T) {
	bus := NewEventBus(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("forget", func(ctx context.Context, event Event) error {
		wg.Done()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.PublishAndForget(ctx, NewEvent("forget", nil, "test"))
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}
