package events_test

import (
	"testing"
	"time"

	"github.com/quotedesk/quotedesk/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	id1, ch1 := bus.Subscribe(4)
	id2, ch2 := bus.Subscribe(4)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.Publish(events.Event{Type: events.TypeOrderStatusChanged, OrderID: 7, Status: "Accepted"})

	for _, ch := range []<-chan events.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, events.TypeOrderStatusChanged, ev.Type)
			assert.Equal(t, int64(7), ev.OrderID)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublish_DropsForSlowSubscriber(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	// Second publish overflows the buffer and must not block
	bus.Publish(events.Event{Type: events.TypeCacheRefreshed, OrderCount: 1})
	bus.Publish(events.Event{Type: events.TypeCacheRefreshed, OrderCount: 2})

	ev := <-ch
	assert.Equal(t, 1, ev.OrderCount)

	select {
	case <-ch:
		t.Fatal("overflow event should have been dropped")
	default:
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	bus.Publish(events.Event{Type: events.TypeCacheRefreshed})
}

func TestClose_ClosesAllSubscribers(t *testing.T) {
	bus := events.NewBus(zap.NewNop())

	_, ch1 := bus.Subscribe(1)
	_, ch2 := bus.Subscribe(1)

	bus.Close()

	_, open := <-ch1
	require.False(t, open)
	_, open = <-ch2
	require.False(t, open)

	// Subscribing after close yields a closed channel
	_, ch3 := bus.Subscribe(1)
	_, open = <-ch3
	assert.False(t, open)
}
