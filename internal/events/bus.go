// Package events fans the core's observable events out to presentation
// subscribers: cache refreshes, order status changes and annotation
// changes.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type identifies one of the three boundary events.
type Type string

const (
	TypeCacheRefreshed     Type = "cache_refreshed"
	TypeOrderStatusChanged Type = "order_status_changed"
	TypeAnnotationChanged  Type = "annotation_changed"
)

// Event is the payload delivered to subscribers. Fields beyond Type and At
// are populated per event type.
type Event struct {
	Type           Type      `json:"type"`
	At             time.Time `json:"at"`
	OrderID        int64     `json:"orderId,omitempty"`
	Status         string    `json:"status,omitempty"`
	SelectionLevel *int      `json:"selectionLevel,omitempty"`
	ChangedAt      string    `json:"changedAt,omitempty"`
	OrderCount     int       `json:"orderCount,omitempty"`
}

// Bus delivers events to any number of subscribers. Publish never blocks:
// a subscriber that cannot keep up has events dropped, which is acceptable
// for a presentation layer that can re-query the projection at any time.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber with the given buffer size and
// returns its id and channel. The channel is closed on Unsubscribe or bus
// Close.
func (b *Bus) Subscribe(buffer int) (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("type", string(ev.Type)))
		}
	}
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
