// Package cache holds the single mutable snapshot of all known orders,
// merged with their client-local annotations, and reconciles it with
// optimistic status changes while their persistence is in flight.
package cache

import (
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/quotedesk/internal/domain"
)

type writeState int

const (
	stateClean writeState = iota
	statePendingWrite
)

type entry struct {
	order      domain.Order
	annotation domain.Annotation
	state      writeState
	// priorStatus is what a rollback restores: the last status the store
	// was known to hold, never an optimistic value. A superseding write
	// keeps the baseline of the write it replaced.
	priorStatus string
	// writeToken identifies the most recent in-flight write. A completion
	// carrying any other token is stale and must be discarded.
	writeToken uuid.UUID
}

// Cache is not safe for concurrent use. All access is confined to the
// desk service's apply goroutine; no lock is needed there.
type Cache struct {
	entries map[int64]*entry
	// order preserves the gateway's fetch order (submission time
	// descending); the projection relies on it.
	order []int64
}

func New() *Cache {
	return &Cache{entries: make(map[int64]*entry)}
}

// Len returns the number of cached orders.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Refresh replaces the snapshot wholesale. Annotations are re-joined by
// order id through the lookup, never carried over by list position. An
// entry with a write still in flight keeps its optimistic status and write
// state so a stale fetched value cannot visually revert the change before
// the persist resolves.
func (c *Cache) Refresh(orders []domain.Order, annotationFor func(int64) domain.Annotation) {
	entries := make(map[int64]*entry, len(orders))
	ids := make([]int64, 0, len(orders))

	for _, order := range orders {
		e := &entry{order: order, annotation: annotationFor(order.ID)}
		if old, ok := c.entries[order.ID]; ok && old.state == statePendingWrite {
			// The fetched status is the freshest confirmed value, so it
			// becomes the rollback baseline for the carried-over write.
			e.priorStatus = order.Status
			e.order.Status = old.order.Status
			e.state = old.state
			e.writeToken = old.writeToken
		}
		entries[order.ID] = e
		ids = append(ids, order.ID)
	}

	c.entries = entries
	c.order = ids
}

// Snapshot returns the cached orders in fetch order.
func (c *Cache) Snapshot() []domain.CachedOrder {
	out := make([]domain.CachedOrder, 0, len(c.order))
	for _, id := range c.order {
		if e, ok := c.entries[id]; ok {
			out = append(out, e.cached())
		}
	}
	return out
}

// Get returns one cached order by id.
func (c *Cache) Get(id int64) (domain.CachedOrder, bool) {
	e, ok := c.entries[id]
	if !ok {
		return domain.CachedOrder{}, false
	}
	return e.cached(), true
}

// ApplyOptimistic mutates the entry's status before persistence confirms
// it. A second request while one is pending supersedes it: the new token
// wins, the superseded completion will be discarded, and the rollback
// baseline stays the confirmed status from before the first write, so a
// failure never restores a status the store never held. The returned prior
// is the displayed status the new value replaced.
func (c *Cache) ApplyOptimistic(id int64, status string) (token uuid.UUID, prior string, ok bool) {
	e, found := c.entries[id]
	if !found {
		return uuid.Nil, "", false
	}

	prior = e.order.Status
	if e.state != statePendingWrite {
		e.priorStatus = prior
	}
	e.order.Status = status
	e.state = statePendingWrite
	e.writeToken = uuid.New()
	return e.writeToken, prior, true
}

// Confirm resolves a pending write with the store-confirmed status.
// Returns false when the write was superseded or the entry is gone; the
// caller discards the result silently in that case.
func (c *Cache) Confirm(id int64, token uuid.UUID, status string, modifiedAt time.Time) bool {
	e, ok := c.entries[id]
	if !ok || e.state != statePendingWrite || e.writeToken != token {
		return false
	}

	e.order.Status = status
	e.order.ModifiedAt = modifiedAt
	e.state = stateClean
	e.priorStatus = ""
	e.writeToken = uuid.Nil
	return true
}

// Rollback restores the last confirmed status. Returns false when the
// write was superseded or the entry is gone.
func (c *Cache) Rollback(id int64, token uuid.UUID) (restored string, ok bool) {
	e, found := c.entries[id]
	if !found || e.state != statePendingWrite || e.writeToken != token {
		return "", false
	}

	e.order.Status = e.priorStatus
	e.state = stateClean
	e.priorStatus = ""
	e.writeToken = uuid.Nil
	return e.order.Status, true
}

// UpdateStatus applies a server-observed status change from the
// recently-changed poll. Entries with a write in flight are skipped; the
// pending resolution decides their status.
func (c *Cache) UpdateStatus(id int64, status string, modifiedAt time.Time) bool {
	e, ok := c.entries[id]
	if !ok || e.state == statePendingWrite {
		return false
	}
	if e.order.Status == status && !modifiedAt.After(e.order.ModifiedAt) {
		return false
	}

	e.order.Status = status
	e.order.ModifiedAt = modifiedAt
	return true
}

// CycleSelection advances the order's selection level one step, wrapping
// back to zero after the last level and clearing the timestamp at zero.
func (c *Cache) CycleSelection(id int64, now time.Time) (domain.Annotation, bool) {
	e, ok := c.entries[id]
	if !ok {
		return domain.Annotation{}, false
	}

	e.annotation = e.annotation.Cycle(now)
	return e.annotation, true
}

func (e *entry) cached() domain.CachedOrder {
	return domain.CachedOrder{
		Order:        e.order,
		Annotation:   e.annotation,
		PendingWrite: e.state == statePendingWrite,
	}
}
