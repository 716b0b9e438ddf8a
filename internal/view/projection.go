// Package view computes the projected order list shown by the
// presentation layer. The projection is a pure function of the cache
// snapshot and the current filter state; it is recomputed from scratch on
// every call and holds no state of its own.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
)

// State is the presentation layer's current filter selection, consumed
// read-only.
type State struct {
	// Status filters to one status value; empty means "all".
	Status string
	// Search is matched case-insensitively against customer name, phone
	// and email.
	Search string
	// SelectedOnly keeps only orders with a selection level above zero.
	SelectedOnly bool
	// SortDesc reverses the selection-timestamp sort; it only applies
	// when SelectedOnly is set.
	SortDesc bool
}

// Project filters and orders the snapshot per the state. Without
// SelectedOnly the gateway's fetch order (submission time descending) is
// preserved; with it, entries sort by their selection timestamp, missing
// timestamps sorting as earliest.
func Project(rows []domain.CachedOrder, state State) []domain.CachedOrder {
	search := strings.ToLower(strings.TrimSpace(state.Search))

	out := make([]domain.CachedOrder, 0, len(rows))
	for _, row := range rows {
		if state.Status != "" && row.Order.Status != state.Status {
			continue
		}
		if search != "" && !matchesSearch(&row.Order, search) {
			continue
		}
		if state.SelectedOnly && !row.Annotation.Selected() {
			continue
		}
		out = append(out, row)
	}

	if state.SelectedOnly {
		sort.SliceStable(out, func(i, j int) bool {
			ti := changedAtOrZero(out[i].Annotation)
			tj := changedAtOrZero(out[j].Annotation)
			if state.SortDesc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		})
	}

	return out
}

func matchesSearch(order *domain.Order, search string) bool {
	if strings.Contains(strings.ToLower(order.Client.Name), search) {
		return true
	}
	if strings.Contains(strings.ToLower(order.Client.Phone), search) {
		return true
	}
	return order.Client.Email != "" &&
		strings.Contains(strings.ToLower(order.Client.Email), search)
}

func changedAtOrZero(a domain.Annotation) time.Time {
	if a.ChangedAt == nil {
		return time.Time{}
	}
	return *a.ChangedAt
}
