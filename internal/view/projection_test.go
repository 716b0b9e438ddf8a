package view_test

import (
	"testing"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/quotedesk/quotedesk/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id int64, name, phone, email, status string) domain.CachedOrder {
	return domain.CachedOrder{
		Order: domain.Order{
			ID:     id,
			Client: domain.Client{Name: name, Phone: phone, Email: email},
			Status: status,
		},
	}
}

func selectedRow(id int64, level int, changedAt *time.Time) domain.CachedOrder {
	r := row(id, "Client", "555", "", domain.StatusPending)
	r.Annotation = domain.Annotation{SelectionLevel: level, ChangedAt: changedAt}
	return r
}

func ids(rows []domain.CachedOrder) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Order.ID)
	}
	return out
}

func TestProject_NoFiltersPreservesOrder(t *testing.T) {
	rows := []domain.CachedOrder{
		row(3, "Alice", "111", "", "Pending"),
		row(1, "Bob", "222", "", "Accepted"),
		row(2, "Carol", "333", "", "Rejected"),
	}

	out := view.Project(rows, view.State{})
	assert.Equal(t, []int64{3, 1, 2}, ids(out))
}

func TestProject_StatusFilter(t *testing.T) {
	rows := []domain.CachedOrder{
		row(1, "Alice", "111", "", "Pending"),
		row(2, "Bob", "222", "", "Accepted"),
		row(3, "Carol", "333", "", "Pending"),
	}

	out := view.Project(rows, view.State{Status: "Pending"})
	assert.Equal(t, []int64{1, 3}, ids(out))
}

func TestProject_SearchMatchesNamePhoneEmail(t *testing.T) {
	rows := []domain.CachedOrder{
		row(1, "Alice Larsen", "90112233", "alice@example.com", "Pending"),
		row(2, "Bob Hansen", "90445566", "bob@example.com", "Pending"),
		row(3, "Carol Berg", "90778899", "", "Pending"),
	}

	tests := []struct {
		name   string
		search string
		want   []int64
	}{
		{"name case-insensitive", "aLiCe", []int64{1}},
		{"partial phone", "4455", []int64{2}},
		{"email", "bob@", []int64{2}},
		{"shared domain", "example.com", []int64{1, 2}},
		{"no match", "zzz", []int64{}},
		{"whitespace trimmed", "  carol  ", []int64{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := view.Project(rows, view.State{Search: tt.search})
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestProject_SelectedOnlySortsByChangedAt(t *testing.T) {
	early := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	rows := []domain.CachedOrder{
		selectedRow(1, 2, &late),
		row(2, "Unselected", "555", "", "Pending"),
		selectedRow(3, 1, &early),
		selectedRow(4, 1, nil), // selected but no timestamp recorded
	}

	out := view.Project(rows, view.State{SelectedOnly: true})
	// ascending: nil timestamp sorts earliest
	assert.Equal(t, []int64{4, 3, 1}, ids(out))

	out = view.Project(rows, view.State{SelectedOnly: true, SortDesc: true})
	assert.Equal(t, []int64{1, 3, 4}, ids(out))
}

func TestProject_SelectedOnlySortIsStable(t *testing.T) {
	ts := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rows := []domain.CachedOrder{
		selectedRow(5, 1, &ts),
		selectedRow(2, 1, &ts),
		selectedRow(9, 1, &ts),
	}

	out := view.Project(rows, view.State{SelectedOnly: true})
	assert.Equal(t, []int64{5, 2, 9}, ids(out))
}

func TestProject_FiltersCombine(t *testing.T) {
	ts := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	matching := row(1, "Alice", "111", "", "Accepted")
	matching.Annotation = domain.Annotation{SelectionLevel: 1, ChangedAt: &ts}

	rows := []domain.CachedOrder{
		matching,
		row(2, "Alice", "222", "", "Pending"), // wrong status
		selectedRow(3, 1, &ts),                // wrong name
	}

	out := view.Project(rows, view.State{Status: "Accepted", Search: "alice", SelectedOnly: true})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].Order.ID)
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	rows := []domain.CachedOrder{
		row(1, "Alice", "111", "", "Pending"),
		row(2, "Bob", "222", "", "Accepted"),
	}

	_ = view.Project(rows, view.State{Status: "Accepted"})
	assert.Equal(t, int64(1), rows[0].Order.ID)
	assert.Equal(t, int64(2), rows[1].Order.ID)
}
