package domain_test

import (
	"testing"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationCycle(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	a := domain.Annotation{}
	assert.False(t, a.Selected())

	a = a.Cycle(now)
	assert.Equal(t, 1, a.SelectionLevel)
	assert.True(t, a.Selected())
	require.NotNil(t, a.ChangedAt)
	assert.True(t, now.Equal(*a.ChangedAt))

	a = domain.Annotation{SelectionLevel: domain.MaxSelectionLevel}
	a = a.Cycle(now)
	assert.Equal(t, 0, a.SelectionLevel)
	assert.Nil(t, a.ChangedAt)
	assert.False(t, a.Selected())
}

func TestFallbackStatuses(t *testing.T) {
	assert.Equal(t, []string{"Pending", "Accepted", "Rejected"}, domain.FallbackStatuses())
}
