package config_test

import (
	"testing"

	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 60, cfg.Refresh.FullInterval)
	assert.Equal(t, 10, cfg.Refresh.RecentInterval)
	assert.Equal(t, 60, cfg.Refresh.RecentWindow)
	assert.Equal(t, 4, cfg.Refresh.Workers)
	assert.Equal(t, "./selected_orders.json", cfg.Annotation.Path)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("REFRESH_FULLINTERVAL", "120")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 120, cfg.Refresh.FullInterval)
}

func TestLoad_LegacyDatabaseEnvNames(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "desk")
	t.Setenv("DB_PORT", "5433")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "desk", cfg.Database.User)
	assert.Equal(t, 5433, cfg.Database.Port)
}

func TestStyleFor_KnownStatus(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	style := cfg.Statuses.StyleFor("Accepted")
	assert.Equal(t, "Accepted", style.Label)
	assert.Equal(t, "#4CAF50", style.Color)
	assert.Equal(t, "#E8F5E9", style.LightColor)

	// Lookup is case-insensitive
	assert.Equal(t, style.Color, cfg.Statuses.StyleFor("accepted").Color)
}

func TestStyleFor_UnknownStatusGetsFallback(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	style := cfg.Statuses.StyleFor("On Hold")
	assert.Equal(t, "On Hold", style.Label)
	assert.Equal(t, "#9E9E9E", style.Color)
	assert.Equal(t, "#F5F5F5", style.LightColor)
}

func TestStyleFor_MissingLabelDefaultsToValue(t *testing.T) {
	s := config.StatusesConfig{
		Styles: map[string]domain.StatusStyle{
			"on hold": {Color: "#123456", LightColor: "#ABCDEF"},
		},
	}

	style := s.StyleFor("On Hold")
	assert.Equal(t, "On Hold", style.Label)
	assert.Equal(t, "#123456", style.Color)
}

func TestDurationHelpers(t *testing.T) {
	r := config.RefreshConfig{FullInterval: 60, RecentInterval: 10, RecentWindow: 60, QueryTimeout: 15}
	assert.Equal(t, "1m0s", r.FullIntervalDuration().String())
	assert.Equal(t, "10s", r.RecentIntervalDuration().String())
	assert.Equal(t, "15s", r.QueryTimeoutDuration().String())
}
