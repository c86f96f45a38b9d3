package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"football-trends/analysis"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FOOTBALL_API_KEY", "key")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()
	assert.Equal(t, "https://v3.football.api-sports.io", cfg.FootballAPIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.FootballAPITimeout)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, analysis.DefaultParams(), cfg.Model)
	assert.Empty(t, cfg.DatabaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FOOTBALL_API_KEY", "key")
	t.Setenv("FOOTBALL_API_TIMEOUT", "3s")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("DRAW_THRESHOLD", "0.05")
	t.Setenv("KEY_PLAYERS", "7")
	t.Setenv("DEFAULT_SEASON", "2023")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.FootballAPITimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0.05, cfg.Model.DrawThreshold)
	assert.Equal(t, 7, cfg.Model.KeyPlayers)
	assert.Equal(t, 2023, cfg.DefaultSeason)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("KEY_PLAYERS", "five")
	t.Setenv("CACHE_TTL", "forever")

	cfg := Load()
	assert.Equal(t, analysis.DefaultKeyPlayers, cfg.Model.KeyPlayers)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestValidate(t *testing.T) {
	t.Setenv("FOOTBALL_API_KEY", "")
	t.Setenv("GOAL_DENOMINATOR", "0")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOOTBALL_API_KEY")
	assert.ErrorIs(t, err, analysis.ErrInvalidParams)
}

func TestCacheCleanupInterval(t *testing.T) {
	assert.Equal(t, 30*time.Minute, (&Config{CacheTTL: time.Hour}).CacheCleanupInterval())
	assert.Equal(t, time.Second, (&Config{CacheTTL: time.Nanosecond}).CacheCleanupInterval())
	assert.Equal(t, time.Second, (&Config{CacheTTL: 0}).CacheCleanupInterval())
}
