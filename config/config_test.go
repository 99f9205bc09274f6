package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridstats/epadjust/ratings"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	assert.NoError(t, err)
	assert.Zero(t, cfg.Season)
	assert.Equal(t, ratings.DefaultLambda, cfg.Lambda)
	assert.Equal(t, "data/epa.sqlite", cfg.DBPath)
	assert.Equal(t, "data/epa.json", cfg.OutputPath)
	assert.False(t, cfg.IncludePlayoffs)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--season", "2025",
		"--week-start", "3",
		"--week-end", "9",
		"--min-wp", "0.1",
		"--max-wp", "0.9",
		"--lambda", "5",
		"--include-playoffs",
		"--plays", "plays.csv",
	})
	assert.NoError(t, err)
	assert.Equal(t, 2025, cfg.Season)
	assert.Equal(t, 3, cfg.WeekStart)
	assert.Equal(t, 9, cfg.WeekEnd)
	assert.Equal(t, 5.0, cfg.Lambda)
	assert.True(t, cfg.IncludePlayoffs)
	assert.Equal(t, "plays.csv", cfg.PlaysPath)

	filters := cfg.Filters()
	assert.Equal(t, 3, filters.WeekStart)
	assert.Equal(t, 0.1, filters.MinWinProb)
	assert.True(t, filters.IncludePlayoffs)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("EPADJUST_LAMBDA", "12.5")
	t.Setenv("EPADJUST_DB", "/tmp/other.sqlite")

	cfg, err := Load(nil)
	assert.NoError(t, err)
	assert.Equal(t, 12.5, cfg.Lambda)
	assert.Equal(t, "/tmp/other.sqlite", cfg.DBPath)
}
