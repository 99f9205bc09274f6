package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridstats/epadjust/epa"
	"github.com/gridstats/epadjust/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "epa.sqlite"))
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.NoError(t, s.SaveWeeklySnapshot(2025, 1, []epa.TeamTotals{
		{Team: "KC", OffEPASum: 6, OffPlays: 60, DefEPASum: 3, DefPlays: 60},
		{Team: "DET", OffEPASum: -3, OffPlays: 60, DefEPASum: -6, DefPlays: 60},
	}))
	assert.NoError(t, s.SaveWeeklySnapshot(2025, 2, []epa.TeamTotals{
		{Team: "KC", OffEPASum: 12, OffPlays: 60, DefEPASum: 0, DefPlays: 60},
	}))
	assert.NoError(t, s.SaveTeamGames(2025, []epa.TeamGame{
		{GameID: "g1", Week: 1, Team: "KC", Opp: "DET",
			OffEPASum: 6, OffPlays: 60, OffEPAPerPlay: 0.1,
			DefEPASum: 3, DefPlays: 60, DefEPAPerPlay: 0.05,
			PointsFor: 24, PointsAgainst: 17, NetEPAPerPlay: 0.15, Plays: 120},
	}))
	return s
}

func TestBuildSnapshot(t *testing.T) {
	s := seededStore(t)

	snapshot, err := Build(s, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, snapshot.GeneratedAt)
	assert.Len(t, snapshot.Seasons, 1)

	season := snapshot.Seasons["2025"]
	assert.Equal(t, []int{1, 2}, season.Weeks)
	assert.Len(t, season.Teams, 2)
	assert.Equal(t, "DET", season.Teams[0].Team)
	assert.Equal(t, "KC", season.Teams[1].Team)

	kcWeek1 := season.Teams[1].Weeks["1"]
	assert.NotNil(t, kcWeek1.Off)
	assert.InDelta(t, 0.1, *kcWeek1.Off, 1e-12)
	assert.Equal(t, 60, *kcWeek1.OffPlays)

	assert.Len(t, season.Games, 1)
	assert.Equal(t, "g1", season.Games[0].GameID)
	assert.Equal(t, 24, season.Games[0].PointsFor)
}

func TestBuildEmptyDatabase(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "epa.sqlite"))
	assert.NoError(t, err)
	defer s.Close()

	_, err = Build(s, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBuildSkipsSeasonsWithoutData(t *testing.T) {
	s := seededStore(t)

	snapshot, err := Build(s, []int{2025, 1999})
	assert.NoError(t, err)
	assert.Len(t, snapshot.Seasons, 1)
}

func TestWriteSnapshot(t *testing.T) {
	s := seededStore(t)
	snapshot, err := Build(s, nil)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "epa.json")
	assert.NoError(t, snapshot.Write(path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var decoded Snapshot
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded.Seasons, "2025")
}
