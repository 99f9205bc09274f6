package epa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamGamesTwoPerspectives(t *testing.T) {
	plays := []Play{
		{GameID: "g1", Offense: "aaa", Defense: "BBB", EPA: 0.3, HomeScore: math.NaN(), AwayScore: math.NaN()},
		{GameID: "g1", Offense: "AAA", Defense: "BBB", EPA: 0.1, HomeScore: math.NaN(), AwayScore: math.NaN()},
		{GameID: "g1", Offense: "BBB", Defense: "AAA", EPA: -0.2, HomeScore: math.NaN(), AwayScore: math.NaN()},
	}
	rows := TeamGames(plays, 4)
	assert.Len(t, rows, 2)

	var aaa, bbb TeamGame
	for _, row := range rows {
		switch row.Team {
		case "AAA":
			aaa = row
		case "BBB":
			bbb = row
		}
	}

	assert.Equal(t, 4, aaa.Week)
	assert.Equal(t, "BBB", aaa.Opp)
	assert.Equal(t, 2, aaa.OffPlays)
	assert.InDelta(t, 0.4, aaa.OffEPASum, 1e-12)
	assert.InDelta(t, 0.2, aaa.OffEPAPerPlay, 1e-12)
	// AAA's defense saw BBB's one play; sign flipped so positive is good.
	assert.Equal(t, 1, aaa.DefPlays)
	assert.InDelta(t, 0.2, aaa.DefEPAPerPlay, 1e-12)
	assert.Equal(t, 3, aaa.Plays)

	assert.Equal(t, 1, bbb.OffPlays)
	assert.InDelta(t, -0.2, bbb.OffEPAPerPlay, 1e-12)
	assert.Equal(t, 2, bbb.DefPlays)
	assert.InDelta(t, -0.2, bbb.DefEPAPerPlay, 1e-12)

	// No score columns: sentinel points.
	assert.Equal(t, UnknownScore, aaa.PointsFor)
	assert.Equal(t, UnknownScore, aaa.PointsAgainst)
	assert.Equal(t, UnknownScore, bbb.PointsFor)
}

func TestTeamGamesScoresFromRunningTotals(t *testing.T) {
	plays := []Play{
		{GameID: "g2", Offense: "AAA", Defense: "BBB", EPA: 0.3,
			HomeTeam: "AAA", AwayTeam: "BBB", HomeScore: 7, AwayScore: 3},
		{GameID: "g2", Offense: "BBB", Defense: "AAA", EPA: -0.1,
			HomeTeam: "AAA", AwayTeam: "BBB", HomeScore: 14, AwayScore: 10},
	}
	rows := TeamGames(plays, 1)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		if row.Team == "AAA" {
			assert.Equal(t, 14, row.PointsFor)
			assert.Equal(t, 10, row.PointsAgainst)
		} else {
			assert.Equal(t, 10, row.PointsFor)
			assert.Equal(t, 14, row.PointsAgainst)
		}
	}
}

func TestTeamGamesDropsOneSidedRows(t *testing.T) {
	// BBB never has an offensive play, so neither perspective survives the
	// both-sides requirement in games where BBB is involved alone.
	plays := []Play{
		{GameID: "g3", Offense: "AAA", Defense: "BBB", EPA: 0.2, HomeScore: math.NaN(), AwayScore: math.NaN()},
	}
	rows := TeamGames(plays, 1)
	assert.Empty(t, rows)
}

func TestTeamGamesSkipsUnusableRows(t *testing.T) {
	plays := []Play{
		{GameID: "g4", Offense: "AAA", Defense: "BBB", EPA: math.NaN()},
		{GameID: "", Offense: "AAA", Defense: "BBB", EPA: 0.5},
		{GameID: "g4", Offense: "", Defense: "BBB", EPA: 0.5},
	}
	assert.Empty(t, TeamGames(plays, 1))
}

func TestSeasonTotalsSignFlip(t *testing.T) {
	plays := []Play{
		{GameID: "g1", Offense: "AAA", Defense: "BBB", EPA: 0.5},
		{GameID: "g1", Offense: "AAA", Defense: "BBB", EPA: -0.1},
		{GameID: "g1", Offense: "BBB", Defense: "AAA", EPA: 0.2},
	}
	totals := SeasonTotals(plays)
	assert.Len(t, totals, 2)
	assert.Equal(t, "AAA", totals[0].Team)
	assert.InDelta(t, 0.4, totals[0].OffEPASum, 1e-12)
	assert.Equal(t, 2, totals[0].OffPlays)
	assert.InDelta(t, -0.2, totals[0].DefEPASum, 1e-12)
	assert.Equal(t, 1, totals[0].DefPlays)
	assert.InDelta(t, 0.2, totals[0].OffEPAPerPlay(), 1e-12)

	assert.Equal(t, "BBB", totals[1].Team)
	assert.InDelta(t, -0.4, totals[1].DefEPASum, 1e-12)
	assert.Equal(t, 2, totals[1].DefPlays)
}

func TestObservationsRoundTrip(t *testing.T) {
	games := []TeamGame{{
		Team: "AAA", Opp: "BBB",
		OffEPAPerPlay: 0.2, OffPlays: 60,
		DefEPAPerPlay: 0.1, DefPlays: 55,
		NetEPAPerPlay: 0.3, Plays: 115,
	}}
	obs := Observations(games)
	assert.Len(t, obs, 1)
	assert.Equal(t, "AAA", obs[0].Team)
	assert.Equal(t, 60.0, obs[0].OffPlays)
	assert.Equal(t, 0.1, obs[0].DefEPAPerPlay)

	net := NetObservations(games)
	assert.Equal(t, 115.0, net[0].Plays)
	assert.Equal(t, 0.3, net[0].NetEPAPerPlay)
}
