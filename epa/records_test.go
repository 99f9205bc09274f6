package epa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordsTallies(t *testing.T) {
	games := []TeamGame{
		{Team: "AAA", Opp: "BBB", PointsFor: 24, PointsAgainst: 17},
		{Team: "BBB", Opp: "AAA", PointsFor: 17, PointsAgainst: 24},
		{Team: "AAA", Opp: "CCC", PointsFor: 20, PointsAgainst: 20},
		{Team: "CCC", Opp: "AAA", PointsFor: 20, PointsAgainst: 20},
		{Team: "AAA", Opp: "BBB", PointsFor: 10, PointsAgainst: 31},
	}
	records := Records(games)

	aaa := records["AAA"]
	assert.Equal(t, 1, aaa.Wins)
	assert.Equal(t, 1, aaa.Losses)
	assert.Equal(t, 1, aaa.Ties)
	assert.Equal(t, "1-1-1", aaa.String())
	assert.InDelta(t, 0.5, aaa.WinPct, 1e-12)

	bbb := records["BBB"]
	assert.Equal(t, "0-1", bbb.String())
	assert.Zero(t, bbb.WinPct)
}

func TestRecordsSkipsSentinelScores(t *testing.T) {
	games := []TeamGame{
		{Team: "AAA", Opp: "BBB", PointsFor: UnknownScore, PointsAgainst: UnknownScore},
		{Team: "BBB", Opp: "AAA", PointsFor: UnknownScore, PointsAgainst: UnknownScore},
	}
	assert.Empty(t, Records(games))
}
