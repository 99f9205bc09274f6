package epa

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadPlays(t *testing.T) {
	data := strings.Join([]string{
		"game_id,season,week,posteam,defteam,epa,wp,season_type,home_team,away_team,total_home_score,total_away_score",
		"g1,2025,1,KC,DET,0.45,0.55,REG,KC,DET,7,0",
		"g1,2025,1,DET,KC,,0.45,REG,KC,DET,7,3",
		"g1,2025,1,DET,KC,not-a-number,NA,REG,KC,DET,7,3",
	}, "\n")

	plays, err := ReadPlays(strings.NewReader(data))
	assert.NoError(t, err)
	assert.Len(t, plays, 3)

	assert.Equal(t, "g1", plays[0].GameID)
	assert.Equal(t, 2025, plays[0].Season)
	assert.Equal(t, 1, plays[0].Week)
	assert.Equal(t, "KC", plays[0].Offense)
	assert.Equal(t, "DET", plays[0].Defense)
	assert.InDelta(t, 0.45, plays[0].EPA, 1e-12)
	assert.InDelta(t, 7, plays[0].HomeScore, 1e-12)

	// Empty and unparseable numerics come through as NaN.
	assert.True(t, math.IsNaN(plays[1].EPA))
	assert.True(t, math.IsNaN(plays[2].EPA))
	assert.True(t, math.IsNaN(plays[2].WinProb))
}

func TestReadPlaysRequiresColumns(t *testing.T) {
	_, err := ReadPlays(strings.NewReader("game_id,posteam\ng1,KC"))
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "defteam")
	assert.Contains(t, err.Error(), "epa")
}
