package epa

import (
	"math"
	"sort"

	"github.com/gridstats/epadjust/ratings"
)

// UnknownScore is the sentinel for games whose final score could not be
// derived from the play records.
const UnknownScore = -1

// TeamGame is one team's aggregate for one game: EPA sums and play counts
// for both sides of the ball, with defense sign-flipped so higher is better.
type TeamGame struct {
	GameID        string
	Week          int
	Team          string
	Opp           string
	OffEPASum     float64
	OffPlays      int
	OffEPAPerPlay float64
	DefEPASum     float64
	DefPlays      int
	DefEPAPerPlay float64
	PointsFor     int
	PointsAgainst int
	NetEPAPerPlay float64
	Plays         int
}

// TeamTotals is a per-team aggregate over a set of plays (typically one
// week or one season).
type TeamTotals struct {
	Team      string
	OffEPASum float64
	OffPlays  int
	DefEPASum float64
	DefPlays  int
}

// OffEPAPerPlay is the offensive per-play split, NaN when there are no
// offensive plays.
func (t TeamTotals) OffEPAPerPlay() float64 {
	if t.OffPlays == 0 {
		return math.NaN()
	}
	return t.OffEPASum / float64(t.OffPlays)
}

// DefEPAPerPlay is the defensive per-play split, NaN when there are no
// defensive plays.
func (t TeamTotals) DefEPAPerPlay() float64 {
	if t.DefPlays == 0 {
		return math.NaN()
	}
	return t.DefEPASum / float64(t.DefPlays)
}

type sideKey struct {
	gameID string
	team   string
	opp    string
}

type sideAgg struct {
	sum   float64
	plays int
}

// TeamGames aggregates plays into per-(game, team, opponent) rows for the
// given week. Each physical game yields two rows, one per participant. Rows
// are kept only when the team recorded plays on both sides; final scores
// come from the running score maxima when the play records carry them, and
// the UnknownScore sentinel otherwise.
func TeamGames(plays []Play, week int) []TeamGame {
	off := map[sideKey]*sideAgg{}
	def := map[sideKey]*sideAgg{}
	type scoreAgg struct {
		home, away           string
		homePts, awayPts     float64
		homeKnown, awayKnown bool
	}
	scores := map[string]*scoreAgg{}

	for _, p := range plays {
		if math.IsNaN(p.EPA) || p.GameID == "" {
			continue
		}
		team := canonicalTeam(p.Offense)
		opp := canonicalTeam(p.Defense)
		if team == "" || opp == "" {
			continue
		}
		offKey := sideKey{p.GameID, team, opp}
		o := off[offKey]
		if o == nil {
			o = &sideAgg{}
			off[offKey] = o
		}
		o.sum += p.EPA
		o.plays++

		defKey := sideKey{p.GameID, opp, team}
		d := def[defKey]
		if d == nil {
			d = &sideAgg{}
			def[defKey] = d
		}
		// Sign flip: EPA allowed counts against the defense.
		d.sum -= p.EPA
		d.plays++

		if p.HomeTeam != "" && p.AwayTeam != "" {
			sc := scores[p.GameID]
			if sc == nil {
				sc = &scoreAgg{home: canonicalTeam(p.HomeTeam), away: canonicalTeam(p.AwayTeam)}
				scores[p.GameID] = sc
			}
			// Running totals: the final score is the max observed.
			if !math.IsNaN(p.HomeScore) && (!sc.homeKnown || p.HomeScore > sc.homePts) {
				sc.homePts = p.HomeScore
				sc.homeKnown = true
			}
			if !math.IsNaN(p.AwayScore) && (!sc.awayKnown || p.AwayScore > sc.awayPts) {
				sc.awayPts = p.AwayScore
				sc.awayKnown = true
			}
		}
	}

	rows := make([]TeamGame, 0, len(off))
	for key, o := range off {
		d := def[key]
		if d == nil || o.plays == 0 || d.plays == 0 {
			continue
		}
		row := TeamGame{
			GameID:        key.gameID,
			Week:          week,
			Team:          key.team,
			Opp:           key.opp,
			OffEPASum:     o.sum,
			OffPlays:      o.plays,
			OffEPAPerPlay: o.sum / float64(o.plays),
			DefEPASum:     d.sum,
			DefPlays:      d.plays,
			DefEPAPerPlay: d.sum / float64(d.plays),
			PointsFor:     UnknownScore,
			PointsAgainst: UnknownScore,
			Plays:         o.plays + d.plays,
		}
		row.NetEPAPerPlay = row.OffEPAPerPlay + row.DefEPAPerPlay
		if sc := scores[key.gameID]; sc != nil && sc.homeKnown && sc.awayKnown {
			switch key.team {
			case sc.home:
				row.PointsFor = int(sc.homePts)
				row.PointsAgainst = int(sc.awayPts)
			case sc.away:
				row.PointsFor = int(sc.awayPts)
				row.PointsAgainst = int(sc.homePts)
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GameID != rows[j].GameID {
			return rows[i].GameID < rows[j].GameID
		}
		return rows[i].Team < rows[j].Team
	})
	return rows
}

// SeasonTotals aggregates plays into per-team totals across every game in
// the table. Teams without plays on both sides are dropped, matching the
// per-game policy.
func SeasonTotals(plays []Play) []TeamTotals {
	agg := map[string]*TeamTotals{}
	get := func(team string) *TeamTotals {
		t := agg[team]
		if t == nil {
			t = &TeamTotals{Team: team}
			agg[team] = t
		}
		return t
	}
	for _, p := range plays {
		if math.IsNaN(p.EPA) {
			continue
		}
		if team := canonicalTeam(p.Offense); team != "" {
			t := get(team)
			t.OffEPASum += p.EPA
			t.OffPlays++
		}
		if team := canonicalTeam(p.Defense); team != "" {
			t := get(team)
			t.DefEPASum -= p.EPA
			t.DefPlays++
		}
	}

	totals := make([]TeamTotals, 0, len(agg))
	for _, t := range agg {
		if t.OffPlays > 0 && t.DefPlays > 0 {
			totals = append(totals, *t)
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Team < totals[j].Team })
	return totals
}

// Observations converts aggregated team-game rows into the observation
// table the rating estimator consumes.
func Observations(games []TeamGame) []ratings.TeamGame {
	obs := make([]ratings.TeamGame, len(games))
	for i, g := range games {
		obs[i] = ratings.TeamGame{
			Team:          g.Team,
			Opp:           g.Opp,
			OffEPAPerPlay: g.OffEPAPerPlay,
			OffPlays:      float64(g.OffPlays),
			DefEPAPerPlay: g.DefEPAPerPlay,
			DefPlays:      float64(g.DefPlays),
		}
	}
	return obs
}

// NetObservations converts team-game rows into the single-number
// observation table used by the net-rating variant.
func NetObservations(games []TeamGame) []ratings.NetGame {
	obs := make([]ratings.NetGame, len(games))
	for i, g := range games {
		obs[i] = ratings.NetGame{
			Team:          g.Team,
			Opp:           g.Opp,
			NetEPAPerPlay: g.NetEPAPerPlay,
			Plays:         float64(g.Plays),
		}
	}
	return obs
}
