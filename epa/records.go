package epa

import "fmt"

// Record is a team's win/loss/tie tally over the games with known scores.
type Record struct {
	Wins   int
	Losses int
	Ties   int
	WinPct float64
}

// String renders "W-L", or "W-L-T" when there are ties.
func (r Record) String() string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// Records tallies wins, losses and ties per team from aggregated team-game
// rows. Games carrying the UnknownScore sentinel are ignored; teams with no
// scored games are omitted entirely. Ties count as half a win for WinPct.
func Records(games []TeamGame) map[string]Record {
	tallies := map[string]*Record{}
	for _, g := range games {
		if g.PointsFor < 0 || g.PointsAgainst < 0 {
			continue
		}
		rec := tallies[g.Team]
		if rec == nil {
			rec = &Record{}
			tallies[g.Team] = rec
		}
		switch {
		case g.PointsFor > g.PointsAgainst:
			rec.Wins++
		case g.PointsFor < g.PointsAgainst:
			rec.Losses++
		default:
			rec.Ties++
		}
	}

	result := make(map[string]Record, len(tallies))
	for team, rec := range tallies {
		n := rec.Wins + rec.Losses + rec.Ties
		rec.WinPct = (float64(rec.Wins) + 0.5*float64(rec.Ties)) / float64(n)
		result[team] = *rec
	}
	return result
}
