package ratings

import "github.com/samber/lo"

// SplitSOSFaced computes, per team, the play-weighted average rating of the
// opponents that team faced on each side of the ball: the first returned map
// averages opponents' defensive ratings weighted by OffPlays, the second
// averages opponents' offensive ratings weighted by DefPlays.
//
// Both maps cover the full team universe of the observation table. A team
// with no positively-weighted opponents on a side gets zero, never NaN, so
// downstream ranking never has to special-case missing opponents.
func SplitSOSFaced(games []TeamGame, fitted map[string]OffDef) (map[string]float64, map[string]float64) {
	sosOff := map[string]float64{}
	sosDef := map[string]float64{}
	if len(games) == 0 {
		return sosOff, sosDef
	}

	type accum struct {
		sum    float64
		weight float64
	}
	offAcc := map[string]*accum{}
	defAcc := map[string]*accum{}

	for _, g := range games {
		opp, ok := fitted[g.Opp]
		if !ok {
			continue
		}
		if w := g.OffPlays; w > 0 {
			a := offAcc[g.Team]
			if a == nil {
				a = &accum{}
				offAcc[g.Team] = a
			}
			a.sum += w * opp.Def
			a.weight += w
		}
		if w := g.DefPlays; w > 0 {
			a := defAcc[g.Team]
			if a == nil {
				a = &accum{}
				defAcc[g.Team] = a
			}
			a.sum += w * opp.Off
			a.weight += w
		}
	}

	universe := lo.Uniq(lo.FlatMap(games, func(g TeamGame, _ int) []string {
		return []string{g.Team, g.Opp}
	}))
	for _, team := range universe {
		sosOff[team] = 0
		sosDef[team] = 0
		if a := offAcc[team]; a != nil && a.weight > 0 {
			sosOff[team] = a.sum / a.weight
		}
		if a := defAcc[team]; a != nil && a.weight > 0 {
			sosDef[team] = a.sum / a.weight
		}
	}
	return sosOff, sosDef
}

// SOSFaced is the net-rating counterpart of SplitSOSFaced: the play-weighted
// average net rating of each team's opponents. The output is keyed by the
// fitted rating table; teams that faced no rated opponents get zero.
func SOSFaced(games []NetGame, fitted map[string]float64) map[string]float64 {
	sos := map[string]float64{}
	if len(games) == 0 || len(fitted) == 0 {
		return sos
	}

	type accum struct {
		sum    float64
		weight float64
	}
	acc := map[string]*accum{}
	for _, g := range games {
		rating, ok := fitted[g.Opp]
		if !ok || g.Plays <= 0 {
			continue
		}
		a := acc[g.Team]
		if a == nil {
			a = &accum{}
			acc[g.Team] = a
		}
		a.sum += g.Plays * rating
		a.weight += g.Plays
	}

	for team := range fitted {
		sos[team] = 0
		if a := acc[team]; a != nil && a.weight > 0 {
			sos[team] = a.sum / a.weight
		}
	}
	return sos
}
