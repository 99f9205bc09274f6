package epa

import (
	"fmt"
	"math"
	"sort"
)

// Mode selects how weekly EPA values are smoothed for display.
type Mode string

const (
	// ModeWeekly passes each week's value through untouched.
	ModeWeekly Mode = "weekly"
	// ModeSeasonToDate is a play-weighted expanding average from week one.
	ModeSeasonToDate Mode = "season_to_date_avg"
	// ModeTrailing is a play-weighted rolling average over a fixed window.
	ModeTrailing Mode = "trailing_avg"
)

// WeeklyEPA is one team's off/def EPA value for one week. Values may be NaN
// when a week is missing a metric; weights of zero mean "unweighted".
type WeeklyEPA struct {
	Season   int
	Week     int
	Team     string
	OffEPA   float64
	DefEPA   float64
	OffPlays float64
	DefPlays float64
}

// ModedEPA is a WeeklyEPA with the smoothed values for the selected mode.
// Net is always the sum of the smoothed offense and defense values.
type ModedEPA struct {
	WeeklyEPA
	OffMode float64
	DefMode float64
	NetMode float64
}

// ApplyMode computes the smoothed series per (season, team) group, ordered
// by week within each group. Weighted averaging is used whenever a group
// has any positive play weights for the metric; weeks with a missing value
// contribute neither value nor weight to the running averages.
func ApplyMode(rows []WeeklyEPA, mode Mode, window int) ([]ModedEPA, error) {
	switch mode {
	case ModeWeekly, ModeSeasonToDate, ModeTrailing:
	default:
		return nil, fmt.Errorf("unsupported EPA mode: %q", mode)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rolling window must be positive, got %d", window)
	}

	type groupKey struct {
		season int
		team   string
	}
	groups := map[groupKey][]WeeklyEPA{}
	var order []groupKey
	for _, row := range rows {
		key := groupKey{row.Season, row.Team}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].season != order[j].season {
			return order[i].season < order[j].season
		}
		return order[i].team < order[j].team
	})

	var result []ModedEPA
	for _, key := range order {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool { return group[i].Week < group[j].Week })

		offVals := make([]float64, len(group))
		offWts := make([]float64, len(group))
		defVals := make([]float64, len(group))
		defWts := make([]float64, len(group))
		for i, row := range group {
			offVals[i], offWts[i] = row.OffEPA, row.OffPlays
			defVals[i], defWts[i] = row.DefEPA, row.DefPlays
		}

		offMode := smooth(offVals, offWts, mode, window)
		defMode := smooth(defVals, defWts, mode, window)
		for i, row := range group {
			result = append(result, ModedEPA{
				WeeklyEPA: row,
				OffMode:   offMode[i],
				DefMode:   defMode[i],
				NetMode:   offMode[i] + defMode[i],
			})
		}
	}
	return result, nil
}

func smooth(values, weights []float64, mode Mode, window int) []float64 {
	if mode == ModeWeekly {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	// Weights only count where the value itself is present.
	masked := make([]float64, len(weights))
	hasWeights := false
	for i, w := range weights {
		if w > 0 && !math.IsNaN(values[i]) {
			masked[i] = w
			hasWeights = true
		}
	}

	out := make([]float64, len(values))
	for i := range values {
		start := 0
		if mode == ModeTrailing && i+1 > window {
			start = i + 1 - window
		}
		var numer, denom float64
		for j := start; j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}
			if hasWeights {
				numer += values[j] * masked[j]
				denom += masked[j]
			} else {
				numer += values[j]
				denom++
			}
		}
		if denom == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = numer / denom
		}
	}
	return out
}
