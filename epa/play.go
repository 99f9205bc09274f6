// Package epa aggregates play-by-play records into per-team and per-game
// EPA splits, the observation table consumed by the ratings package.
// Defensive EPA is sign-flipped during aggregation so that higher always
// means better defense.
package epa

import (
	"fmt"
	"math"
	"strings"
)

// Play is one play-by-play record. EPA is from the offense's perspective.
// WinProb, HomeScore and AwayScore are NaN when the source did not carry
// them; SeasonType is empty when unknown.
type Play struct {
	GameID     string
	Season     int
	Week       int
	Offense    string
	Defense    string
	EPA        float64
	WinProb    float64
	SeasonType string
	HomeTeam   string
	AwayTeam   string
	HomeScore  float64
	AwayScore  float64
}

// Filters restricts a play table before aggregation. Zero values disable
// each filter: WeekStart/WeekEnd of 0 mean no bound, and win-probability
// filtering only applies when MinWinProb or MaxWinProb is set to something
// other than zero.
type Filters struct {
	WeekStart       int
	WeekEnd         int
	MinWinProb      float64
	MaxWinProb      float64
	IncludePlayoffs bool
}

func (f Filters) winProbFiltered() bool {
	return f.MinWinProb != 0 || f.MaxWinProb != 0
}

// Validate checks range consistency before any filtering happens.
func (f Filters) Validate() error {
	if f.WeekStart > 0 && f.WeekEnd > 0 && f.WeekStart > f.WeekEnd {
		return fmt.Errorf("week start (%d) cannot exceed week end (%d)", f.WeekStart, f.WeekEnd)
	}
	if f.winProbFiltered() {
		if f.MinWinProb < 0 || f.MinWinProb > 1 {
			return fmt.Errorf("min win probability must be between 0 and 1, got %v", f.MinWinProb)
		}
		if f.MaxWinProb < 0 || f.MaxWinProb > 1 {
			return fmt.Errorf("max win probability must be between 0 and 1, got %v", f.MaxWinProb)
		}
		if f.MinWinProb > f.MaxWinProb {
			return fmt.Errorf("min win probability (%v) cannot exceed max (%v)", f.MinWinProb, f.MaxWinProb)
		}
	}
	return nil
}

// Apply returns the plays passing every enabled filter.
func (f Filters) Apply(plays []Play) ([]Play, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	kept := make([]Play, 0, len(plays))
	for _, p := range plays {
		if !f.IncludePlayoffs && p.SeasonType != "" &&
			strings.ToUpper(p.SeasonType) != "REG" {
			continue
		}
		if f.WeekStart > 0 && p.Week < f.WeekStart {
			continue
		}
		if f.WeekEnd > 0 && p.Week > f.WeekEnd {
			continue
		}
		if f.winProbFiltered() {
			if math.IsNaN(p.WinProb) {
				continue
			}
			if p.WinProb < f.MinWinProb || p.WinProb > f.MaxWinProb {
				continue
			}
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// canonicalTeam normalizes a team identifier the way the aggregation
// pipeline expects it everywhere downstream.
func canonicalTeam(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
