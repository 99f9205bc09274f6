// Package ratings estimates schedule-adjusted offensive and defensive
// efficiency ratings from per-team, per-game EPA/play observations, and
// derives the strength of the opponents each team faced.
//
// The estimator solves a ridge-regularized weighted least-squares system.
// Each observation couples one team's offense to its opponent's defense (and
// vice versa), so a team can only be rated relative to the teams it played.
// The ridge term resolves the additive degree of freedom that coupling
// leaves behind, and the solved ratings are centered so the league average
// is exactly zero.
package ratings

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultLambda is the ridge strength used when callers have no opinion.
// It is an empirical constant tuned against a single NFL season's sample
// size; sweep it rather than trusting it for other league shapes.
const DefaultLambda = 20.0

// ErrRegularizationRequired is returned when the normal-equations matrix is
// not positive-definite, which happens when lambda is zero and the schedule
// graph leaves the system rank-deficient.
var ErrRegularizationRequired = errors.New("rating system is rank-deficient; positive ridge strength required")

// ErrMissingTeam is returned when an observation row lacks a team or
// opponent identifier.
var ErrMissingTeam = errors.New("observation is missing a team or opponent identifier")

// TeamGame is one team's performance in one game, from that team's
// perspective. Defensive EPA/play is already oriented so that higher means
// better defense. Each physical game contributes two TeamGame rows, one per
// participant.
type TeamGame struct {
	Team          string
	Opp           string
	OffEPAPerPlay float64
	OffPlays      float64
	DefEPAPerPlay float64
	DefPlays      float64
}

// NetGame is the single-number variant of TeamGame: one combined net
// efficiency value per team per game, backed by a total play count.
type NetGame struct {
	Team          string
	Opp           string
	NetEPAPerPlay float64
	Plays         float64
}

// OffDef is a fitted offense/defense rating pair for one team.
type OffDef struct {
	Off float64
	Def float64
}

// AdjustedOffDef jointly fits offensive and defensive ratings for every team
// in the observation table.
//
// Each row with positive OffPlays contributes the constraint
// O_team − D_opp ≈ OffEPAPerPlay weighted by OffPlays, and each row with
// positive DefPlays contributes D_team − O_opp ≈ DefEPAPerPlay weighted by
// DefPlays. Rows with zero weight or a NaN value on a side contribute no
// constraint on that side. The returned map is empty (and the error nil)
// when the table yields no constraints at all; callers should treat that as
// "not enough data", not a failure.
func AdjustedOffDef(games []TeamGame, lambda float64) (map[string]OffDef, error) {
	if lambda < 0 {
		return nil, fmt.Errorf("ridge strength must be non-negative, got %v", lambda)
	}
	if len(games) == 0 {
		return map[string]OffDef{}, nil
	}
	names := make([]string, 0, len(games)*2)
	for _, g := range games {
		if g.Team == "" || g.Opp == "" {
			return nil, ErrMissingTeam
		}
		names = append(names, g.Team, g.Opp)
	}
	teams, index := teamIndex(names)

	n := len(teams)
	nv := 2 * n
	ata := make([]float64, nv*nv)
	atb := make([]float64, nv)
	equations := 0

	for _, g := range games {
		ti := index[g.Team]
		oi := index[g.Opp]
		// Offense equation: O_team − D_opp = off EPA/play.
		if g.OffPlays > 0 && !math.IsNaN(g.OffEPAPerPlay) {
			accumulate(ata, atb, nv, ti, oi+n, g.OffPlays, g.OffEPAPerPlay)
			equations++
		}
		// Defense equation: D_team − O_opp = def EPA/play.
		if g.DefPlays > 0 && !math.IsNaN(g.DefEPAPerPlay) {
			accumulate(ata, atb, nv, ti+n, oi, g.DefPlays, g.DefEPAPerPlay)
			equations++
		}
	}
	if equations == 0 {
		return map[string]OffDef{}, nil
	}

	solved, err := solveCentered(ata, atb, nv, lambda)
	if err != nil {
		return nil, err
	}

	result := make(map[string]OffDef, n)
	for i, team := range teams {
		result[team] = OffDef{Off: solved[i], Def: solved[i+n]}
	}
	return result, nil
}

// AdjustedNet fits a single combined net-efficiency rating per team using
// the constraint R_team − R_opp ≈ NetEPAPerPlay weighted by Plays. It is the
// N-unknown collapse of AdjustedOffDef, kept for parity with consumers of
// the older net-only view.
func AdjustedNet(games []NetGame, lambda float64) (map[string]float64, error) {
	if lambda < 0 {
		return nil, fmt.Errorf("ridge strength must be non-negative, got %v", lambda)
	}
	if len(games) == 0 {
		return map[string]float64{}, nil
	}
	names := make([]string, 0, len(games)*2)
	for _, g := range games {
		if g.Team == "" || g.Opp == "" {
			return nil, ErrMissingTeam
		}
		names = append(names, g.Team, g.Opp)
	}
	teams, index := teamIndex(names)

	n := len(teams)
	ata := make([]float64, n*n)
	atb := make([]float64, n)
	equations := 0

	for _, g := range games {
		if g.Plays <= 0 || math.IsNaN(g.NetEPAPerPlay) {
			continue
		}
		accumulate(ata, atb, n, index[g.Team], index[g.Opp], g.Plays, g.NetEPAPerPlay)
		equations++
	}
	if equations == 0 {
		return map[string]float64{}, nil
	}

	solved, err := solveCentered(ata, atb, n, lambda)
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, n)
	for i, team := range teams {
		result[team] = solved[i]
	}
	return result, nil
}

// teamIndex derives the team universe and a stable index for it from the
// names appearing in the observation table. The universe is rebuilt on every
// call; there is no shared registry.
func teamIndex(names []string) ([]string, map[string]int) {
	index := make(map[string]int, len(names))
	teams := make([]string, 0, len(names))
	for _, name := range names {
		if _, seen := index[name]; !seen {
			index[name] = 0
			teams = append(teams, name)
		}
	}
	sort.Strings(teams)
	for i, team := range teams {
		index[team] = i
	}
	return teams, index
}

// accumulate adds one weighted constraint x_a − x_b = value to the normal
// equations stored in row-major ata / atb.
func accumulate(ata, atb []float64, dim, a, b int, weight, value float64) {
	ata[a*dim+a] += weight
	ata[b*dim+b] += weight
	ata[a*dim+b] -= weight
	ata[b*dim+a] -= weight
	atb[a] += weight * value
	atb[b] -= weight * value
}

// solveCentered adds lambda to the diagonal, solves the symmetric system
// with a Cholesky factorization, and centers the solution so its mean is
// exactly zero.
func solveCentered(ata, atb []float64, dim int, lambda float64) ([]float64, error) {
	for i := 0; i < dim; i++ {
		ata[i*dim+i] += lambda
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(dim, ata)); !ok {
		return nil, ErrRegularizationRequired
	}
	solved := mat.NewVecDense(dim, nil)
	if err := chol.SolveVecTo(solved, mat.NewVecDense(dim, atb)); err != nil {
		return nil, ErrRegularizationRequired
	}

	raw := solved.RawVector().Data
	mean := floats.Sum(raw) / float64(dim)
	for i := range raw {
		raw[i] -= mean
	}
	return raw, nil
}
