package store

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash"

	"github.com/gridstats/epadjust/ratings"
)

// RatedTeam is one team's cached rating output: the fitted offense/defense
// pair plus both schedule-strength values.
type RatedTeam struct {
	Team   string
	Off    float64
	Def    float64
	SOSOff float64
	SOSDef float64
}

// RatingsKey derives the cache key for a (season, week range, lambda)
// combination. Identical inputs always hash to the same key, matching the
// engine's idempotence guarantee.
func RatingsKey(season, weekStart, weekEnd int, lambda float64) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%d:%d:%d:%g", season, weekStart, weekEnd, lambda))
	return fmt.Sprintf("%016x", sum)
}

// SaveRatings replaces the cached rating set under key.
func (s *Store) SaveRatings(key string, season, weekStart, weekEnd int, lambda float64, teams []RatedTeam) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM ratings_cache WHERE cache_key = ?", key); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO ratings_cache (
			cache_key, season, week_start, week_end, lambda,
			team, off_rating, def_rating, sos_off, sos_def
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, t := range teams {
		_, err := stmt.Exec(key, season, weekStart, weekEnd, lambda,
			t.Team, finite(t.Off), finite(t.Def), finite(t.SOSOff), finite(t.SOSDef))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("could not cache rating for %s: %w", t.Team, err)
		}
	}
	return tx.Commit()
}

// LoadRatings loads the cached rating set for key, ordered by team. It
// returns nil when the key has never been cached.
func (s *Store) LoadRatings(key string) ([]RatedTeam, error) {
	rows, err := s.db.Query(`
		SELECT team, off_rating, def_rating, sos_off, sos_def
		FROM ratings_cache
		WHERE cache_key = ?
		ORDER BY team`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teams []RatedTeam
	for rows.Next() {
		var t RatedTeam
		if err := rows.Scan(&t.Team, &t.Off, &t.Def, &t.SOSOff, &t.SOSDef); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// RatedTeams assembles cache rows from the estimator and schedule-strength
// outputs, sorted by team for stable persistence.
func RatedTeams(fitted map[string]ratings.OffDef, sosOff, sosDef map[string]float64) []RatedTeam {
	teams := make([]RatedTeam, 0, len(fitted))
	for team, od := range fitted {
		teams = append(teams, RatedTeam{
			Team:   team,
			Off:    od.Off,
			Def:    od.Def,
			SOSOff: sosOff[team],
			SOSDef: sosDef[team],
		})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Team < teams[j].Team })
	return teams
}
