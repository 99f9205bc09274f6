// Package store persists weekly EPA snapshots, per-game rows and fitted
// rating sets in SQLite so charts and exports can be rebuilt without
// re-reading play-by-play files. The rating engine itself stays stateless;
// this is strictly a caching collaborator.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/gridstats/epadjust/epa"
)

const teamEPAWeeklySchema = `
CREATE TABLE IF NOT EXISTS team_epa_weekly (
	season INTEGER NOT NULL,
	week INTEGER NOT NULL,
	team TEXT NOT NULL,
	off_epa_sum REAL NOT NULL,
	off_plays INTEGER NOT NULL,
	def_epa_sum REAL NOT NULL,
	def_plays INTEGER NOT NULL,
	epa_off_per_play REAL NOT NULL,
	epa_def_per_play REAL NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	PRIMARY KEY (season, week, team)
);`

const teamEPAGamesSchema = `
CREATE TABLE IF NOT EXISTS team_epa_games (
	season INTEGER NOT NULL,
	week INTEGER NOT NULL,
	game_id TEXT NOT NULL,
	team TEXT NOT NULL,
	opp TEXT NOT NULL,
	off_epa_sum REAL NOT NULL,
	off_plays INTEGER NOT NULL,
	off_epa_pp REAL NOT NULL,
	def_epa_sum REAL NOT NULL,
	def_plays INTEGER NOT NULL,
	def_epa_pp REAL NOT NULL,
	points_for INTEGER NOT NULL,
	points_against INTEGER NOT NULL,
	net_epa_pp REAL NOT NULL,
	plays INTEGER NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	PRIMARY KEY (season, game_id, team)
);`

const ratingsCacheSchema = `
CREATE TABLE IF NOT EXISTS ratings_cache (
	cache_key TEXT NOT NULL,
	season INTEGER NOT NULL,
	week_start INTEGER NOT NULL,
	week_end INTEGER NOT NULL,
	lambda REAL NOT NULL,
	team TEXT NOT NULL,
	off_rating REAL NOT NULL,
	def_rating REAL NOT NULL,
	sos_off REAL NOT NULL,
	sos_def REAL NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	PRIMARY KEY (cache_key, team)
);`

// TeamSplits is a per-team pair of per-play EPA values combined over a week
// range, as read back from the weekly snapshot table.
type TeamSplits struct {
	Team          string
	OffEPAPerPlay float64
	DefEPAPerPlay float64
}

// Store wraps the SQLite database holding EPA snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, applies the schema and
// migrates older weekly tables in place.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=DELETE;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	for _, schema := range []string{teamEPAWeeklySchema, teamEPAGamesSchema, ratingsCacheSchema} {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not apply schema: %w", err)
		}
	}
	s := &Store{db: db}
	if err := s.migrateWeeklySchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateWeeklySchema adds weekly columns that predate-schema databases are
// missing. CREATE TABLE IF NOT EXISTS never alters an existing table, so
// reruns against old files need explicit column adds to stay idempotent.
func (s *Store) migrateWeeklySchema() error {
	rows, err := s.db.Query("PRAGMA table_info(team_epa_weekly)")
	if err != nil {
		return fmt.Errorf("could not inspect weekly schema: %w", err)
	}
	existing := map[string]bool{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &primaryKey); err != nil {
			rows.Close()
			return fmt.Errorf("could not scan weekly schema row: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	migrations := []struct {
		name, typ, dflt string
	}{
		{"off_epa_sum", "REAL", "0"},
		{"off_plays", "INTEGER", "0"},
		{"def_epa_sum", "REAL", "0"},
		{"def_plays", "INTEGER", "0"},
		{"epa_off_per_play", "REAL", "0"},
		{"epa_def_per_play", "REAL", "0"},
		{"updated_at", "TEXT", "''"},
	}
	for _, m := range migrations {
		if existing[m.name] {
			continue
		}
		log.Info().Str("column", m.name).Msg("migrating weekly EPA table")
		stmt := fmt.Sprintf(
			"ALTER TABLE team_epa_weekly ADD COLUMN %s %s NOT NULL DEFAULT %s;",
			m.name, m.typ, m.dflt)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("could not add column %s: %w", m.name, err)
		}
	}
	return nil
}

// SaveWeeklySnapshot upserts one week's per-team totals for a season.
func (s *Store) SaveWeeklySnapshot(season, week int, totals []epa.TeamTotals) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO team_epa_weekly (
			season, week, team,
			off_epa_sum, off_plays, def_epa_sum, def_plays,
			epa_off_per_play, epa_def_per_play
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season, week, team) DO UPDATE SET
			off_epa_sum=excluded.off_epa_sum,
			off_plays=excluded.off_plays,
			def_epa_sum=excluded.def_epa_sum,
			def_plays=excluded.def_plays,
			epa_off_per_play=excluded.epa_off_per_play,
			epa_def_per_play=excluded.epa_def_per_play,
			updated_at=strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, t := range totals {
		if t.OffPlays == 0 || t.DefPlays == 0 {
			continue
		}
		_, err := stmt.Exec(season, week, t.Team,
			t.OffEPASum, t.OffPlays, t.DefEPASum, t.DefPlays,
			t.OffEPAPerPlay(), t.DefEPAPerPlay())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("could not save weekly snapshot for %s: %w", t.Team, err)
		}
	}
	return tx.Commit()
}

// SaveTeamGames upserts per-game rows for a season.
func (s *Store) SaveTeamGames(season int, games []epa.TeamGame) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO team_epa_games (
			season, week, game_id, team, opp,
			off_epa_sum, off_plays, off_epa_pp,
			def_epa_sum, def_plays, def_epa_pp,
			points_for, points_against, net_epa_pp, plays
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season, game_id, team) DO UPDATE SET
			week=excluded.week,
			opp=excluded.opp,
			off_epa_sum=excluded.off_epa_sum,
			off_plays=excluded.off_plays,
			off_epa_pp=excluded.off_epa_pp,
			def_epa_sum=excluded.def_epa_sum,
			def_plays=excluded.def_plays,
			def_epa_pp=excluded.def_epa_pp,
			points_for=excluded.points_for,
			points_against=excluded.points_against,
			net_epa_pp=excluded.net_epa_pp,
			plays=excluded.plays,
			updated_at=strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, g := range games {
		_, err := stmt.Exec(season, g.Week, g.GameID, g.Team, g.Opp,
			g.OffEPASum, g.OffPlays, g.OffEPAPerPlay,
			g.DefEPASum, g.DefPlays, g.DefEPAPerPlay,
			g.PointsFor, g.PointsAgainst, g.NetEPAPerPlay, g.Plays)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("could not save game row for %s: %w", g.Team, err)
		}
	}
	return tx.Commit()
}

// CachedWeeks returns the sorted week numbers stored for a season.
func (s *Store) CachedWeeks(season int) ([]int, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT week FROM team_epa_weekly WHERE season = ? ORDER BY week", season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var weeks []int
	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// Seasons returns the sorted seasons with any weekly data.
func (s *Store) Seasons() ([]int, error) {
	rows, err := s.db.Query("SELECT DISTINCT season FROM team_epa_weekly ORDER BY season")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seasons []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		seasons = append(seasons, y)
	}
	return seasons, rows.Err()
}

// LoadTeamEPA loads per-team EPA splits for a week range, weighting each
// week's contribution by its play counts. A weekStart/weekEnd of zero means
// "latest cached week". The returned slice is nil when the range holds no
// data.
func (s *Store) LoadTeamEPA(season, weekStart, weekEnd int) ([]TeamSplits, error) {
	if weekStart == 0 && weekEnd == 0 {
		row := s.db.QueryRow("SELECT MAX(week) FROM team_epa_weekly WHERE season = ?", season)
		var latest sql.NullInt64
		if err := row.Scan(&latest); err != nil {
			return nil, err
		}
		if !latest.Valid {
			return nil, nil
		}
		weekStart = int(latest.Int64)
		weekEnd = weekStart
	}
	if weekStart == 0 {
		weekStart = 1
	}
	if weekEnd == 0 {
		weekEnd = weekStart
	}

	rows, err := s.db.Query(`
		SELECT team,
			SUM(off_epa_sum), SUM(off_plays),
			SUM(def_epa_sum), SUM(def_plays)
		FROM team_epa_weekly
		WHERE season = ? AND week BETWEEN ? AND ?
		GROUP BY team
		ORDER BY team`, season, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var splits []TeamSplits
	for rows.Next() {
		var (
			team               string
			offSum, defSum     float64
			offPlays, defPlays int
		)
		if err := rows.Scan(&team, &offSum, &offPlays, &defSum, &defPlays); err != nil {
			return nil, err
		}
		if offPlays == 0 || defPlays == 0 {
			continue
		}
		splits = append(splits, TeamSplits{
			Team:          team,
			OffEPAPerPlay: offSum / float64(offPlays),
			DefEPAPerPlay: defSum / float64(defPlays),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, nil
	}
	return splits, nil
}

// WeeklyRow is one persisted weekly snapshot row.
type WeeklyRow struct {
	Week     int
	Team     string
	OffSum   float64
	OffPlays int
	DefSum   float64
	DefPlays int
}

// WeeklyRows returns every snapshot row for a season ordered by week then
// team.
func (s *Store) WeeklyRows(season int) ([]WeeklyRow, error) {
	rows, err := s.db.Query(`
		SELECT week, team, off_epa_sum, off_plays, def_epa_sum, def_plays
		FROM team_epa_weekly
		WHERE season = ?
		ORDER BY week, team`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []WeeklyRow
	for rows.Next() {
		var r WeeklyRow
		if err := rows.Scan(&r.Week, &r.Team, &r.OffSum, &r.OffPlays, &r.DefSum, &r.DefPlays); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GameRows returns every per-game row for a season ordered by week, game
// and team.
func (s *Store) GameRows(season int) ([]epa.TeamGame, error) {
	rows, err := s.db.Query(`
		SELECT week, game_id, team, opp,
			off_epa_sum, off_plays, off_epa_pp,
			def_epa_sum, def_plays, def_epa_pp,
			points_for, points_against, net_epa_pp, plays
		FROM team_epa_games
		WHERE season = ?
		ORDER BY week, game_id, team`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []epa.TeamGame
	for rows.Next() {
		var g epa.TeamGame
		if err := rows.Scan(&g.Week, &g.GameID, &g.Team, &g.Opp,
			&g.OffEPASum, &g.OffPlays, &g.OffEPAPerPlay,
			&g.DefEPASum, &g.DefPlays, &g.DefEPAPerPlay,
			&g.PointsFor, &g.PointsAgainst, &g.NetEPAPerPlay, &g.Plays); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
