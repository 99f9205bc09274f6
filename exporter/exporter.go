// Package exporter renders the cached EPA database into the static JSON
// payload the browser front end reads, so a static host can serve charts
// without touching SQLite.
package exporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gridstats/epadjust/store"
)

// ErrNoData is returned when the database holds no season data at all.
var ErrNoData = errors.New("no season data found in the database")

// WeekValues is one team's splits for one week. Sides without plays are
// omitted from the payload.
type WeekValues struct {
	Off      *float64 `json:"off,omitempty"`
	OffPlays *int     `json:"off_plays,omitempty"`
	Def      *float64 `json:"def,omitempty"`
	DefPlays *int     `json:"def_plays,omitempty"`
}

// TeamPayload is one team's week-by-week series, keyed by week number.
type TeamPayload struct {
	Team  string                `json:"team"`
	Weeks map[string]WeekValues `json:"weeks"`
}

// GamePayload is one per-game row in the export.
type GamePayload struct {
	GameID        string  `json:"game_id"`
	Week          int     `json:"week"`
	Team          string  `json:"team"`
	Opp           string  `json:"opp"`
	OffEPAPerPlay float64 `json:"off_epa_pp"`
	DefEPAPerPlay float64 `json:"def_epa_pp"`
	OffPlays      int     `json:"off_plays"`
	DefPlays      int     `json:"def_plays"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	NetEPAPerPlay float64 `json:"net_epa_pp"`
	Plays         int     `json:"plays"`
}

// SeasonPayload is one season's worth of export data.
type SeasonPayload struct {
	Weeks []int         `json:"weeks"`
	Teams []TeamPayload `json:"teams"`
	Games []GamePayload `json:"games"`
}

// Snapshot is the complete export payload.
type Snapshot struct {
	Seasons     map[string]SeasonPayload `json:"seasons"`
	GeneratedAt string                   `json:"generated_at"`
	GitSHA      string                   `json:"git_sha,omitempty"`
}

// Build assembles the payload for the given seasons, or every stored season
// when none are named. Seasons are read concurrently; each season's reads
// are independent of the others.
func Build(st *store.Store, seasons []int) (*Snapshot, error) {
	if len(seasons) == 0 {
		stored, err := st.Seasons()
		if err != nil {
			return nil, err
		}
		seasons = stored
	}
	sort.Ints(seasons)

	snapshot := &Snapshot{
		Seasons:     map[string]SeasonPayload{},
		GeneratedAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		GitSHA:      os.Getenv("GITHUB_SHA"),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, season := range seasons {
		season := season
		g.Go(func() error {
			payload, err := buildSeason(st, season)
			if err != nil {
				return fmt.Errorf("season %d: %w", season, err)
			}
			if payload == nil {
				return nil
			}
			mu.Lock()
			snapshot.Seasons[strconv.Itoa(season)] = *payload
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(snapshot.Seasons) == 0 {
		return nil, ErrNoData
	}
	return snapshot, nil
}

func buildSeason(st *store.Store, season int) (*SeasonPayload, error) {
	weekly, err := st.WeeklyRows(season)
	if err != nil {
		return nil, err
	}
	if len(weekly) == 0 {
		return nil, nil
	}

	weekSet := map[int]bool{}
	teamWeeks := map[string]map[string]WeekValues{}
	for _, row := range weekly {
		weekSet[row.Week] = true
		weeks := teamWeeks[row.Team]
		if weeks == nil {
			weeks = map[string]WeekValues{}
			teamWeeks[row.Team] = weeks
		}
		var values WeekValues
		if row.OffPlays > 0 {
			off := row.OffSum / float64(row.OffPlays)
			offPlays := row.OffPlays
			values.Off = &off
			values.OffPlays = &offPlays
		}
		if row.DefPlays > 0 {
			def := row.DefSum / float64(row.DefPlays)
			defPlays := row.DefPlays
			values.Def = &def
			values.DefPlays = &defPlays
		}
		weeks[strconv.Itoa(row.Week)] = values
	}

	payload := &SeasonPayload{Games: []GamePayload{}}
	for week := range weekSet {
		payload.Weeks = append(payload.Weeks, week)
	}
	sort.Ints(payload.Weeks)

	teams := make([]string, 0, len(teamWeeks))
	for team := range teamWeeks {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		payload.Teams = append(payload.Teams, TeamPayload{Team: team, Weeks: teamWeeks[team]})
	}

	games, err := st.GameRows(season)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		payload.Games = append(payload.Games, GamePayload{
			GameID:        g.GameID,
			Week:          g.Week,
			Team:          g.Team,
			Opp:           g.Opp,
			OffEPAPerPlay: g.OffEPAPerPlay,
			DefEPAPerPlay: g.DefEPAPerPlay,
			OffPlays:      g.OffPlays,
			DefPlays:      g.DefPlays,
			PointsFor:     g.PointsFor,
			PointsAgainst: g.PointsAgainst,
			NetEPAPerPlay: g.NetEPAPerPlay,
			Plays:         g.Plays,
		})
	}
	return payload, nil
}

// Write serializes the snapshot as indented JSON with a trailing newline.
func (s *Snapshot) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write export payload: %w", err)
	}
	return nil
}
