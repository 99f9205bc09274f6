package epa

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingColumns is returned when a play-by-play file lacks the columns
// the aggregation contract requires.
var ErrMissingColumns = errors.New("play-by-play data is missing required columns")

var requiredColumns = []string{"epa", "posteam", "defteam"}

// LoadPlaysCSV reads an nflfastR-style play-by-play CSV from a local file.
// Only epa, posteam and defteam are required; week, win probability, season
// type and score columns are picked up when present. Rows with an
// unparseable EPA value are kept with a NaN EPA and dropped later during
// aggregation.
func LoadPlaysCSV(path string) ([]Play, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open play-by-play file: %w", err)
	}
	defer f.Close()
	return ReadPlays(f)
}

// ReadPlays parses play-by-play CSV records from r.
func ReadPlays(r io.Reader) ([]Play, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read play-by-play header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	num := func(record []string, name string) float64 {
		s := field(record, name)
		if s == "" || strings.EqualFold(s, "na") {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}
	intField := func(record []string, name string) int {
		v := num(record, name)
		if math.IsNaN(v) {
			return 0
		}
		return int(v)
	}

	var plays []Play
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse play-by-play row: %w", err)
		}
		plays = append(plays, Play{
			GameID:     field(record, "game_id"),
			Season:     intField(record, "season"),
			Week:       intField(record, "week"),
			Offense:    field(record, "posteam"),
			Defense:    field(record, "defteam"),
			EPA:        num(record, "epa"),
			WinProb:    num(record, "wp"),
			SeasonType: field(record, "season_type"),
			HomeTeam:   field(record, "home_team"),
			AwayTeam:   field(record, "away_team"),
			HomeScore:  num(record, "total_home_score"),
			AwayScore:  num(record, "total_away_score"),
		})
	}
	return plays, nil
}
