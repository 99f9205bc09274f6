package main

import (
	"errors"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridstats/epadjust/config"
	"github.com/gridstats/epadjust/epa"
	"github.com/gridstats/epadjust/ratings"
	"github.com/gridstats/epadjust/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.Season == 0 {
		log.Fatal().Msg("a -season is required")
	}
	if cfg.PlaysPath == "" {
		log.Fatal().Msg("a -plays file is required")
	}

	plays, err := epa.LoadPlaysCSV(cfg.PlaysPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load play-by-play data")
	}
	log.Info().Int("plays", len(plays)).Str("file", cfg.PlaysPath).Msg("loaded play-by-play data")

	filtered, err := cfg.Filters().Apply(plays)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid filters")
	}
	log.Info().Int("plays", len(filtered)).Msg("plays after filtering")

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot database")
	}
	defer st.Close()

	byWeek := map[int][]epa.Play{}
	for _, p := range filtered {
		byWeek[p.Week] = append(byWeek[p.Week], p)
	}
	weeks := make([]int, 0, len(byWeek))
	for week := range byWeek {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	var allGames []epa.TeamGame
	for _, week := range weeks {
		weekPlays := byWeek[week]
		games := epa.TeamGames(weekPlays, week)
		if err := st.SaveWeeklySnapshot(cfg.Season, week, epa.SeasonTotals(weekPlays)); err != nil {
			log.Fatal().Err(err).Int("week", week).Msg("failed to save weekly snapshot")
		}
		if err := st.SaveTeamGames(cfg.Season, games); err != nil {
			log.Fatal().Err(err).Int("week", week).Msg("failed to save game rows")
		}
		log.Debug().Int("week", week).Int("games", len(games)).Msg("stored week")
		allGames = append(allGames, games...)
	}

	fitted, err := ratings.AdjustedOffDef(epa.Observations(allGames), cfg.Lambda)
	if errors.Is(err, ratings.ErrRegularizationRequired) {
		log.Fatal().Err(err).Msg("rating solve needs a positive -lambda")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("rating solve failed")
	}
	if len(fitted) == 0 {
		log.Warn().Msg("not enough games yet for ratings")
		return
	}

	sosOff, sosDef := ratings.SplitSOSFaced(epa.Observations(allGames), fitted)
	rated := store.RatedTeams(fitted, sosOff, sosDef)

	key := store.RatingsKey(cfg.Season, cfg.WeekStart, cfg.WeekEnd, cfg.Lambda)
	if err := st.SaveRatings(key, cfg.Season, cfg.WeekStart, cfg.WeekEnd, cfg.Lambda, rated); err != nil {
		log.Fatal().Err(err).Msg("failed to cache ratings")
	}

	byNet := make([]store.RatedTeam, len(rated))
	copy(byNet, rated)
	sort.Slice(byNet, func(i, j int) bool {
		return byNet[i].Off+byNet[i].Def > byNet[j].Off+byNet[j].Def
	})
	for rank, t := range byNet {
		log.Info().
			Int("rank", rank+1).
			Str("team", t.Team).
			Float64("off", t.Off).
			Float64("def", t.Def).
			Float64("sos_off", t.SOSOff).
			Float64("sos_def", t.SOSDef).
			Msg("rated")
	}
	log.Info().Str("key", key).Int("teams", len(rated)).Msg("ratings cached")
}
