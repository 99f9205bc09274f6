package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridstats/epadjust/config"
	"github.com/gridstats/epadjust/exporter"
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

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot database")
	}
	defer st.Close()

	snapshot, err := exporter.Build(st, cfg.Seasons)
	if errors.Is(err, exporter.ErrNoData) {
		log.Fatal().Msg("no season data in the database; run epaload first")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build export payload")
	}

	if err := snapshot.Write(cfg.OutputPath); err != nil {
		log.Fatal().Err(err).Msg("failed to write export payload")
	}
	log.Info().
		Str("output", cfg.OutputPath).
		Int("seasons", len(snapshot.Seasons)).
		Msg("wrote export payload")
}
