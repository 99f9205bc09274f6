// Package config loads runtime settings for the epadjust commands from
// flags, EPADJUST_-prefixed environment variables and an optional config
// file, in that order of precedence.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gridstats/epadjust/epa"
	"github.com/gridstats/epadjust/ratings"
)

type Config struct {
	Season          int
	Seasons         []int
	WeekStart       int
	WeekEnd         int
	MinWinProb      float64
	MaxWinProb      float64
	IncludePlayoffs bool
	Lambda          float64
	DBPath          string
	PlaysPath       string
	OutputPath      string
	Debug           bool
}

// Load parses args and merges them with the environment and an optional
// config file named by -config.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("epadjust", pflag.ContinueOnError)
	fs.Int("season", 0, "season year to process (e.g. 2025)")
	fs.IntSlice("seasons", nil, "season years to export (defaults to all stored seasons)")
	fs.Int("week-start", 0, "first week to include, inclusive (0 = no bound)")
	fs.Int("week-end", 0, "last week to include, inclusive (0 = no bound)")
	fs.Float64("min-wp", 0, "minimum in-play win probability to include (0-1)")
	fs.Float64("max-wp", 0, "maximum in-play win probability to include (0-1)")
	fs.Bool("include-playoffs", false, "include postseason plays")
	fs.Float64("lambda", ratings.DefaultLambda, "ridge strength for the rating solve")
	fs.String("db", "data/epa.sqlite", "path to the SQLite snapshot database")
	fs.String("plays", "", "path to the play-by-play CSV file")
	fs.String("output", "data/epa.json", "path for the exported JSON payload")
	fs.Bool("debug", false, "enable debug logging")
	fs.String("config", "", "optional config file (yaml)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("EPADJUST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return &Config{
		Season:          v.GetInt("season"),
		Seasons:         v.GetIntSlice("seasons"),
		WeekStart:       v.GetInt("week-start"),
		WeekEnd:         v.GetInt("week-end"),
		MinWinProb:      v.GetFloat64("min-wp"),
		MaxWinProb:      v.GetFloat64("max-wp"),
		IncludePlayoffs: v.GetBool("include-playoffs"),
		Lambda:          v.GetFloat64("lambda"),
		DBPath:          v.GetString("db"),
		PlaysPath:       v.GetString("plays"),
		OutputPath:      v.GetString("output"),
		Debug:           v.GetBool("debug"),
	}, nil
}

// Filters builds the play filters implied by the loaded settings.
func (c *Config) Filters() epa.Filters {
	return epa.Filters{
		WeekStart:       c.WeekStart,
		WeekEnd:         c.WeekEnd,
		MinWinProb:      c.MinWinProb,
		MaxWinProb:      c.MaxWinProb,
		IncludePlayoffs: c.IncludePlayoffs,
	}
}
