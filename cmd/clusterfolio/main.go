// Command clusterfolio segments an asset universe by risk and return
// characteristics, builds profile portfolios from the segments and
// backtests them against a benchmark.
package main

import (
	"fmt"
	"os"

	"github.com/aristath/clusterfolio/internal/config"
	"github.com/aristath/clusterfolio/internal/pipeline"
	"github.com/aristath/clusterfolio/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "v0.4.0"

// app is the state shared by every subcommand.
type app struct {
	settingsPath string
	logLevel     string

	cfg      *config.Config
	profiles *config.ProfilesConfig
	log      zerolog.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "clusterfolio",
		Short:   "Cluster-based portfolio construction and backtesting",
		Version: version,
		Long: `clusterfolio computes risk and return features for every asset, segments the
universe with density and centroid clustering, selects per-profile portfolios
from the segments and backtests them against a benchmark.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.settingsPath, "config", "c", "config/settings.yaml", "Settings file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		newRunCmd(a),
		newStatusCmd(a),
		newScheduleCmd(a),
		newServeCmd(a),
		newOptimizeCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// load reads settings and profiles and builds the logger.
func (a *app) load() error {
	cfg, err := config.Load(a.settingsPath)
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	profiles, err := config.LoadProfiles(cfg.Path(cfg.Portfolio.ProfilesFile))
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to load profiles")
		return err
	}
	a.profiles = profiles
	return nil
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(a.cfg, a.profiles.Profiles, pipeline.Options{}, a.log)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
