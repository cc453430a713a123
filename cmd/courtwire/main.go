// courtwire is the CLI for the historical game-data ingestion engine:
// season backfills, daily ingests, derived-analytics runs, and batch
// validation, all driven off one YAML config.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string

	flagForce      bool
	flagDryRun     bool
	flagResume     bool
	flagPersistRaw bool
)

var rootCmd = &cobra.Command{
	Use:   "courtwire",
	Short: "NBA historical game-data ingestion engine",
	Long: `courtwire ingests NBA game data from stats.nba.com, basketball-reference,
and the league gamebook PDFs into PostgreSQL, then derives first-quarter
possession windows, early-shock events, and schedule-travel fatigue metrics
on top of complete games.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagLogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config/config.yaml", "Path to the engine configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override: trace, debug, info, warn, error")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if level == "" {
		level = "info"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
