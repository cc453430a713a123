package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/courtwire/courtwire/internal/pipeline"
)

var flagDateRange string

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Ingest the games of a date or date range",
	Long: `Daily ingests every game of the given arena-local dates, then the
gamebook referee assignments for those dates. Without --date-range it
processes yesterday, the usual cron invocation.

Example usage:
  courtwire daily
  courtwire daily --date-range 2024-01-15
  courtwire daily --date-range 2024-01-15:2024-01-20 --force`,
	RunE: runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.Flags().StringVar(&flagDateRange, "date-range", "", "Date or range, YYYY-MM-DD[:YYYY-MM-DD]; default yesterday")
	dailyCmd.Flags().BoolVar(&flagForce, "force", false, "Refetch games already ingested as final")
	dailyCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Fetch and transform without writing to the database")
	dailyCmd.Flags().BoolVar(&flagPersistRaw, "persist-raw", false, "Archive raw vendor payloads per game")
}

func runDaily(cmd *cobra.Command, args []string) error {
	from, to, err := resolveDateRange(flagDateRange)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.orch.RunDaily(context.Background(), from, to)
	if err != nil {
		return err
	}
	return reportResult(res)
}

func resolveDateRange(s string) (time.Time, time.Time, error) {
	if s == "" {
		y := time.Now().UTC().AddDate(0, 0, -1)
		d := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
		return d, d, nil
	}
	return pipeline.ParseDateRange(s)
}
