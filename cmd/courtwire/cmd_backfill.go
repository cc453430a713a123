package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var flagSeasons []string

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill one or more full seasons",
	Long: `Backfill enumerates every game of the named seasons from the daily
scoreboards and ingests them in rate-limited batches. Progress is
checkpointed per game; rerun with --resume to pick up only pending and
failed games.

Example usage:
  courtwire backfill --seasons 2022-23,2023-24
  courtwire backfill --seasons 2023-24 --resume
  courtwire backfill --seasons 2023-24 --force --persist-raw`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().StringSliceVar(&flagSeasons, "seasons", nil, "Seasons to backfill, e.g. 2023-24 (required)")
	backfillCmd.Flags().BoolVar(&flagForce, "force", false, "Refetch games already ingested as final")
	backfillCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Fetch and transform without writing to the database")
	backfillCmd.Flags().BoolVar(&flagResume, "resume", false, "Process only pending and failed checkpoints")
	backfillCmd.Flags().BoolVar(&flagPersistRaw, "persist-raw", false, "Archive raw vendor payloads per game")
	backfillCmd.MarkFlagRequired("seasons")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if len(flagSeasons) == 0 {
		return errors.New("at least one season is required")
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	var firstErr error
	for _, season := range flagSeasons {
		res, err := a.orch.RunSeason(ctx, season)
		if err == nil {
			err = reportResult(res)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
