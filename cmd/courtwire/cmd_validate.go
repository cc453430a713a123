package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var flagSince time.Duration

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the batch data-quality checks",
	Long: `Validate runs every data-quality check (foreign keys, uniqueness,
play-by-play monotonicity, completeness shares, freshness, cross-table
consistency) over games ingested inside the --since window and prints the
results as JSON. A failed check fails the command.

Example usage:
  courtwire validate
  courtwire validate --since 168h`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().DurationVar(&flagSince, "since", 48*time.Hour, "Check rows touching games ingested in this window")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.validator.RunAll(context.Background(), time.Now().UTC().Add(-flagSince))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}
