package cli

import (
	"github.com/spf13/cobra"

	"vol-scanner/internal/app"
)

var (
	backfillLimit  int
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill daily closes and realized vol for the universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.BackfillOptions{
			Limit:  backfillLimit,
			DryRun: backfillDryRun,
		}
		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillLimit, "limit", 0, "Backfill only the first N universe tickers")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Fetch and compute without writing to storage")
}
