package cli

import (
	"github.com/spf13/cobra"

	"vol-scanner/internal/app"
)

var (
	scanWindow int
	scanTop    int
	scanLimit  int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan over the stored universe and print the ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			Window: scanWindow,
			Top:    scanTop,
			Limit:  scanLimit,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanWindow, "window", 0, "Realized vol window in trading days (defaults to config)")
	scanCmd.Flags().IntVar(&scanTop, "top", 0, "Number of scored entries to return (defaults to config)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "Scan only the first N universe tickers")
}
