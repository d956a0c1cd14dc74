package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"vol-scanner/internal/app"
)

var (
	showTicker string
	showWindow int
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored realized vol or recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Ticker: strings.ToUpper(strings.TrimSpace(showTicker)),
			Window: showWindow,
			Limit:  showLimit,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showTicker, "ticker", "", "Show realized vol for this ticker (omit for recent alerts)")
	showCmd.Flags().IntVar(&showWindow, "window", 0, "Realized vol window in trading days (defaults to config)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
}
