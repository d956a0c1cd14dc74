package cli

import (
	"github.com/spf13/cobra"
)

var universeListLimit int

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the ticker universe",
}

var universeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace the stored universe from the configured CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().UniverseRefresh(cmd.Context())
	},
}

var universeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().UniverseList(cmd.Context(), universeListLimit)
	},
}

func init() {
	universeListCmd.Flags().IntVar(&universeListLimit, "limit", 0, "Print at most N tickers")

	universeCmd.AddCommand(universeRefreshCmd)
	universeCmd.AddCommand(universeListCmd)
}
