package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	simulateTicker string
	simulateIV     float64
	simulateRV     float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Push a synthetic iv/rv score through the alert pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := strings.ToUpper(strings.TrimSpace(simulateTicker))
		if ticker == "" {
			return errors.New("--ticker is required")
		}
		if simulateIV <= 0 || simulateRV <= 0 {
			return errors.New("--iv and --rv must be greater than 0")
		}
		return getApp().SimulateAlert(cmd.Context(), ticker, simulateIV, simulateRV)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTicker, "ticker", "", "Ticker to report in the alert")
	simulateCmd.Flags().Float64Var(&simulateIV, "iv", 0, "Implied volatility (annualized)")
	simulateCmd.Flags().Float64Var(&simulateRV, "rv", 0, "Realized volatility (annualized)")
}
