package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bribecast/internal/app"
)

var (
	exportPair      string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxRounds int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored ledger as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportPair == "" {
			return fmt.Errorf("--pair must be provided (e.g. votium:cvx-crv)")
		}

		opts := app.ExportOptions{
			Pair:      exportPair,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxRounds: exportMaxRounds,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPair, "pair", "", "Platform/protocol pair (platform:protocol)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxRounds, "max-rounds", 0, "Maximum rounds to export (defaults to config)")
}
