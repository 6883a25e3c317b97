package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bribecast/internal/app"
)

var (
	showPair  string
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored rounds for a pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showPair == "" {
			return fmt.Errorf("--pair must be provided (e.g. votium:cvx-crv)")
		}

		opts := app.ShowOptions{
			Pair:  showPair,
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showPair, "pair", "", "Platform/protocol pair (platform:protocol)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rounds to display")
}
