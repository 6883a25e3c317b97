package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bribecast/internal/app"
)

var (
	syncPair     string
	syncLastOnly bool
	syncDryRun   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Backfill the ledger for one platform/protocol pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPair == "" {
			return fmt.Errorf("--pair must be provided (e.g. votium:cvx-crv)")
		}

		opts := app.SyncOptions{
			Pair:          syncPair,
			LastEpochOnly: syncLastOnly,
			DryRun:        syncDryRun,
		}

		return getApp().Sync(cmd.Context(), opts)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncPair, "pair", "", "Platform/protocol pair (platform:protocol)")
	syncCmd.Flags().BoolVar(&syncLastOnly, "last-epoch-only", false, "Process only the most recent epoch")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Run without writing to storage")
}
