package app

import (
	"context"
	"errors"

	"bribecast/internal/bribes"
	"bribecast/internal/config"
	"bribecast/internal/service"
)

// Sync runs the pipeline for one pair across all epochs (or only the most
// recent one) and persists the result.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	pair, err := config.ParsePair(opts.Pair)
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.Logger.Warn().Msg("sync dry-run: results will not be written to the database")
		epochs, runErr := a.newPipeline().Run(ctx, bribes.Options{
			Platform:      pair.Platform,
			Protocol:      pair.Protocol,
			LastEpochOnly: opts.LastEpochOnly,
		})
		a.Logger.Info().Int("epochs", len(epochs)).Msg("dry-run complete")
		return runErr
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; cannot sync")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runner, err := service.New(a.Config, nil, a.newPipeline(), store, a.Logger)
	if err != nil {
		return err
	}

	return runner.Update(ctx, pair, opts.LastEpochOnly)
}
