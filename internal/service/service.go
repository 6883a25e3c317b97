package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/bribes"
	"bribecast/internal/config"
	"bribecast/internal/scheduler"
	"bribecast/internal/storage"
)

// Runner orchestrates scheduled pipeline runs and persistence.
type Runner struct {
	scheduler *scheduler.Scheduler
	pipeline  *bribes.Pipeline
	store     storage.EpochStore
	locker    storage.AdvisoryLocker
	pairs     []config.Pair
	lockKey   int64
	logger    zerolog.Logger
}

// New constructs the scheduled runner.
func New(cfg *config.Config, sched *scheduler.Scheduler, pipeline *bribes.Pipeline, store storage.EpochStore, logger zerolog.Logger) (*Runner, error) {
	pairs, err := cfg.ParsePairs()
	if err != nil {
		return nil, err
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Runner{
		scheduler: sched,
		pipeline:  pipeline,
		store:     store,
		locker:    locker,
		pairs:     pairs,
		lockKey:   cfg.Scheduler.AdvisoryLockKey,
		logger:    logger.With().Str("component", "service").Logger(),
	}, nil
}

// Run begins the periodic update loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return r.scheduler.Run(ctx, r.Tick)
}

// Tick updates the most recent epoch of every configured pair. Scheduled
// ticks refresh only the latest round; full backfills go through Sync.
func (r *Runner) Tick(ctx context.Context, tick time.Time) error {
	unlock, proceed, err := r.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		r.logger.Debug().Time("tick", tick).Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	var firstErr error
	for _, pair := range r.pairs {
		if err := r.Update(ctx, pair, true); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			r.logger.Error().Err(err).
				Stringer("platform", pair.Platform).
				Stringer("protocol", pair.Protocol).
				Msg("pair update failed")
		}
	}
	return firstErr
}

// Update runs the pipeline for one pair and persists every epoch it
// produced. Epochs completed before a failure are still persisted.
func (r *Runner) Update(ctx context.Context, pair config.Pair, lastEpochOnly bool) error {
	epochs, runErr := r.pipeline.Run(ctx, bribes.Options{
		Platform:      pair.Platform,
		Protocol:      pair.Protocol,
		LastEpochOnly: lastEpochOnly,
	})

	var persistErr error
	if r.store != nil {
		for _, epoch := range epochs {
			if err := r.store.UpsertEpoch(ctx, epoch); err != nil {
				persistErr = errors.Join(persistErr, err)
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	if persistErr != nil {
		return persistErr
	}

	r.logger.Info().
		Stringer("platform", pair.Platform).
		Stringer("protocol", pair.Protocol).
		Int("epochs", len(epochs)).
		Msg("ledger updated")
	return nil
}

func (r *Runner) acquireLock(ctx context.Context) (func(), bool, error) {
	if r.lockKey == 0 || r.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := r.locker.TryAdvisoryLock(ctx, r.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
