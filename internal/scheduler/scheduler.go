// Package scheduler drives periodic ledger updates on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc is invoked on every interval tick.
type JobFunc func(ctx context.Context, tick time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler repeatedly runs a job, aligning ticks to the interval so
// concurrent deployments fire at the same instants.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the job at each aligned interval until ctx is
// cancelled. Job errors are logged, not fatal.
func (s *Scheduler) Run(ctx context.Context, job JobFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	next := nextAligned(time.Now().UTC(), s.opts.Interval)
	for {
		if delay := time.Until(next); delay < 0 {
			next = nextAligned(time.Now().UTC(), s.opts.Interval)
		}

		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")
		if err := sleep(ctx, time.Until(next)); err != nil {
			return err
		}

		s.logger.Info().Time("tick", next).Msg("executing scheduled update")
		if err := job(ctx, next); err != nil {
			s.logger.Error().Err(err).Time("tick", next).Msg("scheduled update failed")
		}

		next = next.Add(s.opts.Interval)
	}
}

func nextAligned(now time.Time, interval time.Duration) time.Time {
	aligned := now.Truncate(interval)
	if !aligned.After(now) {
		aligned = aligned.Add(interval)
	}
	return aligned
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
