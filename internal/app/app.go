package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/bribes"
	"bribecast/internal/config"
	"bribecast/internal/erc20"
	"bribecast/internal/prices"
	"bribecast/internal/scheduler"
	"bribecast/internal/service"
	"bribecast/internal/snapshot"
	"bribecast/internal/storage"
	"bribecast/internal/subgraph"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newPipeline() *bribes.Pipeline {
	hub := snapshot.NewHub(snapshot.HubOptions{
		HubURL:    a.Config.Snapshot.HubURL,
		ScoreURL:  a.Config.Snapshot.ScoreURL,
		Timeout:   a.Config.Snapshot.RequestTimeout,
		UserAgent: a.Config.Snapshot.UserAgent,
	}, a.Logger)

	votium := subgraph.NewVotium(subgraph.VotiumOptions{
		URL:       a.Config.Subgraph.VotiumURL,
		Timeout:   a.Config.Subgraph.RequestTimeout,
		UserAgent: a.Config.Subgraph.UserAgent,
	}, a.Logger)

	hiddenHand := subgraph.NewHiddenHand(subgraph.HiddenHandOptions{
		URL:       a.Config.Subgraph.HiddenHandURL,
		Timeout:   a.Config.Subgraph.RequestTimeout,
		UserAgent: a.Config.Subgraph.UserAgent,
	}, a.Logger)

	tokens := erc20.NewClient(erc20.ClientOptions{
		RPCURL:  a.Config.Ethereum.RPCURL,
		Timeout: a.Config.Ethereum.RequestTimeout,
	}, a.Logger)

	priceSource := prices.NewClient(prices.ClientOptions{
		BaseURL:   a.Config.Prices.BaseURL,
		Timeout:   a.Config.Prices.RequestTimeout,
		UserAgent: a.Config.Prices.UserAgent,
	}, a.Logger)

	registry := bribes.NewRegistry(hub, votium, hiddenHand)

	return bribes.New(registry, hub, tokens, priceSource, a.Config.Network(), a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running scheduled updater.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	var epochStore storage.EpochStore
	if store != nil {
		epochStore = store
	}

	runner, err := service.New(a.Config, sched, a.newPipeline(), epochStore, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Msg("starting bribe ledger updater")
	err = runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("updater terminated with error")
		return err
	}

	a.Logger.Info().Msg("updater stopped")
	return nil
}

// SyncOptions configure a full backfill run.
type SyncOptions struct {
	Pair          string
	LastEpochOnly bool
	DryRun        bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Pair  string
	Limit int
}

// ExportOptions hold parameters for exporting the stored ledger.
type ExportOptions struct {
	Pair      string
	PNGPath   string
	CSVPath   string
	MaxRounds int
}

func nowUnix() int64 {
	return time.Now().UTC().Unix()
}
