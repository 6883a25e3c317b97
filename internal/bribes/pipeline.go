// Package bribes implements the bribe epoch aggregation pipeline: it fuses
// proposal metadata, raw bribe records, ballots, and voting-power scores
// into normalized per-epoch ledger entries.
package bribes

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/erc20"
	"bribecast/internal/prices"
	"bribecast/internal/snapshot"
	"bribecast/internal/types"
)

// ProposalSource serves proposal metadata and ballots.
type ProposalSource interface {
	Proposal(ctx context.Context, id string) (snapshot.Proposal, error)
	Votes(ctx context.Context, proposalID string) ([]snapshot.Vote, error)
}

// Resolver resolves a platform/protocol pair to a Source. Always total.
type Resolver interface {
	Resolve(platform types.Platform, protocol types.Protocol) Source
}

// Options select what one pipeline run covers.
type Options struct {
	Platform      types.Platform
	Protocol      types.Protocol
	LastEpochOnly bool
}

// Pipeline drives epoch processing for a platform/protocol pair.
type Pipeline struct {
	registry  Resolver
	proposals ProposalSource
	tokens    erc20.Source
	prices    prices.Source
	network   types.Network
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs a pipeline over the given collaborators.
func New(registry Resolver, proposals ProposalSource, tokens erc20.Source, priceSource prices.Source, network types.Network, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry:  registry,
		proposals: proposals,
		tokens:    tokens,
		prices:    priceSource,
		network:   network,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
	}
}

// Run processes either every epoch or only the most recent one, strictly in
// ascending round order and strictly sequentially. On failure the epochs
// already completed in this run are returned alongside the error so partial
// progress is not lost.
func (p *Pipeline) Run(ctx context.Context, opts Options) ([]PersistedEpoch, error) {
	src := p.registry.Resolve(opts.Platform, opts.Protocol)

	proposalIDs, err := src.ProposalIDs(ctx)
	if err != nil {
		return nil, err
	}

	epochs, err := src.Epochs(ctx)
	if err != nil {
		return nil, err
	}

	first := 0
	if opts.LastEpochOnly && len(epochs) > 0 {
		first = len(epochs) - 1
	}

	out := make([]PersistedEpoch, 0, len(epochs)-first)
	for i := first; i < len(epochs); i++ {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		processed, err := p.processEpoch(ctx, src, processOptions{
			Platform:    opts.Platform,
			Protocol:    opts.Protocol,
			ProposalIDs: proposalIDs,
			Epoch:       epochs[i],
			Index:       i,
		})
		if err != nil {
			id := EpochID{Platform: opts.Platform, Protocol: opts.Protocol, Round: i + 1}
			return out, fmt.Errorf("process epoch %s: %w", id, err)
		}
		out = append(out, processed)
	}

	return out, nil
}
