package bribes

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"bribecast/internal/snapshot"
	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

type processOptions struct {
	Platform    types.Platform
	Protocol    types.Protocol
	ProposalIDs map[string]snapshot.ProposalRef
	Epoch       subgraph.Epoch
	Index       int
}

// processEpoch fuses proposal metadata, raw bribes, ballots, and scores into
// one persisted epoch. Stages run strictly in order; any failure outside
// price resolution aborts the epoch.
func (p *Pipeline) processEpoch(ctx context.Context, src Source, opts processOptions) (PersistedEpoch, error) {
	epochID := EpochID{Platform: opts.Platform, Protocol: opts.Protocol, Round: opts.Index + 1}
	p.logger.Info().Stringer("epoch", epochID).Msg("updating bribes")

	proposalID := ""
	for id, ref := range opts.ProposalIDs {
		if ref.SnapshotID == opts.Epoch.SnapshotID {
			proposalID = id
			break
		}
	}
	if proposalID == "" {
		return PersistedEpoch{}, fmt.Errorf("failed to find id for proposal %s", opts.Epoch.SnapshotID)
	}

	proposal, err := p.proposals.Proposal(ctx, proposalID)
	if err != nil {
		return PersistedEpoch{}, err
	}

	getPrice := p.priceAt(proposal)

	// Sequential on purpose: bounds external call concurrency and keeps
	// degradation logs in bribe order.
	valued := make([]ValuedBribe, 0, len(opts.Epoch.Bribes))
	for _, bribe := range opts.Epoch.Bribes {
		vb, err := p.valueBribe(ctx, proposal, getPrice, bribe)
		if err != nil {
			return PersistedEpoch{}, err
		}
		valued = append(valued, vb)
	}

	// Ballot choice keys are 1-based, bribe choice indices 0-based.
	bribedChoices := make(map[string]string, len(valued))
	for _, vb := range valued {
		bribedChoices[strconv.Itoa(vb.Choice+1)] = vb.Pool
	}

	votes, err := p.proposals.Votes(ctx, proposal.ID)
	if err != nil {
		return PersistedEpoch{}, err
	}

	block, ok := new(big.Int).SetString(proposal.Snapshot, 10)
	if !ok {
		return PersistedEpoch{}, fmt.Errorf("parse snapshot block %q for proposal %s", proposal.Snapshot, proposal.ID)
	}

	voters := distinctVoters(votes)
	scores, err := src.Scores(ctx, voters, block)
	if err != nil {
		return PersistedEpoch{}, err
	}

	bribed := allocateVotes(proposalID, votes, scores, bribedChoices)

	return PersistedEpoch{
		Platform: opts.Platform.String(),
		Protocol: opts.Protocol.String(),
		Round:    opts.Index + 1,
		End:      proposal.End,
		Proposal: proposal.ID,
		Bribed:   bribed,
		Bribes:   valued,
	}, nil
}

// priceAt binds the price lookup to the proposal's end, clamped to now so an
// ongoing proposal uses the current price rather than a future one.
func (p *Pipeline) priceAt(proposal snapshot.Proposal) PriceFunc {
	at := time.Unix(proposal.End, 0)
	if at.After(p.now()) {
		// Zero time asks the price source for the current price.
		at = time.Time{}
	}
	return func(ctx context.Context, token types.Address, _ string) (float64, error) {
		return p.prices.Price(ctx, token, p.network, at)
	}
}

func distinctVoters(votes []snapshot.Vote) []types.Address {
	seen := make(map[types.Address]struct{}, len(votes))
	voters := make([]types.Address, 0, len(votes))
	for _, vote := range votes {
		addr, err := types.NewAddress(vote.Voter)
		if err != nil {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		voters = append(voters, addr)
	}
	return voters
}
