package bribes

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/snapshot"
	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

type fakeSource struct {
	refs      map[string]snapshot.ProposalRef
	epochs    []subgraph.Epoch
	scores    map[types.Address]float64
	refsErr   error
	epochsErr error
	scoresErr error
}

func (f *fakeSource) ProposalIDs(context.Context) (map[string]snapshot.ProposalRef, error) {
	return f.refs, f.refsErr
}

func (f *fakeSource) Epochs(context.Context) ([]subgraph.Epoch, error) {
	return f.epochs, f.epochsErr
}

func (f *fakeSource) Scores(context.Context, []types.Address, *big.Int) (map[types.Address]float64, error) {
	return f.scores, f.scoresErr
}

type fakeResolver struct {
	src Source
}

func (f fakeResolver) Resolve(types.Platform, types.Protocol) Source {
	return f.src
}

type fakeProposals struct {
	proposals map[string]snapshot.Proposal
	votes     map[string][]snapshot.Vote
}

func (f *fakeProposals) Proposal(_ context.Context, id string) (snapshot.Proposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return snapshot.Proposal{}, fmt.Errorf("proposal %s not found", id)
	}
	return p, nil
}

func (f *fakeProposals) Votes(_ context.Context, proposalID string) ([]snapshot.Vote, error) {
	return f.votes[proposalID], nil
}

type fakeTokens struct {
	symbols  map[string]string
	decimals map[string]uint8
}

func (f *fakeTokens) Symbol(_ context.Context, token types.Address) (string, error) {
	s, ok := f.symbols[token.Hex()]
	if !ok {
		return "", errors.New("no symbol")
	}
	return s, nil
}

func (f *fakeTokens) Decimals(_ context.Context, token types.Address) (uint8, error) {
	d, ok := f.decimals[token.Hex()]
	if !ok {
		return 0, errors.New("no decimals")
	}
	return d, nil
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) Price(_ context.Context, token types.Address, network types.Network, _ time.Time) (float64, error) {
	p, ok := f.prices[token.Hex()]
	if !ok {
		return 0, fmt.Errorf("no price found for %s:%s", network, token.Hex())
	}
	return p, nil
}

func newTestPipeline(src Source, proposals *fakeProposals, tokens *fakeTokens, priceSource *fakePrices) *Pipeline {
	p := New(fakeResolver{src: src}, proposals, tokens, priceSource, types.NetworkEthereum, zerolog.Nop())
	p.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return p
}

const (
	tokenX = "0x1111111111111111111111111111111111111111"
	tokenY = "0x2222222222222222222222222222222222222222"

	voterA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	voterB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func mustAddr(raw string) types.Address {
	addr, err := types.NewAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// twoPoolFixture is a proposal with choices PoolA/PoolB, one bribe on each,
// token X priced at $2 and token Y unpriced.
func twoPoolFixture() (*fakeSource, *fakeProposals, *fakeTokens, *fakePrices) {
	src := &fakeSource{
		refs: map[string]snapshot.ProposalRef{
			"prop-1": {Index: 0, SnapshotID: "snap-1"},
		},
		epochs: []subgraph.Epoch{
			{
				Start:      1_600_000_000,
				End:        1_600_604_800,
				SnapshotID: "snap-1",
				Bribes: []subgraph.Bribe{
					{Token: tokenX, Amount: "1000000000000000000", Choice: 0},
					{Token: tokenY, Amount: "500000000000000000", Choice: 1},
				},
			},
		},
		scores: map[types.Address]float64{
			mustAddr(voterA): 100,
		},
	}

	proposals := &fakeProposals{
		proposals: map[string]snapshot.Proposal{
			"prop-1": {
				ID:       "prop-1",
				End:      1_600_604_800,
				Snapshot: "14000000",
				Choices:  []string{"PoolA", "PoolB"},
			},
		},
		votes: map[string][]snapshot.Vote{
			"prop-1": {
				{Voter: voterA, Choices: map[string]float64{"1": 10}},
			},
		},
	}

	tokens := &fakeTokens{
		symbols:  map[string]string{tokenX: "TOKX", tokenY: "TOKY"},
		decimals: map[string]uint8{tokenX: 18, tokenY: 18},
	}

	priceSource := &fakePrices{prices: map[string]float64{tokenX: 2.0}}

	return src, proposals, tokens, priceSource
}
