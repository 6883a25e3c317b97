package bribes

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"bribecast/internal/snapshot"
	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

func TestRunProducesValuedEpoch(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	epochs, err := p.Run(context.Background(), Options{
		Platform: types.PlatformVotium,
		Protocol: types.ProtocolConvexCrv,
	})
	if err != nil {
		t.Fatalf("run should succeed: %v", err)
	}
	if len(epochs) != 1 {
		t.Fatalf("expected 1 epoch, got %d", len(epochs))
	}

	epoch := epochs[0]
	if epoch.Round != 1 {
		t.Fatalf("round should be 1, got %d", epoch.Round)
	}
	if epoch.Proposal != "prop-1" {
		t.Fatalf("unexpected proposal id %s", epoch.Proposal)
	}
	if epoch.End != 1_600_604_800 {
		t.Fatalf("end should come from the proposal, got %d", epoch.End)
	}

	if len(epoch.Bribes) != 2 {
		t.Fatalf("expected 2 valued bribes, got %d", len(epoch.Bribes))
	}
	if epoch.Bribes[0].Pool != "PoolA" || epoch.Bribes[0].AmountDollars.InexactFloat64() != 2.0 {
		t.Fatalf("unexpected first bribe: %+v", epoch.Bribes[0])
	}
	if epoch.Bribes[1].Pool != "PoolB" || !epoch.Bribes[1].AmountDollars.IsZero() {
		t.Fatalf("unpriced bribe should be recorded at $0: %+v", epoch.Bribes[1])
	}

	// Voter A put their whole ballot on choice "1" (PoolA) with power 100.
	if got := epoch.Bribed["PoolA"]; math.Abs(got-100) > 1e-9 {
		t.Fatalf("PoolA should draw 100 power, got %f", got)
	}
	if _, ok := epoch.Bribed["PoolB"]; ok {
		t.Fatalf("PoolB drew no votes, got %v", epoch.Bribed)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	opts := Options{Platform: types.PlatformVotium, Protocol: types.ProtocolConvexCrv}

	first, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs must yield identical epochs:\n%+v\n%+v", first, second)
	}
}

func TestRunLastEpochOnly(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()

	// Three rounds sharing the same proposal fixture.
	src.refs = map[string]snapshot.ProposalRef{
		"prop-1": {Index: 0, SnapshotID: "snap-1"},
	}
	epoch := src.epochs[0]
	src.epochs = []subgraph.Epoch{epoch, epoch, epoch}

	p := newTestPipeline(src, proposals, tokens, priceSource)

	epochs, err := p.Run(context.Background(), Options{
		Platform:      types.PlatformVotium,
		Protocol:      types.ProtocolConvexCrv,
		LastEpochOnly: true,
	})
	if err != nil {
		t.Fatalf("run should succeed: %v", err)
	}
	if len(epochs) != 1 {
		t.Fatalf("last-epoch-only must process exactly one epoch, got %d", len(epochs))
	}
	if epochs[0].Round != 3 {
		t.Fatalf("round should be 3, got %d", epochs[0].Round)
	}
}

func TestRunAbortsEpochOnBadChoice(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	src.epochs[0].Bribes[1].Choice = 9

	p := newTestPipeline(src, proposals, tokens, priceSource)

	epochs, err := p.Run(context.Background(), Options{
		Platform: types.PlatformVotium,
		Protocol: types.ProtocolConvexCrv,
	})
	if err == nil {
		t.Fatal("bad choice index must abort the epoch")
	}
	if !strings.Contains(err.Error(), "choice index 9") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(epochs) != 0 {
		t.Fatalf("no partial epoch may be returned, got %d", len(epochs))
	}
}

func TestRunKeepsCompletedEpochsOnLaterFailure(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()

	good := src.epochs[0]
	bad := good
	bad.SnapshotID = "snap-unknown"
	src.epochs = []subgraph.Epoch{good, bad}

	p := newTestPipeline(src, proposals, tokens, priceSource)

	epochs, err := p.Run(context.Background(), Options{
		Platform: types.PlatformVotium,
		Protocol: types.ProtocolConvexCrv,
	})
	if err == nil {
		t.Fatal("missing proposal id must fail the run")
	}
	if !strings.Contains(err.Error(), "failed to find id for proposal snap-unknown") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(epochs) != 1 {
		t.Fatalf("the completed first epoch must still be returned, got %d", len(epochs))
	}
	if epochs[0].Round != 1 {
		t.Fatalf("unexpected round %d", epochs[0].Round)
	}
}

func TestRunFailsFastOnSourceErrors(t *testing.T) {
	srcErr := errors.New("subgraph down")
	src := &fakeSource{refsErr: srcErr}
	p := newTestPipeline(src, &fakeProposals{}, &fakeTokens{}, &fakePrices{})

	if _, err := p.Run(context.Background(), Options{}); !errors.Is(err, srcErr) {
		t.Fatalf("proposal id failure should propagate, got %v", err)
	}

	src = &fakeSource{refs: map[string]snapshot.ProposalRef{}, epochsErr: srcErr}
	p = newTestPipeline(src, &fakeProposals{}, &fakeTokens{}, &fakePrices{})

	if _, err := p.Run(context.Background(), Options{}); !errors.Is(err, srcErr) {
		t.Fatalf("epoch fetch failure should propagate, got %v", err)
	}
}

func TestRunFailsOnScoresError(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	src.scoresErr = errors.New("score api down")

	p := newTestPipeline(src, proposals, tokens, priceSource)

	if _, err := p.Run(context.Background(), Options{
		Platform: types.PlatformVotium,
		Protocol: types.ProtocolConvexCrv,
	}); err == nil {
		t.Fatal("scores failure must abort the epoch")
	}
}
