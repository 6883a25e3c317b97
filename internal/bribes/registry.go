package bribes

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"bribecast/internal/snapshot"
	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

// Source is the capability set a platform/protocol pair binds: proposal
// discovery, raw epoch fetching, and voting-power lookup.
type Source interface {
	ProposalIDs(ctx context.Context) (map[string]snapshot.ProposalRef, error)
	Epochs(ctx context.Context) ([]subgraph.Epoch, error)
	Scores(ctx context.Context, voters []types.Address, block *big.Int) (map[types.Address]float64, error)
}

// Registry resolves a platform/protocol pair to its Source. Resolve is
// total: unsupported pairs yield a source whose operations all fail with a
// configuration error, so callers have a single failure path.
type Registry struct {
	hub        *snapshot.Hub
	votium     *subgraph.Votium
	hiddenHand *subgraph.HiddenHand
}

// NewRegistry wires the collaborators every source variant draws from.
func NewRegistry(hub *snapshot.Hub, votium *subgraph.Votium, hiddenHand *subgraph.HiddenHand) *Registry {
	return &Registry{hub: hub, votium: votium, hiddenHand: hiddenHand}
}

// Resolve returns the Source for the pair. Never fails; see Registry.
func (r *Registry) Resolve(platform types.Platform, protocol types.Protocol) Source {
	switch {
	case platform == types.PlatformVotium && protocol == types.ProtocolConvexCrv:
		return &votiumSource{hub: r.hub, votium: r.votium, space: snapshot.ConvexSpace()}
	case platform == types.PlatformHiddenHand && protocol == types.ProtocolAuraBal:
		return &hiddenHandSource{hub: r.hub, hiddenHand: r.hiddenHand, space: snapshot.AuraSpace()}
	}
	return unsupportedSource{platform: platform, protocol: protocol}
}

type votiumSource struct {
	hub    *snapshot.Hub
	votium *subgraph.Votium
	space  snapshot.Space
}

func (s *votiumSource) ProposalIDs(ctx context.Context) (map[string]snapshot.ProposalRef, error) {
	return s.hub.ProposalIDs(ctx, s.space)
}

func (s *votiumSource) Epochs(ctx context.Context) ([]subgraph.Epoch, error) {
	return s.votium.Epochs(ctx)
}

func (s *votiumSource) Scores(ctx context.Context, voters []types.Address, block *big.Int) (map[types.Address]float64, error) {
	return s.hub.Scores(ctx, s.space, voters, block)
}

type hiddenHandSource struct {
	hub        *snapshot.Hub
	hiddenHand *subgraph.HiddenHand
	space      snapshot.Space
}

func (s *hiddenHandSource) ProposalIDs(ctx context.Context) (map[string]snapshot.ProposalRef, error) {
	return s.hub.ProposalIDs(ctx, s.space)
}

// Epochs derives the round sequence from the space's ordered proposals, as
// HiddenHand keys its bribes by proposal rather than by round.
func (s *hiddenHandSource) Epochs(ctx context.Context) ([]subgraph.Epoch, error) {
	refs, err := s.ProposalIDs(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]subgraph.ProposalKey, 0, len(refs))
	for id, ref := range refs {
		keys = append(keys, subgraph.ProposalKey{
			ProposalID: id,
			SnapshotID: ref.SnapshotID,
			Start:      ref.Start,
			End:        ref.End,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return refs[keys[i].ProposalID].Index < refs[keys[j].ProposalID].Index })

	return s.hiddenHand.Epochs(ctx, keys)
}

func (s *hiddenHandSource) Scores(ctx context.Context, voters []types.Address, block *big.Int) (map[types.Address]float64, error) {
	return s.hub.Scores(ctx, s.space, voters, block)
}

type unsupportedSource struct {
	platform types.Platform
	protocol types.Protocol
}

func (s unsupportedSource) err() error {
	return fmt.Errorf("the combination of %s-%s is not valid", s.platform, s.protocol)
}

func (s unsupportedSource) ProposalIDs(context.Context) (map[string]snapshot.ProposalRef, error) {
	return nil, s.err()
}

func (s unsupportedSource) Epochs(context.Context) ([]subgraph.Epoch, error) {
	return nil, s.err()
}

func (s unsupportedSource) Scores(context.Context, []types.Address, *big.Int) (map[types.Address]float64, error) {
	return nil, s.err()
}
