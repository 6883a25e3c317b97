package subgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HiddenHandOptions parameterise the HiddenHand subgraph client.
type HiddenHandOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// HiddenHand fetches bribes from the HiddenHand subgraph. The subgraph keys
// bribes by proposal, so rounds are reconstructed from the ordered proposal
// list supplied by the caller.
type HiddenHand struct {
	graph  graphClient
	logger zerolog.Logger
}

// NewHiddenHand constructs a HiddenHand client.
func NewHiddenHand(opts HiddenHandOptions, logger zerolog.Logger) *HiddenHand {
	return &HiddenHand{
		graph:  newGraphClient(opts.URL, opts.UserAgent, opts.Timeout),
		logger: logger.With().Str("component", "subgraph_hiddenhand").Logger(),
	}
}

const hiddenHandBribesQuery = `query ($proposals: [String!]!) {
  proposals(where: { proposal_in: $proposals }, first: 1000) {
    proposal
    bribes(first: 1000) {
      token
      amount
      proposalIndex
    }
  }
}`

// Epochs reconstructs one epoch per proposal, in the order given. Proposals
// with no recorded bribes still yield an (empty) epoch.
func (h *HiddenHand) Epochs(ctx context.Context, proposals []ProposalKey) ([]Epoch, error) {
	ids := make([]string, len(proposals))
	for i, p := range proposals {
		ids[i] = p.ProposalID
	}

	var out struct {
		Proposals []struct {
			Proposal string `json:"proposal"`
			Bribes   []struct {
				Token         string `json:"token"`
				Amount        string `json:"amount"`
				ProposalIndex int    `json:"proposalIndex,string"`
			} `json:"bribes"`
		} `json:"proposals"`
	}
	if err := h.graph.query(ctx, hiddenHandBribesQuery, map[string]any{"proposals": ids}, &out); err != nil {
		return nil, fmt.Errorf("fetch hiddenhand bribes: %w", err)
	}

	bribesByProposal := make(map[string][]Bribe, len(out.Proposals))
	for _, p := range out.Proposals {
		bribes := make([]Bribe, 0, len(p.Bribes))
		for _, b := range p.Bribes {
			bribes = append(bribes, Bribe{
				Token:  b.Token,
				Amount: b.Amount,
				Choice: b.ProposalIndex,
			})
		}
		bribesByProposal[p.Proposal] = bribes
	}

	epochs := make([]Epoch, 0, len(proposals))
	for _, p := range proposals {
		epochs = append(epochs, Epoch{
			Start:      p.Start,
			End:        p.End,
			SnapshotID: p.SnapshotID,
			Bribes:     bribesByProposal[p.ProposalID],
		})
	}
	return epochs, nil
}
