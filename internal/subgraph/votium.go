package subgraph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// VotiumOptions parameterise the Votium subgraph client.
type VotiumOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Votium fetches bribe epochs from the Votium subgraph.
type Votium struct {
	graph  graphClient
	logger zerolog.Logger
}

// NewVotium constructs a Votium client.
func NewVotium(opts VotiumOptions, logger zerolog.Logger) *Votium {
	return &Votium{
		graph:  newGraphClient(opts.URL, opts.UserAgent, opts.Timeout),
		logger: logger.With().Str("component", "subgraph_votium").Logger(),
	}
}

const votiumEpochsQuery = `query {
  epoches(orderBy: initiatedAt, orderDirection: asc, first: 1000) {
    initiatedAt
    deadline
    snapshot
    bribes(first: 1000) {
      token
      amount
      choiceIndex
    }
  }
}`

// Epochs returns all initiated Votium rounds in chronological order.
func (v *Votium) Epochs(ctx context.Context) ([]Epoch, error) {
	var out struct {
		Epoches []struct {
			InitiatedAt int64  `json:"initiatedAt,string"`
			Deadline    int64  `json:"deadline,string"`
			Snapshot    string `json:"snapshot"`
			Bribes      []struct {
				Token       string `json:"token"`
				Amount      string `json:"amount"`
				ChoiceIndex int    `json:"choiceIndex,string"`
			} `json:"bribes"`
		} `json:"epoches"`
	}
	if err := v.graph.query(ctx, votiumEpochsQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch votium epochs: %w", err)
	}

	epochs := make([]Epoch, 0, len(out.Epoches))
	for _, e := range out.Epoches {
		if e.InitiatedAt == 0 {
			continue
		}
		epoch := Epoch{
			Start:      e.InitiatedAt,
			End:        e.Deadline,
			SnapshotID: e.Snapshot,
			Bribes:     make([]Bribe, 0, len(e.Bribes)),
		}
		for _, b := range e.Bribes {
			epoch.Bribes = append(epoch.Bribes, Bribe{
				Token:  b.Token,
				Amount: b.Amount,
				Choice: b.ChoiceIndex,
			})
		}
		epochs = append(epochs, epoch)
	}
	sort.SliceStable(epochs, func(i, j int) bool { return epochs[i].Start < epochs[j].Start })

	return epochs, nil
}
