// Package snapshot fetches proposals, ballots, and voting-power scores from
// the snapshot hub and score APIs.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/types"
)

const votesPageSize = 1000

// HubOptions parameterise the hub client.
type HubOptions struct {
	HubURL    string
	ScoreURL  string
	Timeout   time.Duration
	UserAgent string
}

// Hub talks to the snapshot GraphQL hub and the score API.
type Hub struct {
	opts     HubOptions
	logger   zerolog.Logger
	client   *http.Client
	hubURL   string
	scoreURL string
}

// NewHub constructs a hub client.
func NewHub(opts HubOptions, logger zerolog.Logger) *Hub {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hubURL := strings.TrimRight(opts.HubURL, "/")
	if hubURL == "" {
		hubURL = "https://hub.snapshot.org/graphql"
	}
	scoreURL := strings.TrimRight(opts.ScoreURL, "/")
	if scoreURL == "" {
		scoreURL = "https://score.snapshot.org/api/scores"
	}

	return &Hub{
		opts:     opts,
		logger:   logger.With().Str("component", "snapshot").Logger(),
		client:   &http.Client{Timeout: timeout},
		hubURL:   hubURL,
		scoreURL: scoreURL,
	}
}

const proposalQuery = `query ($id: String!) {
  proposal(id: $id) {
    id
    ipfs
    title
    start
    end
    snapshot
    choices
  }
}`

// Proposal fetches full metadata for one proposal.
func (h *Hub) Proposal(ctx context.Context, id string) (Proposal, error) {
	var out struct {
		Proposal *proposalJSON `json:"proposal"`
	}
	if err := h.query(ctx, proposalQuery, map[string]any{"id": id}, &out); err != nil {
		return Proposal{}, fmt.Errorf("fetch proposal %s: %w", id, err)
	}
	if out.Proposal == nil {
		return Proposal{}, fmt.Errorf("proposal %s not found", id)
	}
	return out.Proposal.toProposal(), nil
}

const proposalsQuery = `query ($space: String!, $first: Int!, $skip: Int!) {
  proposals(
    where: { space: $space },
    orderBy: "created",
    orderDirection: asc,
    first: $first,
    skip: $skip
  ) {
    id
    ipfs
    title
    start
    end
    snapshot
  }
}`

// ProposalIDs lists the space's gauge-weight proposals, keyed by proposal id.
// Index reflects chronological order of the filtered set.
func (h *Hub) ProposalIDs(ctx context.Context, space Space) (map[string]ProposalRef, error) {
	var all []proposalJSON
	for skip := 0; ; skip += votesPageSize {
		var out struct {
			Proposals []proposalJSON `json:"proposals"`
		}
		vars := map[string]any{"space": space.ID, "first": votesPageSize, "skip": skip}
		if err := h.query(ctx, proposalsQuery, vars, &out); err != nil {
			return nil, fmt.Errorf("list proposals for %s: %w", space.ID, err)
		}
		all = append(all, out.Proposals...)
		if len(out.Proposals) < votesPageSize {
			break
		}
	}

	filtered := all[:0]
	for _, p := range all {
		if space.TitleFilter == "" || strings.Contains(p.Title, space.TitleFilter) {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Start < filtered[j].Start })

	refs := make(map[string]ProposalRef, len(filtered))
	for i, p := range filtered {
		refs[p.ID] = ProposalRef{Index: i, SnapshotID: p.IPFS, Start: p.Start, End: p.End}
	}
	return refs, nil
}

const votesQuery = `query ($proposal: String!, $first: Int!, $skip: Int!) {
  votes(
    where: { proposal: $proposal },
    orderBy: "created",
    orderDirection: asc,
    first: $first,
    skip: $skip
  ) {
    voter
    choice
  }
}`

// Votes fetches every ballot cast on a proposal, paging through the hub.
func (h *Hub) Votes(ctx context.Context, proposalID string) ([]Vote, error) {
	var votes []Vote
	for skip := 0; ; skip += votesPageSize {
		var out struct {
			Votes []struct {
				Voter  string             `json:"voter"`
				Choice map[string]float64 `json:"choice"`
			} `json:"votes"`
		}
		vars := map[string]any{"proposal": proposalID, "first": votesPageSize, "skip": skip}
		if err := h.query(ctx, votesQuery, vars, &out); err != nil {
			return nil, fmt.Errorf("fetch votes for %s: %w", proposalID, err)
		}
		for _, v := range out.Votes {
			votes = append(votes, Vote{Voter: v.Voter, Choices: v.Choice})
		}
		if len(out.Votes) < votesPageSize {
			break
		}
	}
	return votes, nil
}

// Scores fetches voting power for voters at the given block via the score API.
// Power is summed across the space's strategies.
func (h *Hub) Scores(ctx context.Context, space Space, voters []types.Address, block *big.Int) (map[types.Address]float64, error) {
	addrs := make([]string, len(voters))
	for i, v := range voters {
		addrs[i] = v.Hex()
	}

	body, err := json.Marshal(map[string]any{
		"params": map[string]any{
			"space":      space.ID,
			"network":    space.Network,
			"snapshot":   block.Uint64(),
			"strategies": space.Strategies,
			"addresses":  addrs,
		},
	})
	if err != nil {
		return nil, err
	}

	payload, err := h.post(ctx, h.scoreURL, body)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}

	var parsed struct {
		Result struct {
			Scores []map[string]float64 `json:"scores"`
		} `json:"result"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parse scores response: %w", err)
	}

	scores := make(map[types.Address]float64)
	for _, strategyScores := range parsed.Result.Scores {
		for raw, power := range strategyScores {
			addr, err := types.NewAddress(raw)
			if err != nil {
				continue
			}
			scores[addr] += power
		}
	}
	return scores, nil
}

type proposalJSON struct {
	ID       string   `json:"id"`
	IPFS     string   `json:"ipfs"`
	Title    string   `json:"title"`
	Start    int64    `json:"start"`
	End      int64    `json:"end"`
	Snapshot string   `json:"snapshot"`
	Choices  []string `json:"choices"`
}

func (p proposalJSON) toProposal() Proposal {
	return Proposal{
		ID:       p.ID,
		IPFS:     p.IPFS,
		Title:    p.Title,
		Start:    p.Start,
		End:      p.End,
		Snapshot: p.Snapshot,
		Choices:  p.Choices,
	}
}

func (h *Hub) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return err
	}

	payload, err := h.post(ctx, h.hubURL, body)
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("parse hub response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("hub error: %s", envelope.Errors[0].Message)
	}

	return json.Unmarshal(envelope.Data, out)
}

func (h *Hub) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(h.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}
