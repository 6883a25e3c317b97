package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestVotiumEpochs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"epoches": []map[string]any{
					{
						"initiatedAt": "1600000000",
						"deadline":    "1600604800",
						"snapshot":    "snap-1",
						"bribes": []map[string]any{
							{"token": "0x1111111111111111111111111111111111111111", "amount": "1000", "choiceIndex": "3"},
						},
					},
					{
						// Uninitiated rounds are skipped.
						"initiatedAt": "0",
						"deadline":    "0",
						"snapshot":    "",
						"bribes":      []map[string]any{},
					},
				},
			},
		})
	}))
	defer srv.Close()

	v := NewVotium(VotiumOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	epochs, err := v.Epochs(context.Background())
	if err != nil {
		t.Fatalf("epoch fetch should succeed: %v", err)
	}
	if len(epochs) != 1 {
		t.Fatalf("expected one initiated epoch, got %d", len(epochs))
	}

	epoch := epochs[0]
	if epoch.SnapshotID != "snap-1" || epoch.End != 1_600_604_800 {
		t.Fatalf("unexpected epoch: %+v", epoch)
	}
	if len(epoch.Bribes) != 1 || epoch.Bribes[0].Choice != 3 || epoch.Bribes[0].Amount != "1000" {
		t.Fatalf("unexpected bribes: %+v", epoch.Bribes)
	}
}

func TestVotiumEpochsMissingURL(t *testing.T) {
	v := NewVotium(VotiumOptions{}, noopLogger())
	if _, err := v.Epochs(context.Background()); err == nil {
		t.Fatal("missing subgraph url should be an error")
	}
}

func TestHiddenHandEpochsKeepProposalOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"proposals": []map[string]any{
					{
						"proposal": "p-2",
						"bribes": []map[string]any{
							{"token": "0x2222222222222222222222222222222222222222", "amount": "500", "proposalIndex": "1"},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	h := NewHiddenHand(HiddenHandOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	keys := []ProposalKey{
		{ProposalID: "p-1", SnapshotID: "snap-1", Start: 100, End: 200},
		{ProposalID: "p-2", SnapshotID: "snap-2", Start: 300, End: 400},
	}

	epochs, err := h.Epochs(context.Background(), keys)
	if err != nil {
		t.Fatalf("epoch fetch should succeed: %v", err)
	}
	if len(epochs) != 2 {
		t.Fatalf("every proposal yields an epoch, got %d", len(epochs))
	}
	if len(epochs[0].Bribes) != 0 {
		t.Fatalf("proposal without bribes should yield an empty epoch: %+v", epochs[0])
	}
	if epochs[1].SnapshotID != "snap-2" || len(epochs[1].Bribes) != 1 {
		t.Fatalf("unexpected second epoch: %+v", epochs[1])
	}
}
