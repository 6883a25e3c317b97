package bribes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bribecast/internal/types"
)

// ValuedBribe is a raw bribe enriched with token metadata and a USD value.
// AmountDollars is zero, never absent, when the price could not be resolved.
type ValuedBribe struct {
	Pool          string          `json:"pool"`
	Token         string          `json:"token"`
	Choice        int             `json:"choice"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDollars decimal.Decimal `json:"amountDollars"`
}

// EpochID is the stable identity of a persisted epoch. Rounds are 1-based.
type EpochID struct {
	Platform types.Platform
	Protocol types.Protocol
	Round    int
}

func (id EpochID) String() string {
	return fmt.Sprintf("%s:%s:%d", id.Platform, id.Protocol, id.Round)
}

// PersistedEpoch is the normalized per-epoch ledger entry the pipeline
// produces. Bribed maps pool label to the weighted voting power it drew.
type PersistedEpoch struct {
	Platform string             `json:"platform"`
	Protocol string             `json:"protocol"`
	Round    int                `json:"round"`
	End      int64              `json:"end"`
	Proposal string             `json:"proposal"`
	Bribed   map[string]float64 `json:"bribed"`
	Bribes   []ValuedBribe      `json:"bribes"`
}

// Finished reports whether the epoch's voting period has ended by now
// (Unix seconds).
func (e PersistedEpoch) Finished(now int64) bool {
	return e.End <= now
}
