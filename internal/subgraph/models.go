package subgraph

// Bribe is a sponsor's raw payment for one proposal choice.
type Bribe struct {
	Token  string // token address as returned by the source
	Amount string // raw integer amount, base units
	Choice int    // 0-based index into the proposal's choices
}

// Epoch is one governance round as seen by the epoch source.
type Epoch struct {
	Start      int64
	End        int64
	SnapshotID string
	Bribes     []Bribe
}

// ProposalKey identifies one round for sources that key bribes by
// proposal rather than by epoch.
type ProposalKey struct {
	ProposalID string
	SnapshotID string
	Start      int64
	End        int64
}
