package snapshot

// Proposal is off-chain ballot metadata for one governance round.
type Proposal struct {
	ID       string
	IPFS     string
	Title    string
	Start    int64
	End      int64
	Snapshot string // block number at which voting power is measured
	Choices  []string
}

// Vote is one voter's weighted distribution across proposal choices.
// Choice keys are 1-based strings as served by the hub.
type Vote struct {
	Voter   string
	Choices map[string]float64
}

// ProposalRef links a hub proposal to the external id the epoch source
// keys its rounds on, plus its chronological position.
type ProposalRef struct {
	Index      int
	SnapshotID string
	Start      int64
	End        int64
}
