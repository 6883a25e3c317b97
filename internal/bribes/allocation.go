package bribes

import (
	"bribecast/internal/snapshot"
	"bribecast/internal/types"
)

// voteCorrection is a one-time data-quality fix: for a specific proposal,
// one ballot choice's weight is merged into another before allocation.
type voteCorrection struct {
	proposalID string
	fromChoice string
	toChoice   string
}

// Fix for the mim/mim-ust round 3 mixup: mim votes count for the mim-ust
// pool. Historical; do not add entries without an audited incident.
var voteCorrections = []voteCorrection{
	{
		proposalID: "QmaS9vd1vJKQNBYX4KWQ3nppsTT3QSL3nkz5ZYSwEJk6hZ",
		fromChoice: "41",
		toChoice:   "52",
	},
}

// correctChoices applies any corrections registered for the proposal,
// returning a fresh map so the caller's ballot is left untouched.
func correctChoices(proposalID string, choices map[string]float64) map[string]float64 {
	corrected := choices
	for _, c := range voteCorrections {
		if c.proposalID != proposalID {
			continue
		}
		weight, ok := corrected[c.fromChoice]
		if !ok {
			continue
		}
		clone := make(map[string]float64, len(corrected))
		for k, v := range corrected {
			clone[k] = v
		}
		clone[c.toChoice] += weight
		clone[c.fromChoice] = 0
		corrected = clone
	}
	return corrected
}

// allocateVotes turns ballots and voting-power scores into per-pool weighted
// totals. bribedChoices maps the 1-based ballot choice key to the pool that
// received a bribe; only those choices accumulate.
func allocateVotes(proposalID string, votes []snapshot.Vote, scores map[types.Address]float64, bribedChoices map[string]string) map[string]float64 {
	pools := make(map[string]float64)

	for _, vote := range votes {
		var voteTotal float64
		for _, weight := range vote.Choices {
			voteTotal += weight
		}
		// Voting on 'nothing' is possible through snapshot.
		if voteTotal == 0 {
			continue
		}

		voter, err := types.NewAddress(vote.Voter)
		if err != nil {
			continue
		}
		power, ok := scores[voter]
		if !ok {
			// Scores may cover a smaller voter set than the ballots.
			continue
		}

		choices := correctChoices(proposalID, vote.Choices)
		for choiceKey, weight := range choices {
			pool, bribed := bribedChoices[choiceKey]
			if !bribed {
				continue
			}
			scoreNormalized := weight / voteTotal
			pools[pool] += power * scoreNormalized
		}
	}

	return pools
}
