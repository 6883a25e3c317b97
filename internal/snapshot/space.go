package snapshot

import "bribecast/internal/addresses"

// Strategy is one voting-power strategy as understood by the score API.
type Strategy struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// Space describes one snapshot space and how to find its gauge-weight
// proposals and compute voting power within it.
type Space struct {
	ID          string
	Network     string
	TitleFilter string
	Strategies  []Strategy
}

// ConvexSpace configures the cvx.eth gauge-weight space.
func ConvexSpace() Space {
	return Space{
		ID:          "cvx.eth",
		Network:     "1",
		TitleFilter: "Gauge Weight for",
		Strategies: []Strategy{
			{
				Name: "erc20-balance-of",
				Params: map[string]any{
					"address":  addresses.CvxLockedV2.Hex(),
					"symbol":   "CVX",
					"decimals": 18,
				},
			},
		},
	}
}

// AuraSpace configures the aurafinance.eth gauge-weight space.
func AuraSpace() Space {
	return Space{
		ID:          "aurafinance.eth",
		Network:     "1",
		TitleFilter: "Gauge Weight for",
		Strategies: []Strategy{
			{
				Name: "erc20-balance-of",
				Params: map[string]any{
					"address":  addresses.AuraLocked.Hex(),
					"symbol":   "vlAURA",
					"decimals": 18,
				},
			},
		},
	}
}
