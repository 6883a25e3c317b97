package bribes

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"bribecast/internal/snapshot"
	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

// PriceFunc resolves a USD price for a token, already bound to a lookup
// time by the caller.
type PriceFunc func(ctx context.Context, token types.Address, symbol string) (float64, error)

// valueBribe enriches one raw bribe with token metadata and a USD value.
// Every failure is fatal for the bribe except price resolution, which
// degrades to zero via priceOrZero.
func (p *Pipeline) valueBribe(ctx context.Context, proposal snapshot.Proposal, getPrice PriceFunc, bribe subgraph.Bribe) (ValuedBribe, error) {
	token, err := types.NewAddress(bribe.Token)
	if err != nil {
		return ValuedBribe{}, fmt.Errorf("bribe token: %w", err)
	}

	// Symbol and decimals are independent reads of the same contract, so
	// fetch them concurrently.
	type symbolResult struct {
		symbol string
		err    error
	}
	symbolCh := make(chan symbolResult, 1)
	go func() {
		s, err := p.tokens.Symbol(ctx, token)
		symbolCh <- symbolResult{symbol: s, err: err}
	}()

	decimals, decimalsErr := p.tokens.Decimals(ctx, token)
	symbol := <-symbolCh

	if symbol.err != nil {
		return ValuedBribe{}, fmt.Errorf("fetch symbol for %s: %w", token, symbol.err)
	}
	if decimalsErr != nil {
		return ValuedBribe{}, fmt.Errorf("fetch decimals for %s: %w", token, decimalsErr)
	}

	if bribe.Choice < 0 || bribe.Choice >= len(proposal.Choices) {
		return ValuedBribe{}, fmt.Errorf("choice index %d was not found in the list of choices for proposal %s", bribe.Choice, proposal.ID)
	}
	pool := proposal.Choices[bribe.Choice]

	raw, ok := new(big.Int).SetString(bribe.Amount, 10)
	if !ok {
		return ValuedBribe{}, fmt.Errorf("parse bribe amount %q", bribe.Amount)
	}
	amount := decimal.NewFromBigInt(raw, -int32(decimals))

	price := p.priceOrZero(ctx, getPrice, token, symbol.symbol)

	return ValuedBribe{
		Pool:          pool,
		Token:         symbol.symbol,
		Choice:        bribe.Choice,
		Amount:        amount,
		AmountDollars: amount.Mul(decimal.NewFromFloat(price)),
	}, nil
}

// priceOrZero is the pipeline's single tolerated degradation: a bribe whose
// price cannot be resolved is still recorded, valued at $0. Keep every
// price-error-to-default conversion here.
func (p *Pipeline) priceOrZero(ctx context.Context, getPrice PriceFunc, token types.Address, symbol string) float64 {
	price, err := getPrice(ctx, token, symbol)
	if err != nil {
		p.logger.Error().Err(err).Str("token", token.Hex()).Str("symbol", symbol).Msg("price lookup failed; valuing bribe at $0")
		return 0
	}
	return price
}
