package bribes

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bribecast/internal/subgraph"
	"bribecast/internal/types"
)

func testPriceFunc(p *Pipeline) PriceFunc {
	return func(ctx context.Context, token types.Address, _ string) (float64, error) {
		return p.prices.Price(ctx, token, p.network, p.now())
	}
}

func TestValueBribeScalesAndPrices(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenX, Amount: "1000000000000000000", Choice: 0}

	valued, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe)
	if err != nil {
		t.Fatalf("valuation should succeed: %v", err)
	}

	if valued.Pool != "PoolA" {
		t.Fatalf("expected pool PoolA, got %s", valued.Pool)
	}
	if valued.Token != "TOKX" {
		t.Fatalf("expected symbol TOKX, got %s", valued.Token)
	}
	if !valued.Amount.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected amount 1, got %s", valued.Amount)
	}
	if !valued.AmountDollars.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected $2, got %s", valued.AmountDollars)
	}
}

func TestValueBribeDegradesToZeroOnPriceFailure(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenY, Amount: "500000000000000000", Choice: 1}

	valued, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe)
	if err != nil {
		t.Fatalf("price failure must not be fatal: %v", err)
	}

	want := decimal.New(5, -1)
	if !valued.Amount.Equal(want) {
		t.Fatalf("amount must be unaffected by price failure, got %s", valued.Amount)
	}
	if !valued.AmountDollars.IsZero() {
		t.Fatalf("unpriced bribe should be worth $0, got %s", valued.AmountDollars)
	}
}

func TestValueBribeFailsOnBadChoiceIndex(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenX, Amount: "1", Choice: 5}

	_, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe)
	if err == nil {
		t.Fatal("out-of-range choice must be fatal")
	}
	if !strings.Contains(err.Error(), "choice index 5") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValueBribeFailsOnMetadataFailure(t *testing.T) {
	src, proposals, _, priceSource := twoPoolFixture()
	tokens := &fakeTokens{symbols: map[string]string{}, decimals: map[string]uint8{}}
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenX, Amount: "1", Choice: 0}

	if _, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe); err == nil {
		t.Fatal("metadata failure must be fatal")
	}
}

func TestValueBribeFailsOnUnparsableAmount(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenX, Amount: "not-a-number", Choice: 0}

	if _, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe); err == nil {
		t.Fatal("unparsable amount must be fatal")
	}
}

func TestValueBribeRespectsTokenDecimals(t *testing.T) {
	src, proposals, tokens, priceSource := twoPoolFixture()
	tokens.decimals[tokenX] = 6
	p := newTestPipeline(src, proposals, tokens, priceSource)

	proposal := proposals.proposals["prop-1"]
	bribe := subgraph.Bribe{Token: tokenX, Amount: "2500000", Choice: 0}

	valued, err := p.valueBribe(context.Background(), proposal, testPriceFunc(p), bribe)
	if err != nil {
		t.Fatalf("valuation should succeed: %v", err)
	}
	if !valued.Amount.Equal(decimal.New(25, -1)) {
		t.Fatalf("expected 2.5 after 6-decimal scaling, got %s", valued.Amount)
	}
	if !valued.AmountDollars.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected $5, got %s", valued.AmountDollars)
	}
}
