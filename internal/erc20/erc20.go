// Package erc20 reads token metadata over Ethereum RPC.
package erc20

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"bribecast/internal/types"
)

const erc20ABIJSON = `[
{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC-20 ABI: " + err.Error())
	}
	erc20ABI = parsed
}

// Source exposes the token metadata reads the valuation step needs.
type Source interface {
	Symbol(ctx context.Context, token types.Address) (string, error)
	Decimals(ctx context.Context, token types.Address) (uint8, error)
}

// ClientOptions parameterise the RPC-backed source.
type ClientOptions struct {
	RPCURL  string
	Timeout time.Duration
}

// Client reads ERC-20 metadata via Ethereum RPC.
type Client struct {
	opts      ClientOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewClient builds a lazily-dialled RPC client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	return &Client{opts: opts, logger: logger.With().Str("component", "erc20").Logger()}
}

// Symbol returns the token's on-chain symbol.
func (c *Client) Symbol(ctx context.Context, token types.Address) (string, error) {
	outputs, err := c.call(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := outputs[0].(string)
	if !ok {
		return "", errors.New("failed to decode symbol output")
	}
	return symbol, nil
}

// Decimals returns the token's on-chain decimals field.
func (c *Client) Decimals(ctx context.Context, token types.Address) (uint8, error) {
	outputs, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := outputs[0].(uint8)
	if !ok {
		return 0, errors.New("failed to decode decimals output")
	}
	return decimals, nil
}

func (c *Client) call(ctx context.Context, token types.Address, method string) ([]any, error) {
	if c.opts.RPCURL == "" {
		return nil, errors.New("ethereum rpc url not configured")
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	addr := token.Common()
	payload, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := erc20ABI.Unpack(method, res)
	if err != nil {
		return nil, err
	}
	if len(outputs) != 1 {
		return nil, errors.New("unexpected " + method + " response")
	}
	return outputs, nil
}

func (c *Client) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ Source = (*Client)(nil)
