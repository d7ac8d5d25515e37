// Package wallet reads on-chain balances for the dashboard's wallet panel.
package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidAddress rejects malformed account addresses before any RPC call.
var ErrInvalidAddress = errors.New("wallet: invalid address")

// Options parameterise the RPC reader.
type Options struct {
	RPCURL  string
	Timeout time.Duration
}

// Balance is one account's ETH balance at a block.
type Balance struct {
	Address     string
	ETH         decimal.Decimal
	BlockNumber uint64
}

// Reader fetches balances via Ethereum RPC. The client is dialed lazily on
// first use and reused afterwards.
type Reader struct {
	opts      Options
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewReader builds a balance reader.
func NewReader(opts Options, logger zerolog.Logger) *Reader {
	return &Reader{opts: opts, logger: logger.With().Str("component", "wallet_reader").Logger()}
}

// FetchBalance returns the current ETH balance of an address.
func (r *Reader) FetchBalance(ctx context.Context, address string) (Balance, error) {
	if r.opts.RPCURL == "" {
		return Balance{}, errors.New("wallet: rpc url not configured")
	}
	if !common.IsHexAddress(address) {
		return Balance{}, ErrInvalidAddress
	}

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		return Balance{}, err
	}

	account := common.HexToAddress(address)
	wei, err := client.BalanceAt(ctx, account, nil)
	if err != nil {
		return Balance{}, err
	}

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return Balance{}, err
	}

	return Balance{
		Address:     account.Hex(),
		ETH:         decimal.NewFromBigInt(wei, -18),
		BlockNumber: blockNumber,
	}, nil
}

func (r *Reader) getClient(ctx context.Context) (*ethclient.Client, error) {
	r.clientMux.Lock()
	defer r.clientMux.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := ethclient.DialContext(ctx, r.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}
