// Package chain mediates between the rotating-savings contracts and the rest
// of the service: read-only contract views, calldata packing and transaction
// submission, and event decoding.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ClientConfig holds connection parameters for the chain client.
type ClientConfig struct {
	RPCURL         string
	FactoryAddress string
	TokenAddress   string
}

// Client wraps an ethclient connection together with the two well-known
// contract addresses (factory and settlement token).
type Client struct {
	ec      *ethclient.Client
	chainID *big.Int
	factory common.Address
	token   common.Address
}

// ethBackend is the slice of ethclient the chain package depends on. It is
// satisfied by *ethclient.Client and by test fakes.
type ethBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// NewClient dials the RPC endpoint and caches the chain ID for signing.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("chain: rpc url is required")
	}
	if !common.IsHexAddress(cfg.FactoryAddress) {
		return nil, fmt.Errorf("chain: invalid factory address %q", cfg.FactoryAddress)
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("chain: invalid token address %q", cfg.TokenAddress)
	}

	ec, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial rpc: %w", err)
	}
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}

	return &Client{
		ec:      ec,
		chainID: chainID,
		factory: common.HexToAddress(cfg.FactoryAddress),
		token:   common.HexToAddress(cfg.TokenAddress),
	}, nil
}

// ChainID returns the cached chain ID of the connected network.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// FactoryAddress returns the factory contract address.
func (c *Client) FactoryAddress() common.Address { return c.factory }

// TokenAddress returns the settlement token contract address.
func (c *Client) TokenAddress() common.Address { return c.token }

// Backend exposes the underlying RPC connection.
func (c *Client) Backend() *ethclient.Client { return c.ec }

// Close tears down the RPC connection.
func (c *Client) Close() {
	c.ec.Close()
}
