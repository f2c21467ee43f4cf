// Package onchain wraps go-ethereum RPC access to the contracts adapters
// and the skim checker read from.
package onchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// Caller is the read-only contract access used by this package.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client wraps go-ethereum RPC for one chain.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// Dial creates a client from an RPC URL.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// CallContract performs an eth_call.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// Clients lazily dials one Client per chain from the configured RPC URLs.
type Clients struct {
	urls map[pool.Chain]string

	mu      sync.Mutex
	clients map[pool.Chain]*Client
}

func NewClients(urls map[pool.Chain]string) *Clients {
	return &Clients{urls: urls, clients: make(map[pool.Chain]*Client)}
}

// For returns the client for chain, dialing on first use.
func (c *Clients) For(ctx context.Context, chain pool.Chain) (Caller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[chain]; ok {
		return cl, nil
	}
	url := c.urls[chain]
	if url == "" {
		return nil, fmt.Errorf("no rpc configured for %s", chain)
	}
	cl, err := Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", chain, err)
	}
	c.clients[chain] = cl
	return cl, nil
}

// Configured reports whether an RPC URL exists for chain.
func (c *Clients) Configured(chain pool.Chain) bool { return c.urls[chain] != "" }

func (c *Clients) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cl := range c.clients {
		cl.Close()
	}
	c.clients = make(map[pool.Chain]*Client)
}
