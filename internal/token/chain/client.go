package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const receiptPollInterval = 2 * time.Second

// RPCClient wraps ethclient with support for multiple RPC URLs and
// failover between them.
type RPCClient struct {
	urls    []string
	clients []*ethclient.Client
	mu      sync.RWMutex
	current int
}

// NewRPCClient dials the given RPC URLs. Individual connection failures
// are tolerated as long as at least one node is reachable on first use.
func NewRPCClient(urls []string) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, 0, len(urls))
	for _, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
	}

	if allClientsNil(clients) {
		return nil, errors.New("failed to connect to any RPC node")
	}

	return &RPCClient{
		urls:    urls,
		clients: clients,
		current: 0,
	}, nil
}

func allClientsNil(clients []*ethclient.Client) bool {
	for _, client := range clients {
		if client != nil {
			return false
		}
	}
	return true
}

// Close closes all client connections.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

func (c *RPCClient) TransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	nonce, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction count")
	}

	return nonce, nil
}

func (c *RPCClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas tip cap")
	}

	return tipCap, nil
}

func (c *RPCClient) BaseFee(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest header")
	}

	if header.BaseFee == nil {
		return nil, errors.New("chain does not support EIP-1559 (baseFee is nil)")
	}

	return header.BaseFee, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get RPC client")
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	return receipt, nil
}

// WaitForReceipt polls for the receipt until it shows up or timeout elapses.
func (c *RPCClient) WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			log.Debug().
				Str("tx_hash", txHash.Hex()).
				Err(err).
				Msg("Receipt lookup failed, continuing to poll")
		}

		select {
		case <-ctx.Done():
			return nil, &ReceiptTimeoutError{TxHash: txHash.Hex(), Timeout: timeout}
		case <-ticker.C:
		}
	}
}

// getClient returns the currently healthy client, failing over to the
// next URL when the health check fails.
func (c *RPCClient) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < len(c.clients); i++ {
		idx := (c.current + i) % len(c.clients)
		client := c.clients[idx]

		if client == nil {
			reconnected, err := ethclient.Dial(c.urls[idx])
			if err != nil {
				continue
			}
			c.clients[idx] = reconnected
			client = reconnected
		}

		if _, err := client.ChainID(ctx); err != nil {
			log.Warn().
				Str("url", c.urls[idx]).
				Err(err).
				Msg("RPC client health check failed, trying next node")
			continue
		}

		c.current = idx

		return client, nil
	}

	return nil, errors.New("all RPC clients are unavailable")
}
