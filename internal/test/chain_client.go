package test

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github/chapool/token-agent/internal/token/chain"
)

// ScriptedChainClient is a chain.Client for tests. Nonces, fees and send
// outcomes are scripted per test, receipts default to success.
type ScriptedChainClient struct {
	mu sync.Mutex

	// Nonces maps checksummed addresses to the pending transaction count.
	Nonces map[string]uint64
	// TipCap returned by SuggestGasTipCap.
	TipCap *big.Int
	// Base returned by BaseFee.
	Base *big.Int
	// SendErrs is consumed one error per SendTransaction call, nil entries
	// mean success. After the queue is drained every send succeeds.
	SendErrs []error
	// ReceiptStatus used for generated receipts.
	ReceiptStatus uint64
	// ReceiptErr, when set, is returned by WaitForReceipt instead.
	ReceiptErr error
	// GasUsed reported on generated receipts.
	GasUsed uint64

	// SentTxs records every transaction passed to SendTransaction.
	SentTxs []*types.Transaction
}

func NewScriptedChainClient() *ScriptedChainClient {
	return &ScriptedChainClient{
		Nonces:        make(map[string]uint64),
		TipCap:        big.NewInt(1_000_000_000),
		Base:          big.NewInt(10_000_000_000),
		ReceiptStatus: types.ReceiptStatusSuccessful,
		GasUsed:       60_000,
	}
}

func (c *ScriptedChainClient) TransactionCount(_ context.Context, address common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Nonces[common.HexToAddress(address.Hex()).Hex()], nil
}

// SetNonce scripts the pending transaction count for an address.
func (c *ScriptedChainClient) SetNonce(address string, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Nonces[common.HexToAddress(address).Hex()] = nonce
}

func (c *ScriptedChainClient) SuggestGasTipCap(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.TipCap), nil
}

func (c *ScriptedChainClient) BaseFee(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.Base), nil
}

func (c *ScriptedChainClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.SentTxs = append(c.SentTxs, tx)

	if len(c.SendErrs) == 0 {
		return nil
	}

	err := c.SendErrs[0]
	c.SendErrs = c.SendErrs[1:]

	return err
}

func (c *ScriptedChainClient) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}

	return c.receipt(txHash), nil
}

func (c *ScriptedChainClient) WaitForReceipt(_ context.Context, txHash common.Hash, _ time.Duration) (*types.Receipt, error) {
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}

	return c.receipt(txHash), nil
}

func (c *ScriptedChainClient) receipt(txHash common.Hash) *types.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &types.Receipt{
		TxHash:      txHash,
		Status:      c.ReceiptStatus,
		GasUsed:     c.GasUsed,
		BlockNumber: big.NewInt(1),
	}
}

var _ chain.Client = (*ScriptedChainClient)(nil)
