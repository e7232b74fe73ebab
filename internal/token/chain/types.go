package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Client is the chain RPC surface the token core consumes. Implemented by
// RPCClient in production and by a scripted fake in tests.
type Client interface {
	// TransactionCount returns the pending transaction count (the next
	// nonce) for the given address.
	TransactionCount(ctx context.Context, address common.Address) (uint64, error)

	// SuggestGasTipCap returns the suggested EIP-1559 priority fee.
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)

	// BaseFee returns the base fee of the latest block.
	BaseFee(ctx context.Context) (*big.Int, error)

	// SendTransaction broadcasts a signed transaction.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt returns the receipt for the given hash, or an
	// error if it is not (yet) available.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// WaitForReceipt polls for the receipt of txHash until it is available
	// or the timeout elapses, in which case a ReceiptTimeoutError is returned.
	WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*types.Receipt, error)
}

// ReceiptTimeoutError is returned when a transaction did not confirm
// within the wait timeout. The transaction may still confirm later.
type ReceiptTimeoutError struct {
	TxHash  string
	Timeout time.Duration
}

func (e *ReceiptTimeoutError) Error() string {
	return "timeout waiting for receipt of transaction " + e.TxHash + " after " + e.Timeout.String()
}
