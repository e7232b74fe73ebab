package submit

import (
	"fmt"
	"math/big"
	"time"

	"github/chapool/token-agent/internal/token/ledger"
)

// Config controls retry behavior and gas limits of the submitter.
type Config struct {
	// MaxSendAttempts bounds how often a transaction send is tried.
	MaxSendAttempts int
	// MaxConfirmAttempts bounds how often a receipt wait is retried after
	// timing out. The transaction is never re-sent during confirmation.
	MaxConfirmAttempts int
	// BaseDelay is the delay before the first send retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// BackoffMultiplier grows the delay between consecutive retries.
	BackoffMultiplier int
	// ConfirmTimeout bounds a single receipt wait.
	ConfirmTimeout time.Duration
	// FeeBumpPercent is applied to gas fees after an underpriced failure.
	FeeBumpPercent int
	MintGasLimit   uint64
	BurnGasLimit   uint64
}

func DefaultConfig() Config {
	return Config{
		MaxSendAttempts:    3,
		MaxConfirmAttempts: 2,
		BaseDelay:          2 * time.Second,
		MaxDelay:           30 * time.Second,
		BackoffMultiplier:  2,
		ConfirmTimeout:     120 * time.Second,
		FeeBumpPercent:     20,
		MintGasLimit:       150000,
		BurnGasLimit:       100000,
	}
}

// Request describes one token operation to execute on chain.
type Request struct {
	TxID          string
	TxType        ledger.TxType
	WalletAddress string
	AmountWei     *big.Int
	Reason        string
}

// Result is the terminal outcome of a submission.
type Result struct {
	TxID          string
	ChainTxHash   string
	Status        ledger.Status
	ReservedNonce uint64
	GasUsed       uint64
	AttemptCount  int
}

// FatalError indicates a non-retryable failure, the submission was
// abandoned after a single attempt.
type FatalError struct {
	TxID   string
	Wallet string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal submission error for tx %s (wallet %s): %v", e.TxID, e.Wallet, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// ExhaustedError indicates all retry attempts were used up without reaching
// a confirmed transaction.
type ExhaustedError struct {
	TxID     string
	Wallet   string
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("submission for tx %s (wallet %s) exhausted after %d attempts: %v", e.TxID, e.Wallet, e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
