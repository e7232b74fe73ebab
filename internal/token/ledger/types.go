package ledger

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
)

// Status of one transaction submission. CONFIRMED and FAILED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSent       Status = "SENT"
	StatusConfirming Status = "CONFIRMING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// TxType of the on-chain operation.
type TxType string

const (
	TxTypeMint TxType = "mint"
	TxTypeBurn TxType = "burn"
)

// Transaction is the audit record of one submission attempt chain. It is
// owned exclusively by the submitter for the duration of one submission
// and persisted for audit by the surrounding system.
type Transaction struct {
	TxID          string
	WalletAddress string
	TxType        TxType
	AmountWei     string
	Reason        string
	Status        Status
	ReservedNonce null.Int64
	ChainTxHash   null.String
	GasUsed       null.Int64
	AttemptCount  int
	LastError     null.String
	CreatedAt     time.Time
	ConfirmedAt   null.Time
}

// Service persists transaction audit records.
type Service interface {
	// Create inserts a new PENDING record. Returns ErrDuplicateTxID if the
	// txID was already used.
	Create(ctx context.Context, tx *Transaction) error

	// Get returns the record for txID or ErrNotFound.
	Get(ctx context.Context, txID string) (*Transaction, error)

	// MarkSent records the send result (hash, nonce, attempts) and moves
	// the record to SENT.
	MarkSent(ctx context.Context, txID string, chainTxHash string, reservedNonce uint64, attemptCount int) error

	// MarkConfirming moves the record to CONFIRMING.
	MarkConfirming(ctx context.Context, txID string) error

	// MarkConfirmed moves the record to the terminal CONFIRMED state.
	MarkConfirmed(ctx context.Context, txID string, gasUsed uint64) error

	// MarkFailed moves the record to the terminal FAILED state.
	MarkFailed(ctx context.Context, txID string, lastError string, attemptCount int) error
}
