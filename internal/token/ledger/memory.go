package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
)

// MemoryService is an in-process ledger for tests.
type MemoryService struct {
	mu      sync.Mutex
	records map[string]*Transaction
}

// NewMemoryService returns an empty in-memory ledger.
func NewMemoryService() *MemoryService {
	return &MemoryService{records: make(map[string]*Transaction)}
}

func (s *MemoryService) Create(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[tx.TxID]; ok {
		return ErrDuplicateTxID
	}

	tx.Status = StatusPending
	tx.CreatedAt = time.Now().UTC()

	clone := *tx
	s.records[tx.TxID] = &clone

	return nil
}

func (s *MemoryService) Get(_ context.Context, txID string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.records[txID]
	if !ok {
		return nil, ErrNotFound
	}

	clone := *tx

	return &clone, nil
}

func (s *MemoryService) MarkSent(_ context.Context, txID string, chainTxHash string, reservedNonce uint64, attemptCount int) error {
	return s.mutate(txID, func(tx *Transaction) {
		tx.Status = StatusSent
		tx.ChainTxHash = null.StringFrom(chainTxHash)
		tx.ReservedNonce = null.Int64From(int64(reservedNonce))
		tx.AttemptCount = attemptCount
	})
}

func (s *MemoryService) MarkConfirming(_ context.Context, txID string) error {
	return s.mutate(txID, func(tx *Transaction) {
		tx.Status = StatusConfirming
	})
}

func (s *MemoryService) MarkConfirmed(_ context.Context, txID string, gasUsed uint64) error {
	return s.mutate(txID, func(tx *Transaction) {
		tx.Status = StatusConfirmed
		tx.GasUsed = null.Int64From(int64(gasUsed))
		tx.ConfirmedAt = null.TimeFrom(time.Now().UTC())
	})
}

func (s *MemoryService) MarkFailed(_ context.Context, txID string, lastError string, attemptCount int) error {
	return s.mutate(txID, func(tx *Transaction) {
		tx.Status = StatusFailed
		tx.LastError = null.StringFrom(lastError)
		tx.AttemptCount = attemptCount
	})
}

func (s *MemoryService) mutate(txID string, fn func(*Transaction)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.records[txID]
	if !ok {
		return ErrNotFound
	}

	fn(tx)

	return nil
}
