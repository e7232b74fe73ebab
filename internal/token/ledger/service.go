package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no record exists for a txID.
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicateTxID is returned when a txID was already used.
	ErrDuplicateTxID = errors.New("transaction ID already exists")
)

const uniqueViolationCode = "23505"

type service struct {
	db *sql.DB
}

// NewService creates a Postgres-backed ledger.
//
//nolint:ireturn
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Create(ctx context.Context, tx *Transaction) error {
	tx.Status = StatusPending
	tx.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (tx_id, wallet_address, tx_type, amount_wei, reason, status, attempt_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.TxID, tx.WalletAddress, string(tx.TxType), tx.AmountWei, tx.Reason, string(tx.Status), tx.AttemptCount, tx.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return ErrDuplicateTxID
		}

		return errors.Wrap(err, "failed to insert transaction record")
	}

	return nil
}

func (s *service) Get(ctx context.Context, txID string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tx_id, wallet_address, tx_type, amount_wei, reason, status, reserved_nonce,
		       chain_tx_hash, gas_used, attempt_count, last_error, created_at, confirmed_at
		FROM transactions
		WHERE tx_id = $1`,
		txID,
	)

	var tx Transaction
	var txType, status string
	err := row.Scan(
		&tx.TxID, &tx.WalletAddress, &txType, &tx.AmountWei, &tx.Reason, &status, &tx.ReservedNonce,
		&tx.ChainTxHash, &tx.GasUsed, &tx.AttemptCount, &tx.LastError, &tx.CreatedAt, &tx.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get transaction record")
	}

	tx.TxType = TxType(txType)
	tx.Status = Status(status)

	return &tx, nil
}

func (s *service) MarkSent(ctx context.Context, txID string, chainTxHash string, reservedNonce uint64, attemptCount int) error {
	return s.update(ctx, txID, `
		UPDATE transactions
		SET status = $2, chain_tx_hash = $3, reserved_nonce = $4, attempt_count = $5
		WHERE tx_id = $1`,
		string(StatusSent), chainTxHash, int64(reservedNonce), attemptCount,
	)
}

func (s *service) MarkConfirming(ctx context.Context, txID string) error {
	return s.update(ctx, txID, `
		UPDATE transactions
		SET status = $2
		WHERE tx_id = $1`,
		string(StatusConfirming),
	)
}

func (s *service) MarkConfirmed(ctx context.Context, txID string, gasUsed uint64) error {
	return s.update(ctx, txID, `
		UPDATE transactions
		SET status = $2, gas_used = $3, confirmed_at = $4
		WHERE tx_id = $1`,
		string(StatusConfirmed), int64(gasUsed), null.TimeFrom(time.Now().UTC()),
	)
}

func (s *service) MarkFailed(ctx context.Context, txID string, lastError string, attemptCount int) error {
	return s.update(ctx, txID, `
		UPDATE transactions
		SET status = $2, last_error = $3, attempt_count = $4
		WHERE tx_id = $1`,
		string(StatusFailed), lastError, attemptCount,
	)
}

func (s *service) update(ctx context.Context, txID string, query string, args ...interface{}) error {
	allArgs := append([]interface{}{txID}, args...)

	res, err := s.db.ExecContext(ctx, query, allArgs...)
	if err != nil {
		return errors.Wrap(err, "failed to update transaction record")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
