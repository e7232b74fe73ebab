package submit

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/metrics"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/token/chain"
	"github/chapool/token-agent/internal/token/ledger"
	"github/chapool/token-agent/internal/token/nonce"
	"github/chapool/token-agent/internal/token/signer"
	"github/chapool/token-agent/internal/util"
)

// Service drives one token operation from request to terminal state:
// nonce reservation, signing, guarded send with retries, confirmation.
type Service interface {
	// Submit executes req to completion. The returned Result always carries
	// the terminal status. Errors are *FatalError, *ExhaustedError,
	// *breaker.OpenError or an internal failure.
	Submit(ctx context.Context, req *Request) (*Result, error)
}

type service struct {
	chainClient chain.Client
	signer      signer.Service
	nonces      *nonce.Coordinator
	brk         *breaker.Breaker
	records     ledger.Service
	metrics     *metrics.Service
	contract    common.Address
	contractABI abi.ABI
	cfg         Config

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

//nolint:ireturn
func NewService(
	cfg Config,
	contractAddress string,
	chainClient chain.Client,
	sign signer.Service,
	nonces *nonce.Coordinator,
	brk *breaker.Breaker,
	records ledger.Service,
	m *metrics.Service,
) (Service, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, errors.Errorf("invalid token contract address: %q", contractAddress)
	}

	contractABI, err := parseTokenABI()
	if err != nil {
		return nil, err
	}

	return &service{
		chainClient: chainClient,
		signer:      sign,
		nonces:      nonces,
		brk:         brk,
		records:     records,
		metrics:     m,
		contract:    common.HexToAddress(contractAddress),
		contractABI: contractABI,
		cfg:         cfg,
		sleep:       time.Sleep,
	}, nil
}

func (s *service) Submit(ctx context.Context, req *Request) (*Result, error) {
	log := util.LogFromContext(ctx).With().
		Str("txID", req.TxID).
		Str("wallet", req.WalletAddress).
		Str("txType", string(req.TxType)).
		Logger()

	// 1. duplicate txIDs return the recorded outcome instead of re-executing
	existing, err := s.records.Get(ctx, req.TxID)
	if err == nil {
		log.Info().Str("status", string(existing.Status)).Msg("Transaction already recorded, returning stored outcome")
		return resultFromRecord(existing), nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to check for existing transaction")
	}

	if !common.IsHexAddress(req.WalletAddress) {
		return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: errors.Errorf("invalid wallet address: %q", req.WalletAddress)}
	}
	wallet := common.HexToAddress(req.WalletAddress)

	if req.AmountWei == nil || req.AmountWei.Sign() <= 0 {
		return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: errors.New("amount must be a positive integer")}
	}

	data, gasLimit, err := s.buildCalldata(req, wallet)
	if err != nil {
		return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: err}
	}

	// 2. create the audit record before any chain interaction
	record := &ledger.Transaction{
		TxID:          req.TxID,
		WalletAddress: strings.ToLower(req.WalletAddress),
		TxType:        req.TxType,
		AmountWei:     req.AmountWei.String(),
		Reason:        req.Reason,
		Status:        ledger.StatusPending,
	}
	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, ledger.ErrDuplicateTxID) {
			existing, getErr := s.records.Get(ctx, req.TxID)
			if getErr != nil {
				return nil, errors.Wrap(getErr, "failed to load concurrently created transaction")
			}

			log.Info().Str("status", string(existing.Status)).Msg("Transaction created concurrently, returning stored outcome")
			return resultFromRecord(existing), nil
		}

		return nil, errors.Wrap(err, "failed to create transaction record")
	}

	// 3. nonces are coordinated per sending account, not per target wallet
	sender := strings.ToLower(s.signer.Address().Hex())
	reservedNonce, err := s.nonces.ReserveNonce(ctx, sender)
	if err != nil {
		s.fail(ctx, req.TxType, req.TxID, 0, err)
		return nil, errors.Wrap(err, "failed to reserve nonce")
	}

	tipCap, err := s.chainClient.SuggestGasTipCap(ctx)
	if err != nil {
		s.fail(ctx, req.TxType, req.TxID, 0, err)
		return nil, errors.Wrap(err, "failed to fetch gas tip cap")
	}

	baseFee, err := s.chainClient.BaseFee(ctx)
	if err != nil {
		s.fail(ctx, req.TxType, req.TxID, 0, err)
		return nil, errors.Wrap(err, "failed to fetch base fee")
	}

	// headroom for base fee movement between build and inclusion
	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tipCap)

	// 4. send with bounded retries, adjusting nonce and fees on the way
	currentNonce := reservedNonce
	attempts := 0
	var lastErr error
	var sentTx *types.Transaction

	for attempt := 0; attempt < s.cfg.MaxSendAttempts; attempt++ {
		if attempt > 0 {
			delay := Delay(attempt-1, s.cfg.BaseDelay, s.cfg.MaxDelay, s.cfg.BackoffMultiplier)
			log.Info().Dur("delay", delay).Int("attempt", attempt+1).Msg("Retrying transaction send after backoff")
			s.metrics.SendRetries.Inc()
			s.sleep(delay)
		}

		signedTx, err := s.signer.SignTx(&signer.SignRequest{
			Nonce:                currentNonce,
			To:                   s.contract,
			Value:                big.NewInt(0),
			Data:                 data,
			GasLimit:             gasLimit,
			MaxFeePerGas:         feeCap,
			MaxPriorityFeePerGas: tipCap,
		})
		if err != nil {
			attempts = attempt + 1
			s.fail(ctx, req.TxType, req.TxID, attempts, err)
			return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: err}
		}

		attempts = attempt + 1
		err = s.brk.Execute(ctx, func(ctx context.Context) error {
			return s.chainClient.SendTransaction(ctx, signedTx)
		})
		if err == nil {
			sentTx = signedTx
			break
		}

		var openErr *breaker.OpenError
		if errors.As(err, &openErr) {
			log.Warn().Err(err).Msg("Circuit breaker open, rejecting submission")
			s.metrics.CircuitRejected.Inc()
			s.fail(ctx, req.TxType, req.TxID, attempts, err)
			return nil, err
		}

		if !IsRetryable(err) {
			log.Error().Err(err).Int("attempt", attempts).Msg("Non-retryable send failure, abandoning transaction")
			s.fail(ctx, req.TxType, req.TxID, attempts, err)
			return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: err}
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempts).Uint64("nonce", currentNonce).Msg("Transaction send failed, will retry")

		switch {
		case IsNonceConflict(err):
			corrected, syncErr := s.nonces.HandleSubmissionError(ctx, sender, currentNonce)
			if syncErr != nil {
				log.Error().Err(syncErr).Msg("Failed to resync nonce after conflict, keeping current value")
				break
			}

			currentNonce = corrected
			s.metrics.NonceResyncs.Inc()
		case IsUnderpriced(err):
			feeCap = bumpFee(feeCap, s.cfg.FeeBumpPercent)
			tipCap = bumpFee(tipCap, s.cfg.FeeBumpPercent)
			s.metrics.FeeBumps.Inc()
			log.Info().Str("maxFeePerGas", feeCap.String()).Str("maxPriorityFeePerGas", tipCap.String()).Msg("Bumped gas fees after underpriced failure")
		}
	}

	if sentTx == nil {
		s.fail(ctx, req.TxType, req.TxID, attempts, lastErr)
		return nil, &ExhaustedError{TxID: req.TxID, Wallet: req.WalletAddress, Attempts: attempts, LastErr: lastErr}
	}

	// 5. confirmation: only the receipt wait is retried, never the send
	hash := sentTx.Hash()
	log = log.With().Str("chainTxHash", hash.Hex()).Logger()

	if err := s.records.MarkSent(ctx, req.TxID, hash.Hex(), currentNonce, attempts); err != nil {
		log.Error().Err(err).Msg("Failed to record sent transaction")
	}
	if err := s.records.MarkConfirming(ctx, req.TxID); err != nil {
		log.Error().Err(err).Msg("Failed to record confirming transaction")
	}

	var receipt *types.Receipt
	for attempt := 0; attempt < s.cfg.MaxConfirmAttempts; attempt++ {
		receipt, err = s.chainClient.WaitForReceipt(ctx, hash, s.cfg.ConfirmTimeout)
		if err == nil {
			break
		}

		var timeoutErr *chain.ReceiptTimeoutError
		if errors.As(err, &timeoutErr) && attempt < s.cfg.MaxConfirmAttempts-1 {
			log.Warn().Int("attempt", attempt+1).Msg("Receipt wait timed out, polling again")
			continue
		}

		s.fail(ctx, req.TxType, req.TxID, attempts, err)
		return nil, &ExhaustedError{TxID: req.TxID, Wallet: req.WalletAddress, Attempts: attempts, LastErr: err}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		revertErr := errors.Errorf("transaction %s reverted on chain", hash.Hex())
		log.Error().Msg("Transaction reverted on chain")
		s.fail(ctx, req.TxType, req.TxID, attempts, revertErr)
		return nil, &FatalError{TxID: req.TxID, Wallet: req.WalletAddress, Err: revertErr}
	}

	if err := s.records.MarkConfirmed(ctx, req.TxID, receipt.GasUsed); err != nil {
		log.Error().Err(err).Msg("Failed to record confirmed transaction")
	}

	s.metrics.Submissions.WithLabelValues(string(req.TxType), "confirmed").Inc()
	log.Info().Uint64("gasUsed", receipt.GasUsed).Uint64("nonce", currentNonce).Int("attempts", attempts).Msg("Transaction confirmed")

	return &Result{
		TxID:          req.TxID,
		ChainTxHash:   hash.Hex(),
		Status:        ledger.StatusConfirmed,
		ReservedNonce: currentNonce,
		GasUsed:       receipt.GasUsed,
		AttemptCount:  attempts,
	}, nil
}

func (s *service) buildCalldata(req *Request, wallet common.Address) ([]byte, uint64, error) {
	switch req.TxType {
	case ledger.TxTypeMint:
		data, err := packMint(s.contractABI, wallet, req.AmountWei, req.Reason)
		return data, s.cfg.MintGasLimit, err
	case ledger.TxTypeBurn:
		data, err := packBurnFrom(s.contractABI, wallet, req.AmountWei, req.Reason)
		return data, s.cfg.BurnGasLimit, err
	default:
		return nil, 0, errors.Errorf("unsupported transaction type: %q", req.TxType)
	}
}

// fail moves the record to FAILED and counts the submission. Records that
// were never created are left alone by the ledger's not-found handling.
func (s *service) fail(ctx context.Context, txType ledger.TxType, txID string, attempts int, cause error) {
	if err := s.records.MarkFailed(ctx, txID, cause.Error(), attempts); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		util.LogFromContext(ctx).Error().Err(err).Str("txID", txID).Msg("Failed to record failed transaction")
	}

	s.metrics.Submissions.WithLabelValues(string(txType), "failed").Inc()
}

func bumpFee(fee *big.Int, percent int) *big.Int {
	bumped := new(big.Int).Mul(fee, big.NewInt(int64(100+percent)))

	return bumped.Div(bumped, big.NewInt(100))
}

func resultFromRecord(tx *ledger.Transaction) *Result {
	res := &Result{
		TxID:         tx.TxID,
		Status:       tx.Status,
		AttemptCount: tx.AttemptCount,
	}

	if tx.ChainTxHash.Valid {
		res.ChainTxHash = tx.ChainTxHash.String
	}
	if tx.ReservedNonce.Valid {
		res.ReservedNonce = uint64(tx.ReservedNonce.Int64)
	}
	if tx.GasUsed.Valid {
		res.GasUsed = uint64(tx.GasUsed.Int64)
	}

	return res
}
