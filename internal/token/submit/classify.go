package submit

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/token/chain"
)

// retryablePatterns are matched case-insensitively against RPC error
// messages. Anything not matching is treated as fatal.
var retryablePatterns = []string{
	"nonce too low",
	"replacement transaction underpriced",
	"already known",
	"timeout",
	"connection",
	"network",
	"gas price too low",
	"max fee per gas less than block base fee",
}

// IsRetryable reports whether a send failure is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *chain.ReceiptTimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// IsNonceConflict reports whether the failure indicates a stale or
// conflicting nonce, requiring a resync against chain state.
func IsNonceConflict(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(strings.ToLower(err.Error()), "nonce")
}

// IsUnderpriced reports whether the failure indicates insufficient gas
// pricing, requiring a fee bump before the next attempt.
func IsUnderpriced(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "gas price") || strings.Contains(msg, "fee")
}
