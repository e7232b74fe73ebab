package httperrors

import (
	"net/http"
)

const (
	HTTPErrorTypeInvalidIdempotencyKey string = "invalid_idempotency_key"
	HTTPErrorTypeCircuitOpen           string = "circuit_open"
	HTTPErrorTypeSubmissionFailed      string = "submission_failed"
	HTTPErrorTypeRetriesExhausted      string = "retries_exhausted"
	HTTPErrorTypeTransactionNotFound   string = "transaction_not_found"
)

var (
	ErrBadRequestMissingIdempotencyKey = NewHTTPError(http.StatusBadRequest, HTTPErrorTypeInvalidIdempotencyKey, "Idempotency-Key header is required for this endpoint.")
	ErrNotFoundTransaction             = NewHTTPError(http.StatusNotFound, HTTPErrorTypeTransactionNotFound, "Transaction not found.")
)
