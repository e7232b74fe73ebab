package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// PostTokenTransactionPayload post token transaction payload
// Shared payload for POST /api/v1/token/mint and POST /api/v1/token/burn.
type PostTokenTransactionPayload struct {

	// Caller-assigned unique transaction ID, used for ledger deduplication
	// Example: mint-7f3a9c1b
	// Required: true
	// Max Length: 128
	// Min Length: 1
	TxID *string `json:"txId"`

	// Target wallet address (0x-prefixed, 42 characters)
	// Example: 0x71C7656EC7ab88b098defB751B7401B5f6d8976F
	// Required: true
	// Pattern: ^0x[0-9a-fA-F]{40}$
	WalletAddress *string `json:"walletAddress"`

	// Amount in wei as decimal string
	// Example: 1000000000000000000
	// Required: true
	// Pattern: ^[0-9]+$
	AmountWei *string `json:"amountWei"`

	// Reason recorded on chain alongside the operation
	// Max Length: 256
	Reason string `json:"reason,omitempty"`
}

// Validate validates this post token transaction payload
func (m *PostTokenTransactionPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateTxID(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateWalletAddress(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateAmountWei(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateReason(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *PostTokenTransactionPayload) validateTxID(formats strfmt.Registry) error {
	if err := validate.Required("txId", "body", m.TxID); err != nil {
		return err
	}

	if err := validate.MinLength("txId", "body", *m.TxID, 1); err != nil {
		return err
	}

	if err := validate.MaxLength("txId", "body", *m.TxID, 128); err != nil {
		return err
	}

	return nil
}

func (m *PostTokenTransactionPayload) validateWalletAddress(formats strfmt.Registry) error {
	if err := validate.Required("walletAddress", "body", m.WalletAddress); err != nil {
		return err
	}

	if err := validate.Pattern("walletAddress", "body", *m.WalletAddress, `^0x[0-9a-fA-F]{40}$`); err != nil {
		return err
	}

	return nil
}

func (m *PostTokenTransactionPayload) validateAmountWei(formats strfmt.Registry) error {
	if err := validate.Required("amountWei", "body", m.AmountWei); err != nil {
		return err
	}

	if err := validate.Pattern("amountWei", "body", *m.AmountWei, `^[0-9]+$`); err != nil {
		return err
	}

	return nil
}

func (m *PostTokenTransactionPayload) validateReason(formats strfmt.Registry) error {
	if m.Reason == "" {
		return nil
	}

	if err := validate.MaxLength("reason", "body", m.Reason, 256); err != nil {
		return err
	}

	return nil
}

// TokenTransactionResponse token transaction response
type TokenTransactionResponse struct {

	// Caller-assigned transaction ID
	// Required: true
	TxID *string `json:"txId"`

	// On-chain transaction hash, empty until the transaction was sent
	ChainTxHash string `json:"chainTxHash,omitempty"`

	// Terminal status of the submission
	// Required: true
	// Enum: [CONFIRMED FAILED]
	Status *string `json:"status"`

	// Nonce the transaction was finally sent with
	ReservedNonce int64 `json:"reservedNonce"`

	// Gas used by the confirmed transaction
	GasUsed int64 `json:"gasUsed,omitempty"`

	// Number of send attempts performed
	AttemptCount int64 `json:"attemptCount"`
}

// Validate validates this token transaction response
func (m *TokenTransactionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("txId", "body", m.TxID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("status", "body", m.Status); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// TransactionRecordResponse transaction record response for GET lookups
type TransactionRecordResponse struct {

	// Required: true
	TxID *string `json:"txId"`

	// Required: true
	WalletAddress *string `json:"walletAddress"`

	// Required: true
	// Enum: [mint burn]
	TxType *string `json:"txType"`

	// Required: true
	AmountWei *string `json:"amountWei"`

	// Required: true
	// Enum: [PENDING SENT CONFIRMING CONFIRMED FAILED]
	Status *string `json:"status"`

	ChainTxHash   string          `json:"chainTxHash,omitempty"`
	ReservedNonce int64           `json:"reservedNonce,omitempty"`
	GasUsed       int64           `json:"gasUsed,omitempty"`
	AttemptCount  int64           `json:"attemptCount"`
	LastError     string          `json:"lastError,omitempty"`
	CreatedAt     strfmt.DateTime `json:"createdAt,omitempty"`
	ConfirmedAt   strfmt.DateTime `json:"confirmedAt,omitempty"`
}

// Validate validates this transaction record response
func (m *TransactionRecordResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("txId", "body", m.TxID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("walletAddress", "body", m.WalletAddress); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("txType", "body", m.TxType); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("amountWei", "body", m.AmountWei); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("status", "body", m.Status); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
