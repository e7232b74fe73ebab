package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// NonceStatusResponse nonce status response
type NonceStatusResponse struct {

	// Required: true
	Wallet *string `json:"wallet"`

	// Next nonce stored in the coordination store, null if never used
	StoredNonce *int64 `json:"storedNonce"`

	// Authoritative transaction count reported by the chain
	// Required: true
	ChainNonce *int64 `json:"chainNonce"`

	// Whether a lease is currently held for this wallet
	// Required: true
	IsLocked *bool `json:"isLocked"`

	// Whether stored and chain nonce agree
	// Required: true
	InSync *bool `json:"inSync"`
}

// Validate validates this nonce status response
func (m *NonceStatusResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("wallet", "body", m.Wallet); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("chainNonce", "body", m.ChainNonce); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("isLocked", "body", m.IsLocked); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("inSync", "body", m.InSync); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// NonceResetResponse nonce reset response
type NonceResetResponse struct {

	// Required: true
	Wallet *string `json:"wallet"`

	// Nonce after reset to chain state
	// Required: true
	Nonce *int64 `json:"nonce"`
}

// Validate validates this nonce reset response
func (m *NonceResetResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("wallet", "body", m.Wallet); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("nonce", "body", m.Nonce); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// CircuitBreakerStatusResponse circuit breaker status response
type CircuitBreakerStatusResponse struct {

	// Required: true
	Name *string `json:"name"`

	// Required: true
	// Enum: [closed open half_open]
	State *string `json:"state"`

	FailureCount     int64            `json:"failureCount"`
	SuccessCount     int64            `json:"successCount"`
	FailureThreshold int64            `json:"failureThreshold"`
	SuccessThreshold int64            `json:"successThreshold"`
	TimeoutSeconds   int64            `json:"timeoutSeconds"`
	LastFailureAt    *strfmt.DateTime `json:"lastFailureAt,omitempty"`
}

// Validate validates this circuit breaker status response
func (m *CircuitBreakerStatusResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("name", "body", m.Name); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("state", "body", m.State); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// CircuitBreakerListResponse circuit breaker list response
type CircuitBreakerListResponse struct {
	Breakers []*CircuitBreakerStatusResponse `json:"breakers"`
}

// Validate validates this circuit breaker list response
func (m *CircuitBreakerListResponse) Validate(formats strfmt.Registry) error {
	var res []error

	for i := 0; i < len(m.Breakers); i++ {
		if m.Breakers[i] == nil {
			continue
		}

		if err := m.Breakers[i].Validate(formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
