package signer

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type service struct {
	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewService creates a signer for the backend operating account from a hex
// encoded private key.
//
//nolint:ireturn
func NewService(chainID int64, privateKeyHex string) (Service, error) {
	if privateKeyHex == "" {
		return nil, errors.New("backend private key is not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse backend private key")
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to cast public key to ECDSA")
	}

	address := crypto.PubkeyToAddress(*publicKey)

	log.Info().
		Int64("chain_id", chainID).
		Str("address", address.Hex()).
		Msg("Signer initialized for operating account")

	return &service{
		chainID:    big.NewInt(chainID),
		privateKey: privateKey,
		address:    address,
	}, nil
}

// Address returns the operating account address.
func (s *service) Address() common.Address {
	return s.address
}

// SignTx builds an EIP-1559 transaction from req and signs it.
func (s *service) SignTx(req *SignRequest) (*types.Transaction, error) {
	if req.Value == nil {
		return nil, errors.New("value must not be nil")
	}

	if req.MaxFeePerGas == nil || req.MaxPriorityFeePerGas == nil {
		return nil, errors.New("fee fields must not be nil")
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     req.Nonce,
		GasTipCap: req.MaxPriorityFeePerGas,
		GasFeeCap: req.MaxFeePerGas,
		Gas:       req.GasLimit,
		To:        &req.To,
		Value:     req.Value,
		Data:      req.Data,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(s.chainID), s.privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return signedTx, nil
}
