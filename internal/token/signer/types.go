package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Service signs transactions with the backend operating account.
type Service interface {
	// Address returns the operating account address.
	Address() common.Address

	// SignTx builds and signs an EIP-1559 transaction.
	SignTx(req *SignRequest) (*types.Transaction, error)
}

// SignRequest carries everything needed to build one DynamicFeeTx.
type SignRequest struct {
	Nonce                uint64
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}
