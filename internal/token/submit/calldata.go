package submit

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// tokenABI covers the two contract methods the agent calls. The reason
// string is recorded on chain alongside every supply change.
const tokenABI = `[
	{
		"name": "mint",
		"type": "function",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "reason", "type": "string"}
		],
		"outputs": []
	},
	{
		"name": "burnFrom",
		"type": "function",
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "reason", "type": "string"}
		],
		"outputs": []
	}
]`

func parseTokenABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "failed to parse token contract ABI")
	}

	return parsed, nil
}

func packMint(parsed abi.ABI, to common.Address, amount *big.Int, reason string) ([]byte, error) {
	data, err := parsed.Pack("mint", to, amount, reason)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack mint calldata")
	}

	return data, nil
}

func packBurnFrom(parsed abi.ABI, from common.Address, amount *big.Int, reason string) ([]byte, error) {
	data, err := parsed.Pack("burnFrom", from, amount, reason)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack burnFrom calldata")
	}

	return data, nil
}
