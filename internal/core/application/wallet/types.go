package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Balances struct {
	Native *big.Int
	Tokens map[common.Address]*big.Int
}

type TokenInfo struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
}
