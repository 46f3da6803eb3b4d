package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceRepository keeps the holdings of every account per asset. Native
// currency balances are stored under NativeAddress.
type BalanceRepository interface {
	// GetBalance returns zero for unknown holders.
	GetBalance(
		ctx context.Context, asset, holder common.Address,
	) (*big.Int, error)
	SetBalance(
		ctx context.Context, asset, holder common.Address, amount *big.Int,
	) error
	// GetBalances returns all non-zero balances of holder by asset.
	GetBalances(
		ctx context.Context, holder common.Address,
	) (map[common.Address]*big.Int, error)
}

// AllowanceRepository keeps token spending approvals.
type AllowanceRepository interface {
	GetAllowance(
		ctx context.Context, token, owner, spender common.Address,
	) (*big.Int, error)
	SetAllowance(
		ctx context.Context, token, owner, spender common.Address, amount *big.Int,
	) error
}
