package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a fungible token contract. The caller, spender and owner
// arguments play the role of the message sender.
type Token interface {
	Address() common.Address
	Symbol() string
	Decimals() uint8
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error
	Transfer(ctx context.Context, caller, to common.Address, amount *big.Int) error
	TransferFrom(
		ctx context.Context, spender, from, to common.Address, amount *big.Int,
	) error
}

// TokenProvider resolves token contracts by address.
type TokenProvider interface {
	// Token returns domain.ErrTokenNotFound for unknown addresses.
	Token(address common.Address) (Token, error)
	Tokens() []Token
}
