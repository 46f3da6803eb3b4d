package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Receiver is notified whenever an account receives native currency. It may
// reject the transfer by returning an error, or call back into any contract.
type Receiver interface {
	Receive(ctx context.Context, from common.Address, amount *big.Int) error
}

// ReceiverFunc adapts a plain function to a Receiver.
type ReceiverFunc func(ctx context.Context, from common.Address, amount *big.Int) error

func (f ReceiverFunc) Receive(
	ctx context.Context, from common.Address, amount *big.Int,
) error {
	return f(ctx, from, amount)
}

// Ledger holds the native currency balances of all accounts.
type Ledger interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	// Transfer moves amount from one account to another and then notifies
	// the receiver of the recipient, if any.
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	// Mint credits newly created native currency to an account.
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
	RegisterReceiver(account common.Address, receiver Receiver)
}
