// Package erc20 implements fungible token contracts whose balances live in
// the same repositories as the rest of the exchange state, so that token
// movements commit or revert together with the calls that make them.
package erc20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
)

const DefaultDecimals = 18

var (
	ErrInvalidRecipient = domain.NewError(
		"InvalidRecipient", domain.ErrClassValidation, "recipient must not be the zero address",
	)
	ErrInvalidAmount = domain.NewError(
		"InvalidAmount", domain.ErrClassValidation, "amount must not be negative",
	)
)

// Token is a mintable ERC20-like token.
type Token struct {
	address  common.Address
	name     string
	symbol   string
	decimals uint8
	owner    common.Address

	repoManager ports.RepoManager
}

func NewToken(
	repoManager ports.RepoManager,
	address common.Address, name, symbol string, decimals uint8,
	owner common.Address,
) (*Token, error) {
	if address == (common.Address{}) {
		return nil, domain.ErrInvalidTokenAddress
	}
	if owner == (common.Address{}) {
		return nil, domain.ErrInvalidOwner
	}
	return &Token{
		address:     address,
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		owner:       owner,
		repoManager: repoManager,
	}, nil
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }
func (t *Token) Decimals() uint8         { return t.decimals }
func (t *Token) Owner() common.Address   { return t.owner }

func (t *Token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	return t.repoManager.BalanceRepository().GetBalance(ctx, t.address, holder)
}

// Allowance returns how much spender can still move on behalf of owner.
func (t *Token) Allowance(
	ctx context.Context, owner, spender common.Address,
) (*big.Int, error) {
	return t.repoManager.AllowanceRepository().GetAllowance(
		ctx, t.address, owner, spender,
	)
}

func (t *Token) Approve(
	ctx context.Context, owner, spender common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if spender == (common.Address{}) {
		return ErrInvalidRecipient
	}
	return t.repoManager.AllowanceRepository().SetAllowance(
		ctx, t.address, owner, spender, amount,
	)
}

func (t *Token) Transfer(
	ctx context.Context, caller, to common.Address, amount *big.Int,
) error {
	return t.runTransaction(ctx, func(ctx context.Context) error {
		return t.move(ctx, caller, to, amount)
	})
}

// TransferFrom moves amount from one holder to another on behalf of spender,
// consuming its allowance.
func (t *Token) TransferFrom(
	ctx context.Context, spender, from, to common.Address, amount *big.Int,
) error {
	return t.runTransaction(ctx, func(ctx context.Context) error {
		allowances := t.repoManager.AllowanceRepository()
		allowance, err := allowances.GetAllowance(ctx, t.address, from, spender)
		if err != nil {
			return err
		}
		if amount != nil && allowance.Cmp(amount) < 0 {
			return fmt.Errorf(
				"%w: %s allowed %s, needs %s",
				domain.ErrInsufficientAllowance, spender.Hex(), allowance, amount,
			)
		}
		if err := t.move(ctx, from, to, amount); err != nil {
			return err
		}
		return allowances.SetAllowance(
			ctx, t.address, from, spender, allowance.Sub(allowance, amount),
		)
	})
}

// Mint creates new tokens. Only the token owner can mint.
func (t *Token) Mint(
	ctx context.Context, caller, to common.Address, amount *big.Int,
) error {
	if caller != t.owner {
		return domain.ErrUnauthorizedAccount
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return t.runTransaction(ctx, func(ctx context.Context) error {
		balances := t.repoManager.BalanceRepository()
		balance, err := balances.GetBalance(ctx, t.address, to)
		if err != nil {
			return err
		}
		return balances.SetBalance(ctx, t.address, to, balance.Add(balance, amount))
	})
}

func (t *Token) move(
	ctx context.Context, from, to common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}

	balances := t.repoManager.BalanceRepository()
	fromBalance, err := balances.GetBalance(ctx, t.address, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: %s holds %s %s, needs %s",
			domain.ErrInsufficientBalance, from.Hex(), fromBalance, t.symbol, amount,
		)
	}
	if from == to {
		return nil
	}

	if err := balances.SetBalance(
		ctx, t.address, from, fromBalance.Sub(fromBalance, amount),
	); err != nil {
		return err
	}
	toBalance, err := balances.GetBalance(ctx, t.address, to)
	if err != nil {
		return err
	}
	return balances.SetBalance(ctx, t.address, to, toBalance.Add(toBalance, amount))
}

func (t *Token) runTransaction(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	_, err := t.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx)
		},
	)
	return err
}
