package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

var ErrTokenNotMintable = domain.NewError(
	"TokenNotMintable", domain.ErrClassValidation, "token does not support minting",
)

type mintableToken interface {
	Mint(ctx context.Context, caller, to common.Address, amount *big.Int) error
}

// Service gives accounts access to their native and token holdings.
type Service struct {
	exec   *executor.Executor
	ledger ports.Ledger
	tokens ports.TokenProvider
	// faucetOwner is the only account allowed to create native currency.
	faucetOwner common.Address
}

func NewService(
	exec *executor.Executor, ledger ports.Ledger, tokens ports.TokenProvider,
	faucetOwner common.Address,
) (*Service, error) {
	if exec == nil {
		return nil, fmt.Errorf("missing executor")
	}
	if ledger == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token provider")
	}
	if faucetOwner == (common.Address{}) {
		return nil, domain.ErrInvalidOwner
	}
	return &Service{exec, ledger, tokens, faucetOwner}, nil
}

// Balances returns the native balance of account and its balance of every
// known token, zero balances included.
func (s *Service) Balances(ctx context.Context, account common.Address) (*Balances, error) {
	balances := &Balances{Tokens: make(map[common.Address]*big.Int)}
	err := s.exec.View(ctx, func(ctx context.Context) error {
		native, err := s.ledger.BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		balances.Native = native

		for _, token := range s.tokens.Tokens() {
			balance, err := token.BalanceOf(ctx, account)
			if err != nil {
				return err
			}
			balances.Tokens[token.Address()] = balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// Tokens returns the token contracts known to the chain.
func (s *Service) Tokens() []TokenInfo {
	tokens := s.tokens.Tokens()
	infos := make([]TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		info := TokenInfo{
			Address:  t.Address(),
			Symbol:   t.Symbol(),
			Decimals: t.Decimals(),
		}
		if named, ok := t.(interface{ Name() string }); ok {
			info.Name = named.Name()
		}
		infos = append(infos, info)
	}
	return infos
}

// Send transfers native currency from opts.From to to.
func (s *Service) Send(
	ctx context.Context, opts executor.TxOpts, to common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmounts
	}
	return s.exec.Transfer(ctx, opts.From, to, amount)
}

// Faucet credits newly created native currency to an account.
func (s *Service) Faucet(
	ctx context.Context, opts executor.TxOpts, to common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmounts
	}
	return s.exec.Call(ctx, opts, to, false, func(ctx context.Context) error {
		if opts.From != s.faucetOwner {
			return domain.ErrUnauthorizedAccount
		}
		if err := s.ledger.Mint(ctx, to, amount); err != nil {
			return err
		}
		log.Debugf("faucet sent %s native to %s", amount, to.Hex())
		return nil
	})
}

func (s *Service) Approve(
	ctx context.Context, opts executor.TxOpts,
	tokenAddress, spender common.Address, amount *big.Int,
) error {
	token, err := s.tokens.Token(tokenAddress)
	if err != nil {
		return err
	}
	return s.exec.Call(ctx, opts, tokenAddress, false, func(ctx context.Context) error {
		return token.Approve(ctx, opts.From, spender, amount)
	})
}

func (s *Service) TransferToken(
	ctx context.Context, opts executor.TxOpts,
	tokenAddress, to common.Address, amount *big.Int,
) error {
	token, err := s.tokens.Token(tokenAddress)
	if err != nil {
		return err
	}
	return s.exec.Call(ctx, opts, tokenAddress, false, func(ctx context.Context) error {
		return token.Transfer(ctx, opts.From, to, amount)
	})
}

// MintToken mints tokens of contracts that support it. Only the token
// owner can mint.
func (s *Service) MintToken(
	ctx context.Context, opts executor.TxOpts,
	tokenAddress, to common.Address, amount *big.Int,
) error {
	token, err := s.tokens.Token(tokenAddress)
	if err != nil {
		return err
	}
	mintable, ok := token.(mintableToken)
	if !ok {
		return ErrTokenNotMintable
	}
	return s.exec.Call(ctx, opts, tokenAddress, false, func(ctx context.Context) error {
		return mintable.Mint(ctx, opts.From, to, amount)
	})
}
