package orderbook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
)

// takeCustody pulls the sell leg of a new order into the order book. Native
// value has already been credited by the executor and only needs to match.
func (s *Service) takeCustody(
	ctx context.Context, opts executor.TxOpts, asset domain.Asset, amount *big.Int,
) error {
	value := opts.Amount()
	if asset.IsNative() {
		if value.Cmp(amount) != 0 {
			return domain.ErrIncorrectETHAmount
		}
		return nil
	}

	if value.Sign() > 0 {
		return domain.ErrETHSentWithERC20
	}

	token, err := s.tokens.Token(asset.Address())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenTransferFailed, err)
	}
	allowance, err := token.Allowance(ctx, opts.From, s.address)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	if err := token.TransferFrom(
		ctx, s.address, opts.From, s.address, amount,
	); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenTransferFailed, err)
	}
	return nil
}

// releaseCustody sends amount of asset held by the order book to recipient.
func (s *Service) releaseCustody(
	ctx context.Context, asset domain.Asset, recipient common.Address, amount *big.Int,
) error {
	if asset.IsNative() {
		if err := s.ledger.Transfer(ctx, s.address, recipient, amount); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrETHReturnFailed, err)
		}
		return nil
	}

	token, err := s.tokens.Token(asset.Address())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenTransferFailed, err)
	}
	if err := token.Transfer(ctx, s.address, recipient, amount); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenTransferFailed, err)
	}
	return nil
}
