package trade

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// OrderBook is the order book as seen by the settlement contract.
type OrderBook interface {
	Address() common.Address
	OrderCounter(ctx context.Context) (uint64, error)
	GetOrder(ctx context.Context, id uint64) (domain.Order, error)
	MoveTokensToTradeContract(ctx context.Context, opts executor.TxOpts, id uint64) error
	DeactivateOrder(ctx context.Context, opts executor.TxOpts, id uint64) error
}

// Service is the settlement contract. It fills active orders atomically:
// either both legs are delivered and the order completes, or nothing
// changes.
type Service struct {
	exec      *executor.Executor
	ledger    ports.Ledger
	tokens    ports.TokenProvider
	orderBook OrderBook
	address   common.Address

	// entered is set for the whole duration of a settlement.
	entered atomic.Bool
}

func NewService(
	exec *executor.Executor, ledger ports.Ledger, tokens ports.TokenProvider,
	orderBook OrderBook, address common.Address,
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
	if orderBook == nil || orderBook.Address() == (common.Address{}) {
		return nil, domain.ErrInvalidOrderBookAddress
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("missing trade contract address")
	}

	svc := &Service{
		exec:      exec,
		ledger:    ledger,
		tokens:    tokens,
		orderBook: orderBook,
		address:   address,
	}
	ledger.RegisterReceiver(address, svc)

	log.Infof(
		"trade contract at %s bound to order book %s",
		address.Hex(), orderBook.Address().Hex(),
	)
	return svc, nil
}

func (s *Service) Address() common.Address {
	return s.address
}

func (s *Service) OrderBookAddress() common.Address {
	return s.orderBook.Address()
}

// Receive accepts plain native transfers, including the custody released
// by the order book during settlement.
func (s *Service) Receive(_ context.Context, from common.Address, amount *big.Int) error {
	log.Debugf("trade contract received %s native from %s", amount, from.Hex())
	return nil
}

// ExecuteOrder fills the order with the given id on behalf of the caller.
// The caller pays the buy leg, either with the attached native value or
// from its token allowance to the trade contract, and receives the sell
// leg. Settlement cannot be re-entered while running.
func (s *Service) ExecuteOrder(
	ctx context.Context, opts executor.TxOpts, id uint64,
) error {
	return s.exec.Call(ctx, opts, s.address, true, func(ctx context.Context) error {
		if !s.entered.CompareAndSwap(false, true) {
			return domain.ErrReentrantCall
		}
		defer s.entered.Store(false)

		return s.executeOrder(ctx, opts, id)
	})
}

func (s *Service) executeOrder(
	ctx context.Context, opts executor.TxOpts, id uint64,
) error {
	counter, err := s.orderBook.OrderCounter(ctx)
	if err != nil {
		return err
	}
	if id == 0 || id > counter {
		return domain.ErrOrderDoesNotExist
	}

	order, err := s.orderBook.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if !order.IsActive() {
		return domain.ErrOrderNotActive
	}
	if opts.From == order.Creator {
		return domain.ErrCannotExecuteOwnOrder
	}

	if err := s.collectBuyLeg(ctx, opts, order); err != nil {
		return err
	}

	sellAmount := new(big.Int).Set(order.SellAmount)
	self := executor.TxOpts{From: s.address}
	if err := s.orderBook.MoveTokensToTradeContract(ctx, self, id); err != nil {
		return err
	}

	if err := s.payOut(
		ctx, order.TokenToSell, opts.From, sellAmount,
		domain.ErrETHTransferToExecutorFailed, domain.ErrTokenSellTransferFailed,
	); err != nil {
		return err
	}
	if err := s.payOut(
		ctx, order.TokenToBuy, order.Creator, order.BuyAmount,
		domain.ErrETHTransferToCreatorFailed, domain.ErrTokenBuyTransferFailed,
	); err != nil {
		return err
	}

	if err := s.orderBook.DeactivateOrder(ctx, self, id); err != nil {
		return err
	}

	s.exec.Emit(ctx, s.address, domain.TradeExecuted{
		OrderID:    id,
		Executor:   opts.From,
		Creator:    order.Creator,
		SellAmount: sellAmount,
		BuyAmount:  new(big.Int).Set(order.BuyAmount),
		Timestamp:  executor.BlockTime(ctx).Unix(),
	})
	return nil
}

// collectBuyLeg brings the executor's payment into the trade contract.
// Native payments were already credited by the executor and only need to
// match the order.
func (s *Service) collectBuyLeg(
	ctx context.Context, opts executor.TxOpts, order domain.Order,
) error {
	value := opts.Amount()
	if order.TokenToBuy.IsNative() {
		if value.Cmp(order.BuyAmount) != 0 {
			return domain.ErrIncorrectETHAmount
		}
		return nil
	}

	if value.Sign() > 0 {
		return domain.ErrETHSentWithERC20
	}

	token, err := s.tokens.Token(order.TokenToBuy.Address())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenBuyTransferFailed, err)
	}
	allowance, err := token.Allowance(ctx, opts.From, s.address)
	if err != nil {
		return err
	}
	if allowance.Cmp(order.BuyAmount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	if err := token.TransferFrom(
		ctx, s.address, opts.From, s.address, order.BuyAmount,
	); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenBuyTransferFailed, err)
	}
	return nil
}

func (s *Service) payOut(
	ctx context.Context, asset domain.Asset, to common.Address, amount *big.Int,
	errNative, errToken error,
) error {
	if asset.IsNative() {
		if err := s.ledger.Transfer(ctx, s.address, to, amount); err != nil {
			return fmt.Errorf("%w: %w", errNative, err)
		}
		return nil
	}

	token, err := s.tokens.Token(asset.Address())
	if err != nil {
		return fmt.Errorf("%w: %w", errToken, err)
	}
	if err := token.Transfer(ctx, s.address, to, amount); err != nil {
		return fmt.Errorf("%w: %w", errToken, err)
	}
	return nil
}

// GetEthBalance returns the native currency held by the trade contract. It
// is zero between settlements.
func (s *Service) GetEthBalance(ctx context.Context) (*big.Int, error) {
	var balance *big.Int
	err := s.exec.View(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.ledger.BalanceOf(ctx, s.address)
		return err
	})
	return balance, err
}
