package orderbook

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

// TokenAllowList is the token manager as seen by the order book.
type TokenAllowList interface {
	Address() common.Address
	IsTokenSupported(ctx context.Context, token common.Address) (bool, error)
}

// Service is the order book contract. It owns the order lifecycle and holds
// in custody the sell amount of every active order.
type Service struct {
	exec         *executor.Executor
	repoManager  ports.RepoManager
	ledger       ports.Ledger
	tokens       ports.TokenProvider
	tokenManager TokenAllowList
	address      common.Address
}

// NewService binds to the order book already deployed at address.
func NewService(
	exec *executor.Executor, repoManager ports.RepoManager,
	ledger ports.Ledger, tokens ports.TokenProvider,
	tokenManager TokenAllowList, address common.Address,
) (*Service, error) {
	if exec == nil {
		return nil, fmt.Errorf("missing executor")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if ledger == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token provider")
	}
	if tokenManager == nil || tokenManager.Address() == (common.Address{}) {
		return nil, domain.ErrInvalidTokenManager
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("missing order book address")
	}

	svc := &Service{exec, repoManager, ledger, tokens, tokenManager, address}
	// Native currency sent to the order book is accepted and stays there.
	ledger.RegisterReceiver(address, svc)
	return svc, nil
}

// Deploy creates the order book at address, owned by owner and bound to the
// given token manager. Token restriction starts disabled.
func Deploy(
	ctx context.Context,
	exec *executor.Executor, repoManager ports.RepoManager,
	ledger ports.Ledger, tokens ports.TokenProvider,
	tokenManager TokenAllowList, address, owner common.Address,
) (*Service, error) {
	svc, err := NewService(exec, repoManager, ledger, tokens, tokenManager, address)
	if err != nil {
		return nil, err
	}

	if err := exec.Call(
		ctx, executor.TxOpts{From: owner}, address, false,
		func(ctx context.Context) error {
			book, err := domain.NewOrderBook(address, owner, tokenManager.Address())
			if err != nil {
				return err
			}
			if err := repoManager.OrderBookRepository().AddOrderBook(
				ctx, book,
			); err != nil {
				return err
			}
			exec.Emit(ctx, address, domain.OwnershipTransferred{NewOwner: owner})
			return nil
		},
	); err != nil {
		return nil, err
	}

	log.Infof("order book deployed at %s", address.Hex())
	return svc, nil
}

func (s *Service) Address() common.Address {
	return s.address
}

// Receive accepts plain native transfers.
func (s *Service) Receive(_ context.Context, from common.Address, amount *big.Int) error {
	log.Debugf("order book received %s native from %s", amount, from.Hex())
	return nil
}

// CreateOrder takes custody of sellAmount of tokenToSell from the caller and
// lists a new active order. The zero address stands for the native
// currency, in which case the attached value must match sellAmount.
func (s *Service) CreateOrder(
	ctx context.Context, opts executor.TxOpts,
	tokenToSell, tokenToBuy common.Address, sellAmount, buyAmount *big.Int,
) (uint64, error) {
	var id uint64
	err := s.exec.Call(ctx, opts, s.address, true, func(ctx context.Context) error {
		sell := domain.AssetFromAddress(tokenToSell)
		buy := domain.AssetFromAddress(tokenToBuy)
		if err := domain.ValidateOrderTerms(sell, buy, sellAmount, buyAmount); err != nil {
			return err
		}

		book, err := s.getOrderBook(ctx)
		if err != nil {
			return err
		}
		if book.RestrictTokens {
			for _, asset := range []domain.Asset{sell, buy} {
				if err := s.checkTokenSupported(ctx, asset); err != nil {
					return err
				}
			}
		}

		if err := s.takeCustody(ctx, opts, sell, sellAmount); err != nil {
			return err
		}

		if err := s.repoManager.OrderBookRepository().UpdateOrderBook(
			ctx, s.address,
			func(b *domain.OrderBook) (*domain.OrderBook, error) {
				id = b.NextOrderID()
				return b, nil
			},
		); err != nil {
			return err
		}

		order, err := domain.NewOrder(id, opts.From, sell, buy, sellAmount, buyAmount)
		if err != nil {
			return err
		}
		if err := s.repoManager.OrderRepository().AddOrder(ctx, order); err != nil {
			return err
		}

		s.exec.Emit(ctx, s.address, domain.OrderCreated{
			OrderID:     id,
			Creator:     opts.From,
			TokenToSell: sell.Address(),
			TokenToBuy:  buy.Address(),
			SellAmount:  new(big.Int).Set(sellAmount),
			BuyAmount:   new(big.Int).Set(buyAmount),
			Timestamp:   executor.BlockTime(ctx).Unix(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CancelOrder refunds the custody of an active order to its creator.
func (s *Service) CancelOrder(
	ctx context.Context, opts executor.TxOpts, id uint64,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		if err := s.checkOrderExists(ctx, id); err != nil {
			return err
		}

		var refund *big.Int
		var asset domain.Asset
		if err := s.repoManager.OrderRepository().UpdateOrder(
			ctx, id, func(o *domain.Order) (*domain.Order, error) {
				var err error
				if refund, err = o.Cancel(opts.From); err != nil {
					return nil, err
				}
				asset = o.TokenToSell
				return o, nil
			},
		); err != nil {
			return err
		}

		if err := s.releaseCustody(ctx, asset, opts.From, refund); err != nil {
			return err
		}

		s.exec.Emit(ctx, s.address, domain.OrderCancelled{
			OrderID:   id,
			Creator:   opts.From,
			Timestamp: executor.BlockTime(ctx).Unix(),
		})
		return nil
	})
}

// MoveTokensToTradeContract hands the custody of an active order over to
// the trade contract and marks the order as pending. Only the trade
// contract can call it.
func (s *Service) MoveTokensToTradeContract(
	ctx context.Context, opts executor.TxOpts, id uint64,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		book, err := s.getOrderBook(ctx)
		if err != nil {
			return err
		}
		if err := book.OnlyTradeContract(opts.From); err != nil {
			return err
		}
		if !book.OrderExists(id) {
			return domain.ErrOrderDoesNotExist
		}

		var amount *big.Int
		var asset domain.Asset
		if err := s.repoManager.OrderRepository().UpdateOrder(
			ctx, id, func(o *domain.Order) (*domain.Order, error) {
				var err error
				if amount, err = o.StartSettlement(); err != nil {
					return nil, err
				}
				asset = o.TokenToSell
				return o, nil
			},
		); err != nil {
			return err
		}

		return s.releaseCustody(ctx, asset, book.TradeContract, amount)
	})
}

// DeactivateOrder completes a pending order. Only the trade contract can
// call it.
func (s *Service) DeactivateOrder(
	ctx context.Context, opts executor.TxOpts, id uint64,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		book, err := s.getOrderBook(ctx)
		if err != nil {
			return err
		}
		if err := book.OnlyTradeContract(opts.From); err != nil {
			return err
		}
		if !book.OrderExists(id) {
			return domain.ErrOrderDoesNotExist
		}

		if err := s.repoManager.OrderRepository().UpdateOrder(
			ctx, id, func(o *domain.Order) (*domain.Order, error) {
				if err := o.Complete(); err != nil {
					return nil, err
				}
				return o, nil
			},
		); err != nil {
			return err
		}

		s.exec.Emit(ctx, s.address, domain.OrderExecuted{
			OrderID:   id,
			Timestamp: executor.BlockTime(ctx).Unix(),
		})
		return nil
	})
}

func (s *Service) SetTradeContract(
	ctx context.Context, opts executor.TxOpts, trade common.Address,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		var prev common.Address
		if err := s.repoManager.OrderBookRepository().UpdateOrderBook(
			ctx, s.address,
			func(b *domain.OrderBook) (*domain.OrderBook, error) {
				var err error
				if prev, err = b.SetTradeContract(opts.From, trade); err != nil {
					return nil, err
				}
				return b, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.TradeContractUpdated{
			Previous: prev, Current: trade,
		})
		return nil
	})
}

func (s *Service) ToggleTokenRestriction(
	ctx context.Context, opts executor.TxOpts, enabled bool,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		if err := s.repoManager.OrderBookRepository().UpdateOrderBook(
			ctx, s.address,
			func(b *domain.OrderBook) (*domain.OrderBook, error) {
				if err := b.ToggleTokenRestriction(opts.From, enabled); err != nil {
					return nil, err
				}
				return b, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.TokenRestrictionToggled{Enabled: enabled})
		return nil
	})
}

func (s *Service) TransferOwnership(
	ctx context.Context, opts executor.TxOpts, newOwner common.Address,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		var prev common.Address
		if err := s.repoManager.OrderBookRepository().UpdateOrderBook(
			ctx, s.address,
			func(b *domain.OrderBook) (*domain.OrderBook, error) {
				var err error
				if prev, err = b.TransferOwnership(opts.From, newOwner); err != nil {
					return nil, err
				}
				return b, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.OwnershipTransferred{
			PreviousOwner: prev, NewOwner: newOwner,
		})
		return nil
	})
}

func (s *Service) checkOrderExists(ctx context.Context, id uint64) error {
	book, err := s.getOrderBook(ctx)
	if err != nil {
		return err
	}
	if !book.OrderExists(id) {
		return domain.ErrOrderDoesNotExist
	}
	return nil
}

func (s *Service) checkTokenSupported(ctx context.Context, asset domain.Asset) error {
	if asset.IsNative() {
		return nil
	}
	supported, err := s.tokenManager.IsTokenSupported(ctx, asset.Address())
	if err != nil {
		return err
	}
	if !supported {
		return fmt.Errorf("%w: %s", domain.ErrTokenNotSupported, asset)
	}
	return nil
}

func (s *Service) getOrderBook(ctx context.Context) (*domain.OrderBook, error) {
	return s.repoManager.OrderBookRepository().GetOrderBook(ctx, s.address)
}
