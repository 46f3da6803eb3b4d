package orderbook

import (
	"context"
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
)

// GetOrder returns the order with the given id. Ids that were never
// assigned yield an empty order instead of an error.
func (s *Service) GetOrder(ctx context.Context, id uint64) (domain.Order, error) {
	order := domain.EmptyOrder()
	err := s.exec.View(ctx, func(ctx context.Context) error {
		book, err := s.getOrderBook(ctx)
		if err != nil {
			return err
		}
		if !book.OrderExists(id) {
			return nil
		}
		o, err := s.repoManager.OrderRepository().GetOrder(ctx, id)
		if err != nil {
			return err
		}
		order = *o
		return nil
	})
	return order, err
}

func (s *Service) IsOrderActive(ctx context.Context, id uint64) (bool, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return false, err
	}
	return order.ID != 0 && order.IsActive(), nil
}

// ListOrders returns the orders matching filter sorted by id.
func (s *Service) ListOrders(
	ctx context.Context, filter domain.OrderFilter,
) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.exec.View(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.repoManager.OrderRepository().GetOrders(ctx, filter)
		return err
	})
	return orders, err
}

// OrderCounter returns the id of the last created order.
func (s *Service) OrderCounter(ctx context.Context) (uint64, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.OrderCounter, nil
}

// Info returns the configuration of the contract.
func (s *Service) Info(ctx context.Context) (*domain.OrderBook, error) {
	var book *domain.OrderBook
	err := s.exec.View(ctx, func(ctx context.Context) error {
		var err error
		book, err = s.getOrderBook(ctx)
		return err
	})
	return book, err
}

// GetEthBalance returns the native currency held by the order book.
func (s *Service) GetEthBalance(ctx context.Context) (*big.Int, error) {
	var balance *big.Int
	err := s.exec.View(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.ledger.BalanceOf(ctx, s.address)
		return err
	})
	return balance, err
}
