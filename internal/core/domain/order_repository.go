package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// OrderFilter narrows down order listings. Nil fields match everything.
type OrderFilter struct {
	Status  *OrderStatus
	Creator *common.Address
}

// Match tells whether the order satisfies the filter.
func (f OrderFilter) Match(o Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.Creator != nil && o.Creator != *f.Creator {
		return false
	}
	return true
}

// OrderRepository is the abstraction for any kind of database intended to
// persist Orders.
type OrderRepository interface {
	// AddOrder stores a new order. It fails if the id is already taken.
	AddOrder(ctx context.Context, order *Order) error
	// GetOrder returns the order with the given id or ErrOrderNotFound.
	GetOrder(ctx context.Context, id uint64) (*Order, error)
	// GetOrders returns the orders matching the filter sorted by id.
	GetOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	// UpdateOrder updates the state of an order. The closure function let's
	// to commit multiple changes to a certain order in a transactional way.
	UpdateOrder(
		ctx context.Context,
		id uint64, updateFn func(o *Order) (*Order, error),
	) error
}

// OrderBookRepository persists the configuration of order book contracts.
type OrderBookRepository interface {
	AddOrderBook(ctx context.Context, book *OrderBook) error
	GetOrderBook(ctx context.Context, address common.Address) (*OrderBook, error)
	UpdateOrderBook(
		ctx context.Context,
		address common.Address, updateFn func(b *OrderBook) (*OrderBook, error),
	) error
}

// TokenManagerRepository persists token allow-lists.
type TokenManagerRepository interface {
	AddTokenManager(ctx context.Context, manager *TokenManager) error
	GetTokenManager(
		ctx context.Context, address common.Address,
	) (*TokenManager, error)
	UpdateTokenManager(
		ctx context.Context,
		address common.Address,
		updateFn func(m *TokenManager) (*TokenManager, error),
	) error
}
