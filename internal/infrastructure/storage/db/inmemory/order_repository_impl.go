package inmemory

import (
	"context"
	"fmt"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
)

const orderPrefix = "order/"

// OrderRepositoryImpl represents an in memory storage
type OrderRepositoryImpl struct {
	store *store
}

func NewOrderRepositoryImpl(store *store) domain.OrderRepository {
	return OrderRepositoryImpl{store}
}

func (r OrderRepositoryImpl) AddOrder(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return ErrOrderInvalidRequest
	}
	key := orderKey(order.ID)
	if _, ok := r.store.get(ctx, key); ok {
		return domain.ErrOrderAlreadyExists
	}
	return r.store.put(ctx, key, order.Clone())
}

func (r OrderRepositoryImpl) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	v, ok := r.store.get(ctx, orderKey(id))
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order := v.(domain.Order).Clone()
	return &order, nil
}

func (r OrderRepositoryImpl) GetOrders(
	ctx context.Context, filter domain.OrderFilter,
) ([]domain.Order, error) {
	orders := make([]domain.Order, 0)
	for _, v := range r.store.scan(ctx, orderPrefix) {
		order := v.(domain.Order)
		if filter.Match(order) {
			orders = append(orders, order.Clone())
		}
	}
	return orders, nil
}

func (r OrderRepositoryImpl) UpdateOrder(
	ctx context.Context,
	id uint64,
	updateFn func(o *domain.Order) (*domain.Order, error),
) error {
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	updatedOrder, err := updateFn(order)
	if err != nil {
		return err
	}
	if updatedOrder.ID != id {
		return ErrOrderInvalidRequest
	}

	return r.store.put(ctx, orderKey(id), updatedOrder.Clone())
}

// Ids are zero padded so that lexicographic key order is numeric order.
func orderKey(id uint64) string {
	return fmt.Sprintf("%s%020d", orderPrefix, id)
}
