package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

type orderRepositoryImpl struct {
	store *badgerhold.Store
}

// NewOrderRepositoryImpl initialize a badger implementation of the
// domain.OrderRepository
func NewOrderRepositoryImpl(store *badgerhold.Store) domain.OrderRepository {
	return orderRepositoryImpl{store}
}

func (r orderRepositoryImpl) AddOrder(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return ErrOrderInvalidRequest
	}

	record := MapDomainOrderToInfraOrder(*order)
	err := write[Order](ctx, r.store, order.ID, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, order.ID, record)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrOrderAlreadyExists
	}
	return err
}

func (r orderRepositoryImpl) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	var record Order
	err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxGet(tx, id, &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return MapInfraOrderToDomainOrder(record)
}

func (r orderRepositoryImpl) GetOrders(
	ctx context.Context, filter domain.OrderFilter,
) ([]domain.Order, error) {
	var query *badgerhold.Query
	if filter.Status != nil {
		query = badgerhold.Where("Status").Eq(uint8(*filter.Status))
	}
	if filter.Creator != nil {
		if query == nil {
			query = badgerhold.Where("Creator").Eq(filter.Creator.Hex())
		} else {
			query = query.And("Creator").Eq(filter.Creator.Hex())
		}
	}

	var records []Order
	if err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxFind(tx, &records, query)
	}); err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	orders := make([]domain.Order, 0, len(records))
	for _, record := range records {
		order, err := MapInfraOrderToDomainOrder(record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r orderRepositoryImpl) UpdateOrder(
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

	record := MapDomainOrderToInfraOrder(*updatedOrder)
	return write[Order](ctx, r.store, id, func(tx *badger.Txn) error {
		return r.store.TxUpdate(tx, id, record)
	})
}
