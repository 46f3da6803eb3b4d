package dbbadger

import (
	"context"
	"errors"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/timshannon/badgerhold/v4"
)

type orderBookRepositoryImpl struct {
	store *badgerhold.Store
}

func NewOrderBookRepositoryImpl(store *badgerhold.Store) domain.OrderBookRepository {
	return orderBookRepositoryImpl{store}
}

func (r orderBookRepositoryImpl) AddOrderBook(
	ctx context.Context, book *domain.OrderBook,
) error {
	if book == nil {
		return ErrContractInvalidRequest
	}

	record := MapDomainOrderBookToInfraOrderBook(*book)
	err := write[OrderBook](ctx, r.store, record.Address, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, record.Address, record)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrContractExists
	}
	return err
}

func (r orderBookRepositoryImpl) GetOrderBook(
	ctx context.Context, address common.Address,
) (*domain.OrderBook, error) {
	var record OrderBook
	err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxGet(tx, address.Hex(), &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrOrderBookNotFound
		}
		return nil, err
	}
	return MapInfraOrderBookToDomainOrderBook(record), nil
}

func (r orderBookRepositoryImpl) UpdateOrderBook(
	ctx context.Context,
	address common.Address,
	updateFn func(b *domain.OrderBook) (*domain.OrderBook, error),
) error {
	book, err := r.GetOrderBook(ctx, address)
	if err != nil {
		return err
	}

	updatedBook, err := updateFn(book)
	if err != nil {
		return err
	}

	record := MapDomainOrderBookToInfraOrderBook(*updatedBook)
	return write[OrderBook](ctx, r.store, address.Hex(), func(tx *badger.Txn) error {
		return r.store.TxUpdate(tx, address.Hex(), record)
	})
}

type tokenManagerRepositoryImpl struct {
	store *badgerhold.Store
}

func NewTokenManagerRepositoryImpl(store *badgerhold.Store) domain.TokenManagerRepository {
	return tokenManagerRepositoryImpl{store}
}

func (r tokenManagerRepositoryImpl) AddTokenManager(
	ctx context.Context, manager *domain.TokenManager,
) error {
	if manager == nil {
		return ErrContractInvalidRequest
	}

	record := MapDomainTokenManagerToInfraTokenManager(*manager)
	err := write[TokenManager](ctx, r.store, record.Address, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, record.Address, record)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrContractExists
	}
	return err
}

func (r tokenManagerRepositoryImpl) GetTokenManager(
	ctx context.Context, address common.Address,
) (*domain.TokenManager, error) {
	var record TokenManager
	err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxGet(tx, address.Hex(), &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTokenManagerNotFound
		}
		return nil, err
	}
	return MapInfraTokenManagerToDomainTokenManager(record), nil
}

func (r tokenManagerRepositoryImpl) UpdateTokenManager(
	ctx context.Context,
	address common.Address,
	updateFn func(m *domain.TokenManager) (*domain.TokenManager, error),
) error {
	manager, err := r.GetTokenManager(ctx, address)
	if err != nil {
		return err
	}

	updatedManager, err := updateFn(manager)
	if err != nil {
		return err
	}

	record := MapDomainTokenManagerToInfraTokenManager(*updatedManager)
	return write[TokenManager](ctx, r.store, address.Hex(), func(tx *badger.Txn) error {
		return r.store.TxUpdate(tx, address.Hex(), record)
	})
}
