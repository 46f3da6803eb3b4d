package inmemory

import (
	"context"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
)

type OrderBookRepositoryImpl struct {
	store *store
}

func NewOrderBookRepositoryImpl(store *store) domain.OrderBookRepository {
	return OrderBookRepositoryImpl{store}
}

func (r OrderBookRepositoryImpl) AddOrderBook(
	ctx context.Context, book *domain.OrderBook,
) error {
	if book == nil {
		return ErrContractInvalidRequest
	}
	key := orderBookKey(book.Address)
	if _, ok := r.store.get(ctx, key); ok {
		return domain.ErrContractExists
	}
	return r.store.put(ctx, key, *book)
}

func (r OrderBookRepositoryImpl) GetOrderBook(
	ctx context.Context, address common.Address,
) (*domain.OrderBook, error) {
	v, ok := r.store.get(ctx, orderBookKey(address))
	if !ok {
		return nil, domain.ErrOrderBookNotFound
	}
	book := v.(domain.OrderBook)
	return &book, nil
}

func (r OrderBookRepositoryImpl) UpdateOrderBook(
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

	return r.store.put(ctx, orderBookKey(address), *updatedBook)
}

type TokenManagerRepositoryImpl struct {
	store *store
}

func NewTokenManagerRepositoryImpl(store *store) domain.TokenManagerRepository {
	return TokenManagerRepositoryImpl{store}
}

func (r TokenManagerRepositoryImpl) AddTokenManager(
	ctx context.Context, manager *domain.TokenManager,
) error {
	if manager == nil {
		return ErrContractInvalidRequest
	}
	key := tokenManagerKey(manager.Address)
	if _, ok := r.store.get(ctx, key); ok {
		return domain.ErrContractExists
	}
	return r.store.put(ctx, key, manager.Clone())
}

func (r TokenManagerRepositoryImpl) GetTokenManager(
	ctx context.Context, address common.Address,
) (*domain.TokenManager, error) {
	v, ok := r.store.get(ctx, tokenManagerKey(address))
	if !ok {
		return nil, domain.ErrTokenManagerNotFound
	}
	manager := v.(domain.TokenManager).Clone()
	return &manager, nil
}

func (r TokenManagerRepositoryImpl) UpdateTokenManager(
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

	return r.store.put(ctx, tokenManagerKey(address), updatedManager.Clone())
}

func orderBookKey(address common.Address) string {
	return "orderbook/" + address.Hex()
}

func tokenManagerKey(address common.Address) string {
	return "tokenmanager/" + address.Hex()
}
