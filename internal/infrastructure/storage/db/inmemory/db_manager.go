package inmemory

import (
	"context"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
)

type RepoManager struct {
	store *store

	orderRepository        domain.OrderRepository
	orderBookRepository    domain.OrderBookRepository
	tokenManagerRepository domain.TokenManagerRepository
	balanceRepository      balanceRepositoryImpl
}

func NewRepoManager() ports.RepoManager {
	store := newStore()

	return &RepoManager{
		store:                  store,
		orderRepository:        NewOrderRepositoryImpl(store),
		orderBookRepository:    NewOrderBookRepositoryImpl(store),
		tokenManagerRepository: NewTokenManagerRepositoryImpl(store),
		balanceRepository:      balanceRepositoryImpl{store},
	}
}

func (d *RepoManager) OrderRepository() domain.OrderRepository {
	return d.orderRepository
}

func (d *RepoManager) OrderBookRepository() domain.OrderBookRepository {
	return d.orderBookRepository
}

func (d *RepoManager) TokenManagerRepository() domain.TokenManagerRepository {
	return d.tokenManagerRepository
}

func (d *RepoManager) BalanceRepository() domain.BalanceRepository {
	return d.balanceRepository
}

func (d *RepoManager) AllowanceRepository() domain.AllowanceRepository {
	return d.balanceRepository
}

func (d *RepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	return d.store.runTransaction(ctx, readOnly, handler)
}

func (d *RepoManager) Close() {}
