package ports

import (
	"context"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
)

// RepoManager interface defines the methods for orders, contract state and
// account balances.
type RepoManager interface {
	OrderRepository() domain.OrderRepository
	OrderBookRepository() domain.OrderBookRepository
	TokenManagerRepository() domain.TokenManagerRepository
	BalanceRepository() domain.BalanceRepository
	AllowanceRepository() domain.AllowanceRepository

	Close()

	// RunTransaction runs the handler within a transaction. Every repository
	// call made with the context passed to the handler joins it. A nested
	// write RunTransaction call acts as a savepoint: its writes are discarded
	// if its handler fails, while the enclosing transaction goes on. The
	// outermost transaction is committed only if the handler returns no error.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)
}
