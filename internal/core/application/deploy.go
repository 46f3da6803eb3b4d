package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/orderbook"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/tokenmanager"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/trade"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

// Deployment nonces of the deployer account. Token contracts follow, one
// per configured token.
const (
	TokenManagerNonce uint64 = iota
	OrderBookNonce
	TradeNonce
	FirstTokenNonce
)

// ContractAddress returns the address of the contract deployed by deployer
// with the given nonce.
func ContractAddress(deployer common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(deployer, nonce)
}

// Exchange groups the three contracts of a deployment.
type Exchange struct {
	TokenManager *tokenmanager.Service
	OrderBook    *orderbook.Service
	Trade        *trade.Service
}

// Deploy brings up the exchange contracts owned by owner. Contracts whose
// state is already persisted are loaded rather than deployed again, so
// restarting on the same datadir yields the same exchange.
func Deploy(
	ctx context.Context,
	exec *executor.Executor, repoManager ports.RepoManager,
	ledger ports.Ledger, tokens ports.TokenProvider,
	owner common.Address,
) (*Exchange, error) {
	if owner == (common.Address{}) {
		return nil, domain.ErrInvalidOwner
	}

	tokenManagerAddr := ContractAddress(owner, TokenManagerNonce)
	orderBookAddr := ContractAddress(owner, OrderBookNonce)
	tradeAddr := ContractAddress(owner, TradeNonce)

	tokenManagerSvc, err := loadOrDeployTokenManager(
		ctx, exec, repoManager, tokenManagerAddr, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	orderBookSvc, err := loadOrDeployOrderBook(
		ctx, exec, repoManager, ledger, tokens, tokenManagerSvc, orderBookAddr, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("order book: %w", err)
	}

	tradeSvc, err := trade.NewService(exec, ledger, tokens, orderBookSvc, tradeAddr)
	if err != nil {
		return nil, fmt.Errorf("trade: %w", err)
	}

	book, err := orderBookSvc.Info(ctx)
	if err != nil {
		return nil, err
	}
	if book.TradeContract != tradeAddr {
		if book.Owner != owner {
			log.Warnf(
				"order book is owned by %s, trade contract left to %s",
				book.Owner.Hex(), book.TradeContract.Hex(),
			)
		} else if err := orderBookSvc.SetTradeContract(
			ctx, executor.TxOpts{From: owner}, tradeAddr,
		); err != nil {
			return nil, fmt.Errorf("set trade contract: %w", err)
		}
	}

	return &Exchange{tokenManagerSvc, orderBookSvc, tradeSvc}, nil
}

func loadOrDeployTokenManager(
	ctx context.Context,
	exec *executor.Executor, repoManager ports.RepoManager,
	address, owner common.Address,
) (*tokenmanager.Service, error) {
	_, err := repoManager.TokenManagerRepository().GetTokenManager(ctx, address)
	if err == nil {
		log.Debugf("loading token manager at %s", address.Hex())
		return tokenmanager.NewService(exec, repoManager, address)
	}
	if !errors.Is(err, domain.ErrTokenManagerNotFound) {
		return nil, err
	}
	return tokenmanager.Deploy(ctx, exec, repoManager, address, owner)
}

func loadOrDeployOrderBook(
	ctx context.Context,
	exec *executor.Executor, repoManager ports.RepoManager,
	ledger ports.Ledger, tokens ports.TokenProvider,
	tokenManager orderbook.TokenAllowList, address, owner common.Address,
) (*orderbook.Service, error) {
	_, err := repoManager.OrderBookRepository().GetOrderBook(ctx, address)
	if err == nil {
		log.Debugf("loading order book at %s", address.Hex())
		return orderbook.NewService(
			exec, repoManager, ledger, tokens, tokenManager, address,
		)
	}
	if !errors.Is(err, domain.ErrOrderBookNotFound) {
		return nil, err
	}
	return orderbook.Deploy(
		ctx, exec, repoManager, ledger, tokens, tokenManager, address, owner,
	)
}
