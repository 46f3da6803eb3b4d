// Package ledger keeps native currency balances on top of the balance
// repository.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

type ledger struct {
	repoManager ports.RepoManager

	lock      *sync.RWMutex
	receivers map[common.Address]ports.Receiver
}

func NewLedger(repoManager ports.RepoManager) ports.Ledger {
	return &ledger{
		repoManager: repoManager,
		lock:        &sync.RWMutex{},
		receivers:   make(map[common.Address]ports.Receiver),
	}
}

func (l *ledger) RegisterReceiver(account common.Address, receiver ports.Receiver) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if receiver == nil {
		delete(l.receivers, account)
		return
	}
	l.receivers[account] = receiver
}

func (l *ledger) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return l.repoManager.BalanceRepository().GetBalance(
		ctx, domain.NativeAddress, account,
	)
}

func (l *ledger) Transfer(
	ctx context.Context, from, to common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidValue
	}
	repo := l.repoManager.BalanceRepository()

	fromBalance, err := repo.GetBalance(ctx, domain.NativeAddress, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: %s has %s, needs %s",
			domain.ErrInsufficientBalance, from.Hex(), fromBalance, amount,
		)
	}

	if from != to {
		if err := repo.SetBalance(
			ctx, domain.NativeAddress, from, fromBalance.Sub(fromBalance, amount),
		); err != nil {
			return err
		}
		toBalance, err := repo.GetBalance(ctx, domain.NativeAddress, to)
		if err != nil {
			return err
		}
		if err := repo.SetBalance(
			ctx, domain.NativeAddress, to, toBalance.Add(toBalance, amount),
		); err != nil {
			return err
		}
	}

	if receiver := l.receiver(to); receiver != nil {
		if err := receiver.Receive(ctx, from, new(big.Int).Set(amount)); err != nil {
			log.WithError(err).Debugf("receiver %s rejected transfer", to.Hex())
			return err
		}
	}
	return nil
}

func (l *ledger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidValue
	}
	repo := l.repoManager.BalanceRepository()

	balance, err := repo.GetBalance(ctx, domain.NativeAddress, to)
	if err != nil {
		return err
	}
	return repo.SetBalance(ctx, domain.NativeAddress, to, balance.Add(balance, amount))
}

func (l *ledger) receiver(account common.Address) ports.Receiver {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.receivers[account]
}
