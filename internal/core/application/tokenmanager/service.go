package tokenmanager

import (
	"context"
	"fmt"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Service is the token allow-list contract deployed at a given address.
type Service struct {
	exec        *executor.Executor
	repoManager ports.RepoManager
	address     common.Address
}

// NewService binds to the token manager already deployed at address.
func NewService(
	exec *executor.Executor, repoManager ports.RepoManager,
	address common.Address,
) (*Service, error) {
	if exec == nil {
		return nil, fmt.Errorf("missing executor")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("missing token manager address")
	}
	return &Service{exec, repoManager, address}, nil
}

// Deploy creates an empty allow-list owned by owner at address.
func Deploy(
	ctx context.Context,
	exec *executor.Executor, repoManager ports.RepoManager,
	address, owner common.Address,
) (*Service, error) {
	svc, err := NewService(exec, repoManager, address)
	if err != nil {
		return nil, err
	}

	if err := exec.Call(
		ctx, executor.TxOpts{From: owner}, address, false,
		func(ctx context.Context) error {
			manager, err := domain.NewTokenManager(address, owner)
			if err != nil {
				return err
			}
			if err := repoManager.TokenManagerRepository().AddTokenManager(
				ctx, manager,
			); err != nil {
				return err
			}
			exec.Emit(ctx, address, domain.OwnershipTransferred{NewOwner: owner})
			return nil
		},
	); err != nil {
		return nil, err
	}

	log.Infof("token manager deployed at %s", address.Hex())
	return svc, nil
}

func (s *Service) Address() common.Address {
	return s.address
}

// AddToken makes token tradable when the order book restricts tokens.
func (s *Service) AddToken(
	ctx context.Context, opts executor.TxOpts, token common.Address,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		if err := s.repoManager.TokenManagerRepository().UpdateTokenManager(
			ctx, s.address,
			func(m *domain.TokenManager) (*domain.TokenManager, error) {
				if err := m.AddToken(opts.From, token); err != nil {
					return nil, err
				}
				return m, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.TokenAdded{Token: token})
		return nil
	})
}

func (s *Service) RemoveToken(
	ctx context.Context, opts executor.TxOpts, token common.Address,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		if err := s.repoManager.TokenManagerRepository().UpdateTokenManager(
			ctx, s.address,
			func(m *domain.TokenManager) (*domain.TokenManager, error) {
				if err := m.RemoveToken(opts.From, token); err != nil {
					return nil, err
				}
				return m, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.TokenRemoved{Token: token})
		return nil
	})
}

func (s *Service) TransferOwnership(
	ctx context.Context, opts executor.TxOpts, newOwner common.Address,
) error {
	return s.exec.Call(ctx, opts, s.address, false, func(ctx context.Context) error {
		var prev common.Address
		if err := s.repoManager.TokenManagerRepository().UpdateTokenManager(
			ctx, s.address,
			func(m *domain.TokenManager) (*domain.TokenManager, error) {
				var err error
				if prev, err = m.TransferOwnership(opts.From, newOwner); err != nil {
					return nil, err
				}
				return m, nil
			},
		); err != nil {
			return err
		}
		s.exec.Emit(ctx, s.address, domain.OwnershipTransferred{
			PreviousOwner: prev, NewOwner: newOwner,
		})
		return nil
	})
}

// IsTokenSupported tells whether token is in the allow-list. The native
// sentinel is never in it.
func (s *Service) IsTokenSupported(
	ctx context.Context, token common.Address,
) (bool, error) {
	var supported bool
	err := s.exec.View(ctx, func(ctx context.Context) error {
		manager, err := s.repoManager.TokenManagerRepository().GetTokenManager(
			ctx, s.address,
		)
		if err != nil {
			return err
		}
		supported = manager.IsTokenSupported(token)
		return nil
	})
	return supported, err
}

// Info returns the current state of the contract.
func (s *Service) Info(ctx context.Context) (*domain.TokenManager, error) {
	var manager *domain.TokenManager
	err := s.exec.View(ctx, func(ctx context.Context) error {
		var err error
		manager, err = s.repoManager.TokenManagerRepository().GetTokenManager(
			ctx, s.address,
		)
		return err
	})
	return manager, err
}
