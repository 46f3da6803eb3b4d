package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/ledger"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/storage/db/inmemory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	ctx   = context.Background()
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

func TestTransfer(t *testing.T) {
	t.Parallel()

	l := ledger.NewLedger(inmemory.NewRepoManager())
	require.NoError(t, l.Mint(ctx, alice, big.NewInt(10)))

	err := l.Transfer(ctx, alice, bob, big.NewInt(11))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.ErrorIs(t, l.Transfer(ctx, alice, bob, big.NewInt(-1)), domain.ErrInvalidValue)

	require.NoError(t, l.Transfer(ctx, alice, bob, big.NewInt(4)))
	requireBalance(t, l, alice, 6)
	requireBalance(t, l, bob, 4)

	require.NoError(t, l.Transfer(ctx, bob, bob, big.NewInt(4)))
	requireBalance(t, l, bob, 4)
}

func TestReceiver(t *testing.T) {
	t.Parallel()

	l := ledger.NewLedger(inmemory.NewRepoManager())
	require.NoError(t, l.Mint(ctx, alice, big.NewInt(10)))

	var received *big.Int
	l.RegisterReceiver(bob, ports.ReceiverFunc(
		func(_ context.Context, from common.Address, amount *big.Int) error {
			require.Equal(t, alice, from)
			received = amount
			return nil
		},
	))
	require.NoError(t, l.Transfer(ctx, alice, bob, big.NewInt(3)))
	require.Equal(t, "3", received.String())

	errRejected := errors.New("rejected")
	l.RegisterReceiver(bob, ports.ReceiverFunc(
		func(context.Context, common.Address, *big.Int) error {
			return errRejected
		},
	))
	require.ErrorIs(t, l.Transfer(ctx, alice, bob, big.NewInt(1)), errRejected)

	l.RegisterReceiver(bob, nil)
	require.NoError(t, l.Transfer(ctx, alice, bob, big.NewInt(1)))
}

func requireBalance(t *testing.T, l ports.Ledger, account common.Address, expected int64) {
	t.Helper()
	balance, err := l.BalanceOf(ctx, account)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(expected).String(), balance.String())
}
