package executor_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/ledger"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/storage/db/inmemory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	ctx      = context.Background()
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

type publisherFunc func(events []domain.EventLog)

func (f publisherFunc) PublishEvents(events []domain.EventLog) { f(events) }

func newExecutor(t *testing.T) (*executor.Executor, ports.Ledger, *[][]domain.EventLog) {
	repoManager := inmemory.NewRepoManager()
	l := ledger.NewLedger(repoManager)
	require.NoError(t, l.Mint(ctx, alice, big.NewInt(100)))

	lock := &sync.Mutex{}
	batches := make([][]domain.EventLog, 0)
	exec := executor.NewExecutor(repoManager, l, publisherFunc(
		func(events []domain.EventLog) {
			lock.Lock()
			defer lock.Unlock()
			batches = append(batches, events)
		},
	))
	return exec, l, &batches
}

func TestCall(t *testing.T) {
	t.Parallel()

	exec, l, batches := newExecutor(t)
	now := time.Unix(1700000000, 0)
	exec.WithClock(func() time.Time { return now })

	var blockTimes []time.Time
	err := exec.Call(
		ctx, executor.TxOpts{From: alice, Value: big.NewInt(10)}, contract, true,
		func(ctx context.Context) error {
			balance, err := l.BalanceOf(ctx, contract)
			require.NoError(t, err)
			require.Equal(t, "10", balance.String())

			exec.Emit(ctx, contract, domain.TokenAdded{Token: alice})
			blockTimes = append(blockTimes, executor.BlockTime(ctx))

			// Nested calls share the transaction and block time of the running one.
			return exec.Call(
				ctx, executor.TxOpts{From: contract}, alice, false,
				func(ctx context.Context) error {
					exec.Emit(ctx, alice, domain.TokenRemoved{Token: alice})
					blockTimes = append(blockTimes, executor.BlockTime(ctx))
					return nil
				},
			)
		},
	)
	require.NoError(t, err)

	require.Len(t, *batches, 1)
	require.Len(t, (*batches)[0], 2)
	require.Equal(t, contract, (*batches)[0][0].Contract)
	require.Equal(t, domain.TopicTokenRemoved, (*batches)[0][1].Event.Topic())
	require.Equal(t, []time.Time{now, now}, blockTimes)

	balance, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "90", balance.String())
}

func TestCallRevert(t *testing.T) {
	t.Parallel()

	exec, l, batches := newExecutor(t)
	errBoom := errors.New("boom")

	err := exec.Call(
		ctx, executor.TxOpts{From: alice, Value: big.NewInt(10)}, contract, true,
		func(ctx context.Context) error {
			exec.Emit(ctx, contract, domain.TokenAdded{Token: alice})
			return errBoom
		},
	)
	require.ErrorIs(t, err, errBoom)
	require.Empty(t, *batches)

	balance, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "100", balance.String())
	balance, err = l.BalanceOf(ctx, contract)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestNestedCallRevert(t *testing.T) {
	t.Parallel()

	exec, l, batches := newExecutor(t)
	errBoom := errors.New("boom")

	err := exec.Call(
		ctx, executor.TxOpts{From: alice, Value: big.NewInt(10)}, contract, true,
		func(ctx context.Context) error {
			exec.Emit(ctx, contract, domain.TokenAdded{Token: alice})

			err := exec.Call(
				ctx, executor.TxOpts{From: alice, Value: big.NewInt(20)}, contract, true,
				func(ctx context.Context) error {
					exec.Emit(ctx, contract, domain.TokenRemoved{Token: alice})
					return errBoom
				},
			)
			require.ErrorIs(t, err, errBoom)

			// The failed call left nothing behind.
			balance, err := l.BalanceOf(ctx, contract)
			require.NoError(t, err)
			require.Equal(t, "10", balance.String())
			return nil
		},
	)
	require.NoError(t, err)

	require.Len(t, *batches, 1)
	require.Len(t, (*batches)[0], 1)
	require.Equal(t, domain.TopicTokenAdded, (*batches)[0][0].Event.Topic())

	balance, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "90", balance.String())
	balance, err = l.BalanceOf(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, "10", balance.String())
}

func TestPanickingCall(t *testing.T) {
	t.Parallel()

	exec, l, _ := newExecutor(t)

	require.Panics(t, func() {
		//nolint
		exec.Call(
			ctx, executor.TxOpts{From: alice, Value: big.NewInt(10)}, contract, true,
			func(context.Context) error { panic("boom") },
		)
	})

	// The executor is still usable and nothing was committed.
	require.NoError(t, exec.Transfer(ctx, alice, contract, big.NewInt(1)))
	balance, err := l.BalanceOf(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, "1", balance.String())
}

func TestFailingCall(t *testing.T) {
	t.Parallel()

	exec, _, _ := newExecutor(t)
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name          string
		opts          executor.TxOpts
		payable       bool
		expectedError error
	}{
		{"missing_caller", executor.TxOpts{}, true, domain.ErrInvalidCaller},
		{"negative_value", executor.TxOpts{From: alice, Value: big.NewInt(-1)}, true, domain.ErrInvalidValue},
		{"non_payable", executor.TxOpts{From: alice, Value: big.NewInt(1)}, false, domain.ErrNonPayable},
		{"insufficient_balance", executor.TxOpts{From: alice, Value: big.NewInt(101)}, true, domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := exec.Call(ctx, tt.opts, contract, tt.payable, noop)
			require.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestView(t *testing.T) {
	t.Parallel()

	exec, l, _ := newExecutor(t)

	var balance *big.Int
	require.NoError(t, exec.View(ctx, func(ctx context.Context) error {
		var err error
		balance, err = l.BalanceOf(ctx, alice)
		return err
	}))
	require.Equal(t, "100", balance.String())

	// A view inside a call sees its uncommitted writes.
	require.NoError(t, exec.Call(
		ctx, executor.TxOpts{From: alice, Value: big.NewInt(5)}, contract, true,
		func(ctx context.Context) error {
			return exec.View(ctx, func(ctx context.Context) error {
				var err error
				balance, err = l.BalanceOf(ctx, contract)
				return err
			})
		},
	))
	require.Equal(t, "5", balance.String())
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	exec, l, _ := newExecutor(t)

	require.ErrorIs(t, exec.Transfer(ctx, common.Address{}, alice, big.NewInt(1)), domain.ErrInvalidCaller)
	require.NoError(t, exec.Transfer(ctx, alice, contract, big.NewInt(30)))

	errRejected := errors.New("rejected")
	l.RegisterReceiver(contract, ports.ReceiverFunc(
		func(context.Context, common.Address, *big.Int) error { return errRejected },
	))
	require.ErrorIs(t, exec.Transfer(ctx, alice, contract, big.NewInt(30)), errRejected)

	balance, err := l.BalanceOf(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, "30", balance.String())
}

func TestSerializedCalls(t *testing.T) {
	t.Parallel()

	exec, l, batches := newExecutor(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := exec.Call(
				ctx, executor.TxOpts{From: alice, Value: big.NewInt(5)}, contract, true,
				func(ctx context.Context) error {
					exec.Emit(ctx, contract, domain.TokenAdded{Token: alice})
					return nil
				},
			)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := l.BalanceOf(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, "100", balance.String())
	require.Len(t, *batches, 20)
}
