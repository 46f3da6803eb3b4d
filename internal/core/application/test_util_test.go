package application_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/erc20"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/ledger"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/storage/db/inmemory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	owner = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000a3")

	native = domain.NativeAddress
)

// units returns n whole units of an 18 decimals asset.
func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type harness struct {
	t           *testing.T
	repoManager ports.RepoManager
	ledger      ports.Ledger
	registry    *erc20.Registry
	exec        *executor.Executor
	events      *eventRecorder
	tokenA      *erc20.Token
	tokenB      *erc20.Token

	*application.Exchange
}

// newHarness deploys the exchange with two tokens and funds alice, bob and
// carol with 100 native units and 1000 units of each token.
func newHarness(t *testing.T) *harness {
	repoManager := inmemory.NewRepoManager()
	l := ledger.NewLedger(repoManager)
	events := &eventRecorder{}
	exec := executor.NewExecutor(repoManager, l, events)

	tokenA, err := erc20.NewToken(
		repoManager, application.ContractAddress(owner, application.FirstTokenNonce),
		"Test Token A", "TTA", erc20.DefaultDecimals, owner,
	)
	require.NoError(t, err)
	tokenB, err := erc20.NewToken(
		repoManager, application.ContractAddress(owner, application.FirstTokenNonce+1),
		"Test Token B", "TTB", erc20.DefaultDecimals, owner,
	)
	require.NoError(t, err)
	registry := erc20.NewRegistry(tokenA, tokenB)

	exchange, err := application.Deploy(ctx, exec, repoManager, l, registry, owner)
	require.NoError(t, err)

	for _, account := range []common.Address{alice, bob, carol} {
		require.NoError(t, l.Mint(ctx, account, units(100)))
		require.NoError(t, tokenA.Mint(ctx, owner, account, units(1000)))
		require.NoError(t, tokenB.Mint(ctx, owner, account, units(1000)))
	}
	events.reset()

	return &harness{
		t:           t,
		repoManager: repoManager,
		ledger:      l,
		registry:    registry,
		exec:        exec,
		events:      events,
		tokenA:      tokenA,
		tokenB:      tokenB,
		Exchange:    exchange,
	}
}

func (h *harness) balance(asset, account common.Address) *big.Int {
	h.t.Helper()

	var balance *big.Int
	var err error
	if asset == native {
		balance, err = h.ledger.BalanceOf(ctx, account)
	} else {
		var token ports.Token
		token, err = h.registry.Token(asset)
		require.NoError(h.t, err)
		balance, err = token.BalanceOf(ctx, account)
	}
	require.NoError(h.t, err)
	return balance
}

func (h *harness) approve(token, from, spender common.Address, amount *big.Int) {
	h.t.Helper()

	t, err := h.registry.Token(token)
	require.NoError(h.t, err)
	require.NoError(h.t, t.Approve(ctx, from, spender, amount))
}

// createOrder approves the order book when selling a token and attaches
// the value when selling native currency.
func (h *harness) createOrder(
	creator, sell, buy common.Address, sellAmount, buyAmount *big.Int,
) uint64 {
	h.t.Helper()

	opts := executor.TxOpts{From: creator}
	if sell == native {
		opts.Value = sellAmount
	} else {
		h.approve(sell, creator, h.OrderBook.Address(), sellAmount)
	}
	id, err := h.OrderBook.CreateOrder(ctx, opts, sell, buy, sellAmount, buyAmount)
	require.NoError(h.t, err)
	return id
}

// executeOrder pays the buy leg the way createOrder pays the sell leg.
func (h *harness) executeOrder(executorAddr common.Address, id uint64) error {
	h.t.Helper()

	order, err := h.OrderBook.GetOrder(ctx, id)
	require.NoError(h.t, err)

	opts := executor.TxOpts{From: executorAddr}
	if order.TokenToBuy.IsNative() {
		opts.Value = order.BuyAmount
	} else {
		h.approve(order.TokenToBuy.Address(), executorAddr, h.Trade.Address(), order.BuyAmount)
	}
	return h.Trade.ExecuteOrder(ctx, opts, id)
}

func (h *harness) order(id uint64) domain.Order {
	h.t.Helper()

	order, err := h.OrderBook.GetOrder(ctx, id)
	require.NoError(h.t, err)
	return order
}

type eventRecorder struct {
	lock   sync.Mutex
	events []domain.EventLog
}

func (r *eventRecorder) PublishEvents(events []domain.EventLog) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, events...)
}

func (r *eventRecorder) reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = nil
}

func (r *eventRecorder) topics() []domain.EventTopic {
	r.lock.Lock()
	defer r.lock.Unlock()

	topics := make([]domain.EventTopic, 0, len(r.events))
	for _, e := range r.events {
		topics = append(topics, e.Event.Topic())
	}
	return topics
}

func (r *eventRecorder) last() domain.EventLog {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.events[len(r.events)-1]
}

// mockReceiver is a native currency recipient whose behavior is set by the
// test.
type mockReceiver struct {
	mock.Mock
}

func (m *mockReceiver) Receive(
	ctx context.Context, from common.Address, amount *big.Int,
) error {
	args := m.Called(ctx, from, amount)
	return args.Error(0)
}

// reentrantToken calls hook before every transfer it is asked to make.
type reentrantToken struct {
	*erc20.Token
	hook func(ctx context.Context, caller, to common.Address) error
}

func (t *reentrantToken) Transfer(
	ctx context.Context, caller, to common.Address, amount *big.Int,
) error {
	if t.hook != nil {
		if err := t.hook(ctx, caller, to); err != nil {
			return err
		}
	}
	return t.Token.Transfer(ctx, caller, to, amount)
}
