package application_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeploy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	require.Equal(t, application.ContractAddress(owner, 0), h.TokenManager.Address())
	require.Equal(t, application.ContractAddress(owner, 1), h.OrderBook.Address())
	require.Equal(t, application.ContractAddress(owner, 2), h.Trade.Address())
	require.Equal(t, h.OrderBook.Address(), h.Trade.OrderBookAddress())

	book, err := h.OrderBook.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, book.Owner)
	require.Equal(t, h.TokenManager.Address(), book.TokenManager)
	require.Equal(t, h.Trade.Address(), book.TradeContract)
	require.False(t, book.RestrictTokens)
	require.Zero(t, book.OrderCounter)

	manager, err := h.TokenManager.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, manager.Owner)
	require.Empty(t, manager.Tokens())

	id := h.createOrder(alice, h.tokenA.Address(), native, units(1), units(1))
	require.Equal(t, uint64(1), id)

	// Deploying again on the same state loads the existing contracts.
	again, err := application.Deploy(ctx, h.exec, h.repoManager, h.ledger, h.registry, owner)
	require.NoError(t, err)
	require.Equal(t, h.OrderBook.Address(), again.OrderBook.Address())
	counter, err := again.OrderBook.OrderCounter(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), counter)

	_, err = application.Deploy(ctx, h.exec, h.repoManager, h.ledger, h.registry, common.Address{})
	require.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	t.Run("token_for_native", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.exec.WithClock(func() time.Time { return time.Unix(1700000000, 0) })

		id := h.createOrder(alice, h.tokenA.Address(), native, units(100), units(2))
		require.Equal(t, uint64(1), id)

		order := h.order(id)
		require.Equal(t, alice, order.Creator)
		require.Equal(t, h.tokenA.Address(), order.TokenToSell.Address())
		require.True(t, order.TokenToBuy.IsNative())
		require.Equal(t, units(100).String(), order.SellAmount.String())
		require.Equal(t, units(2).String(), order.BuyAmount.String())
		require.Equal(t, domain.OrderStatusActive, order.Status)

		require.Equal(t, units(900).String(), h.balance(h.tokenA.Address(), alice).String())
		require.Equal(t, units(100).String(), h.balance(h.tokenA.Address(), h.OrderBook.Address()).String())

		require.Equal(t, []domain.EventTopic{domain.TopicOrderCreated}, h.events.topics())
		event := h.events.last()
		require.Equal(t, h.OrderBook.Address(), event.Contract)
		created := event.Event.(domain.OrderCreated)
		require.Equal(t, id, created.OrderID)
		require.Equal(t, alice, created.Creator)
		require.Equal(t, native, created.TokenToBuy)
		require.Equal(t, int64(1700000000), created.Timestamp)
	})

	t.Run("native_for_token", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)

		id := h.createOrder(alice, native, h.tokenB.Address(), units(1), units(100))
		require.Equal(t, uint64(1), id)
		require.Equal(t, units(99).String(), h.balance(native, alice).String())
		require.Equal(t, units(1).String(), h.balance(native, h.OrderBook.Address()).String())

		ethBalance, err := h.OrderBook.GetEthBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, units(1).String(), ethBalance.String())

		second := h.createOrder(bob, native, h.tokenA.Address(), units(2), units(1))
		require.Equal(t, uint64(2), second)
	})

	t.Run("failing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA, tokenB := h.tokenA.Address(), h.tokenB.Address()
		h.approve(tokenA, alice, h.OrderBook.Address(), units(10))

		tests := []struct {
			name          string
			sell, buy     common.Address
			sellAmount    *big.Int
			buyAmount     *big.Int
			value         *big.Int
			expectedError error
		}{
			{"zero_sell_amount", tokenA, tokenB, big.NewInt(0), units(1), nil, domain.ErrInvalidAmounts},
			{"zero_buy_amount", tokenA, tokenB, units(1), big.NewInt(0), nil, domain.ErrInvalidAmounts},
			{"same_token", tokenA, tokenA, units(1), units(1), nil, domain.ErrSameAssetTrade},
			{"same_native", native, native, units(1), units(1), units(1), domain.ErrSameAssetTrade},
			{"native_value_too_low", native, tokenA, units(2), units(1), units(1), domain.ErrIncorrectETHAmount},
			{"native_value_too_high", native, tokenA, units(1), units(1), units(2), domain.ErrIncorrectETHAmount},
			{"native_value_missing", native, tokenA, units(1), units(1), nil, domain.ErrIncorrectETHAmount},
			{"native_with_token", tokenA, tokenB, units(1), units(1), big.NewInt(1), domain.ErrETHSentWithERC20},
			{"insufficient_allowance", tokenA, tokenB, units(11), units(1), nil, domain.ErrInsufficientAllowance},
			{"unknown_token", carol, tokenB, units(1), units(1), nil, domain.ErrTokenTransferFailed},
			{"value_above_balance", native, tokenA, units(101), units(1), units(101), domain.ErrInsufficientBalance},
		}

		for _, tt := range tests {
			id, err := h.OrderBook.CreateOrder(
				ctx, executor.TxOpts{From: alice, Value: tt.value},
				tt.sell, tt.buy, tt.sellAmount, tt.buyAmount,
			)
			require.ErrorIs(t, err, tt.expectedError, tt.name)
			require.Zero(t, id, tt.name)
		}

		// Nothing moved and no id was consumed.
		require.Equal(t, units(100).String(), h.balance(native, alice).String())
		require.Equal(t, units(1000).String(), h.balance(tokenA, alice).String())
		counter, err := h.OrderBook.OrderCounter(ctx)
		require.NoError(t, err)
		require.Zero(t, counter)
		require.Empty(t, h.events.topics())

		_, err = h.OrderBook.CreateOrder(
			ctx, executor.TxOpts{}, tokenA, tokenB, units(1), units(1),
		)
		require.ErrorIs(t, err, domain.ErrInvalidCaller)
	})
}

func TestRestrictionGating(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tokenA, tokenB := h.tokenA.Address(), h.tokenB.Address()
	ownerOpts := executor.TxOpts{From: owner}

	err := h.TokenManager.AddToken(ctx, executor.TxOpts{From: alice}, tokenA)
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	require.NoError(t, h.TokenManager.AddToken(ctx, ownerOpts, tokenA))

	err = h.OrderBook.ToggleTokenRestriction(ctx, executor.TxOpts{From: alice}, true)
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	err = h.OrderBook.ToggleTokenRestriction(ctx, ownerOpts, false)
	require.ErrorIs(t, err, domain.ErrRestrictionAlreadySet)
	require.NoError(t, h.OrderBook.ToggleTokenRestriction(ctx, ownerOpts, true))

	h.approve(tokenB, alice, h.OrderBook.Address(), units(5))
	_, err = h.OrderBook.CreateOrder(
		ctx, executor.TxOpts{From: alice}, tokenB, tokenA, units(5), units(1),
	)
	require.ErrorIs(t, err, domain.ErrTokenNotSupported)

	_, err = h.OrderBook.CreateOrder(
		ctx, executor.TxOpts{From: alice}, tokenA, tokenB, units(5), units(1),
	)
	require.ErrorIs(t, err, domain.ErrTokenNotSupported)

	// The native leg is always allowed.
	id := h.createOrder(alice, native, tokenA, units(3), units(7))
	require.Equal(t, uint64(1), id)

	require.NoError(t, h.TokenManager.AddToken(ctx, ownerOpts, tokenB))
	id = h.createOrder(alice, tokenB, tokenA, units(5), units(1))
	require.Equal(t, uint64(2), id)

	require.NoError(t, h.TokenManager.RemoveToken(ctx, ownerOpts, tokenB))
	supported, err := h.TokenManager.IsTokenSupported(ctx, tokenB)
	require.NoError(t, err)
	require.False(t, supported)

	// Lifting the restriction opens trading to any token again.
	require.NoError(t, h.OrderBook.ToggleTokenRestriction(ctx, ownerOpts, false))
	id = h.createOrder(bob, tokenB, tokenA, units(1), units(1))
	require.Equal(t, uint64(3), id)

	require.Equal(t, []domain.EventTopic{
		domain.TopicTokenAdded,
		domain.TopicTokenRestriction,
		domain.TopicOrderCreated,
		domain.TopicTokenAdded,
		domain.TopicOrderCreated,
		domain.TopicTokenRemoved,
		domain.TopicTokenRestriction,
		domain.TopicOrderCreated,
	}, h.events.topics())
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	t.Run("token_refund", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA := h.tokenA.Address()
		id := h.createOrder(alice, tokenA, native, units(100), units(1))
		before := h.balance(tokenA, alice)

		err := h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: bob}, id)
		require.ErrorIs(t, err, domain.ErrNotOrderCreator)

		require.NoError(t, h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id))
		gained := new(big.Int).Sub(h.balance(tokenA, alice), before)
		require.Equal(t, units(100).String(), gained.String())

		order := h.order(id)
		require.Zero(t, order.SellAmount.Sign())
		require.Equal(t, domain.OrderStatusCancelled, order.Status)
		require.Zero(t, h.balance(tokenA, h.OrderBook.Address()).Sign())

		err = h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id)
		require.ErrorIs(t, err, domain.ErrOrderNotActive)

		cancelled := h.events.last().Event.(domain.OrderCancelled)
		require.Equal(t, id, cancelled.OrderID)
		require.Equal(t, alice, cancelled.Creator)
	})

	t.Run("native_refund", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, native, h.tokenA.Address(), units(4), units(1))
		require.Equal(t, units(96).String(), h.balance(native, alice).String())

		require.NoError(t, h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id))
		require.Equal(t, units(100).String(), h.balance(native, alice).String())
		require.Zero(t, h.balance(native, h.OrderBook.Address()).Sign())
	})

	t.Run("failing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, h.tokenA.Address(), native, units(1), units(1))

		for _, unknown := range []uint64{0, id + 1} {
			err := h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, unknown)
			require.ErrorIs(t, err, domain.ErrOrderDoesNotExist)
		}

		err := h.OrderBook.CancelOrder(
			ctx, executor.TxOpts{From: alice, Value: big.NewInt(1)}, id,
		)
		require.ErrorIs(t, err, domain.ErrNonPayable)
	})

	t.Run("refund_rejected", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, native, h.tokenA.Address(), units(4), units(1))
		h.events.reset()

		errRejected := errors.New("not accepting")
		receiver := &mockReceiver{}
		receiver.On("Receive", mock.Anything, h.OrderBook.Address(), mock.Anything).
			Return(errRejected)
		h.ledger.RegisterReceiver(alice, receiver)

		err := h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id)
		require.ErrorIs(t, err, domain.ErrETHReturnFailed)
		require.ErrorIs(t, err, errRejected)
		receiver.AssertNumberOfCalls(t, "Receive", 1)

		// The whole call reverted.
		order := h.order(id)
		require.True(t, order.IsActive())
		require.Equal(t, units(4).String(), order.SellAmount.String())
		require.Equal(t, units(4).String(), h.balance(native, h.OrderBook.Address()).String())
		require.Equal(t, units(96).String(), h.balance(native, alice).String())
		require.Empty(t, h.events.topics())
	})
}

func TestExecuteOrder(t *testing.T) {
	t.Parallel()

	t.Run("native_for_token", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenB := h.tokenB.Address()
		id := h.createOrder(alice, native, tokenB, units(1), units(100))
		aliceTokenB := h.balance(tokenB, alice)
		bobNative := h.balance(native, bob)
		h.events.reset()

		require.NoError(t, h.executeOrder(bob, id))

		gained := new(big.Int).Sub(h.balance(tokenB, alice), aliceTokenB)
		require.Equal(t, units(100).String(), gained.String())
		gained = new(big.Int).Sub(h.balance(native, bob), bobNative)
		require.Equal(t, units(1).String(), gained.String())

		order := h.order(id)
		require.Equal(t, domain.OrderStatusCompleted, order.Status)
		require.Zero(t, order.SellAmount.Sign())
		active, err := h.OrderBook.IsOrderActive(ctx, id)
		require.NoError(t, err)
		require.False(t, active)

		// The trade contract is a pass-through.
		tradeBalance, err := h.Trade.GetEthBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, tradeBalance.Sign())
		require.Zero(t, h.balance(tokenB, h.Trade.Address()).Sign())
		require.Zero(t, h.balance(native, h.OrderBook.Address()).Sign())

		require.Equal(t, []domain.EventTopic{
			domain.TopicOrderExecuted, domain.TopicTradeExecuted,
		}, h.events.topics())
		executed := h.events.last()
		require.Equal(t, h.Trade.Address(), executed.Contract)
		trade := executed.Event.(domain.TradeExecuted)
		require.Equal(t, id, trade.OrderID)
		require.Equal(t, bob, trade.Executor)
		require.Equal(t, alice, trade.Creator)
		require.Equal(t, units(1).String(), trade.SellAmount.String())
		require.Equal(t, units(100).String(), trade.BuyAmount.String())
	})

	t.Run("token_for_native", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA := h.tokenA.Address()
		id := h.createOrder(alice, tokenA, native, units(50), units(5))

		require.NoError(t, h.executeOrder(bob, id))
		require.Equal(t, units(105).String(), h.balance(native, alice).String())
		require.Equal(t, units(95).String(), h.balance(native, bob).String())
		require.Equal(t, units(1050).String(), h.balance(tokenA, bob).String())
		require.Zero(t, h.balance(tokenA, h.OrderBook.Address()).Sign())
	})

	t.Run("token_for_token", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA, tokenB := h.tokenA.Address(), h.tokenB.Address()
		id := h.createOrder(alice, tokenA, tokenB, units(10), units(20))

		require.NoError(t, h.executeOrder(carol, id))
		require.Equal(t, units(1020).String(), h.balance(tokenB, alice).String())
		require.Equal(t, units(980).String(), h.balance(tokenB, carol).String())
		require.Equal(t, units(1010).String(), h.balance(tokenA, carol).String())
		require.Equal(t, units(990).String(), h.balance(tokenA, alice).String())
	})

	t.Run("failing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA, tokenB := h.tokenA.Address(), h.tokenB.Address()
		nativeOrder := h.createOrder(alice, tokenA, native, units(10), units(2))
		tokenOrder := h.createOrder(alice, native, tokenB, units(1), units(100))
		h.approve(tokenB, bob, h.Trade.Address(), units(99))

		tests := []struct {
			name          string
			from          common.Address
			id            uint64
			value         *big.Int
			expectedError error
		}{
			{"id_zero", bob, 0, nil, domain.ErrOrderDoesNotExist},
			{"id_beyond_counter", bob, 3, nil, domain.ErrOrderDoesNotExist},
			{"self_execution", alice, nativeOrder, units(2), domain.ErrCannotExecuteOwnOrder},
			{"value_missing", bob, nativeOrder, nil, domain.ErrIncorrectETHAmount},
			{"value_mismatch", bob, nativeOrder, units(3), domain.ErrIncorrectETHAmount},
			{"native_with_token", bob, tokenOrder, big.NewInt(1), domain.ErrETHSentWithERC20},
			{"insufficient_allowance", bob, tokenOrder, nil, domain.ErrInsufficientAllowance},
			{"no_caller", common.Address{}, nativeOrder, units(2), domain.ErrInvalidCaller},
		}

		for _, tt := range tests {
			err := h.Trade.ExecuteOrder(
				ctx, executor.TxOpts{From: tt.from, Value: tt.value}, tt.id,
			)
			require.ErrorIs(t, err, tt.expectedError, tt.name)
		}

		require.True(t, h.order(nativeOrder).IsActive())
		require.True(t, h.order(tokenOrder).IsActive())
		require.Equal(t, units(100).String(), h.balance(native, bob).String())
		require.Equal(t, units(1000).String(), h.balance(tokenB, bob).String())
	})
}

func TestAtMostOnceSettlement(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tokenA, tokenB := h.tokenA.Address(), h.tokenB.Address()
	id := h.createOrder(alice, tokenA, tokenB, units(10), units(20))
	require.NoError(t, h.executeOrder(bob, id))

	bobTokenA, bobTokenB := h.balance(tokenA, bob), h.balance(tokenB, bob)
	carolTokenA, carolTokenB := h.balance(tokenA, carol), h.balance(tokenB, carol)

	// Even with a fresh allowance, nothing is pulled.
	require.ErrorIs(t, h.executeOrder(bob, id), domain.ErrOrderNotActive)
	require.ErrorIs(t, h.executeOrder(carol, id), domain.ErrOrderNotActive)

	require.Equal(t, bobTokenA.String(), h.balance(tokenA, bob).String())
	require.Equal(t, bobTokenB.String(), h.balance(tokenB, bob).String())
	require.Equal(t, carolTokenA.String(), h.balance(tokenA, carol).String())
	require.Equal(t, carolTokenB.String(), h.balance(tokenB, carol).String())

	err := h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id)
	require.ErrorIs(t, err, domain.ErrOrderNotActive)
}

func TestCancelExecuteExclusion(t *testing.T) {
	t.Parallel()

	t.Run("cancel_first", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, h.tokenA.Address(), native, units(10), units(1))
		require.NoError(t, h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id))
		require.ErrorIs(t, h.executeOrder(bob, id), domain.ErrOrderNotActive)
		require.Equal(t, units(1000).String(), h.balance(h.tokenA.Address(), alice).String())
	})

	t.Run("execute_first", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, h.tokenA.Address(), native, units(10), units(1))
		require.NoError(t, h.executeOrder(bob, id))
		err := h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id)
		require.ErrorIs(t, err, domain.ErrOrderNotActive)
		require.Equal(t, units(990).String(), h.balance(h.tokenA.Address(), alice).String())
	})

	t.Run("racing", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		tokenA := h.tokenA.Address()
		id := h.createOrder(alice, tokenA, native, units(10), units(1))

		var wg sync.WaitGroup
		var cancelErr, executeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			cancelErr = h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: alice}, id)
		}()
		go func() {
			defer wg.Done()
			executeErr = h.Trade.ExecuteOrder(
				ctx, executor.TxOpts{From: bob, Value: units(1)}, id,
			)
		}()
		wg.Wait()

		if cancelErr == nil {
			require.ErrorIs(t, executeErr, domain.ErrOrderNotActive)
			require.Equal(t, domain.OrderStatusCancelled, h.order(id).Status)
			require.Equal(t, units(1000).String(), h.balance(tokenA, alice).String())
			require.Equal(t, units(100).String(), h.balance(native, bob).String())
		} else {
			require.ErrorIs(t, cancelErr, domain.ErrOrderNotActive)
			require.NoError(t, executeErr)
			require.Equal(t, domain.OrderStatusCompleted, h.order(id).Status)
			require.Equal(t, units(1010).String(), h.balance(tokenA, bob).String())
		}
		require.Zero(t, h.balance(tokenA, h.OrderBook.Address()).Sign())
	})
}

func TestCustodyConservation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tokenA := h.tokenA.Address()

	ids := []uint64{
		h.createOrder(alice, tokenA, native, units(10), units(1)),
		h.createOrder(bob, tokenA, native, units(20), units(2)),
		h.createOrder(carol, tokenA, h.tokenB.Address(), units(30), units(3)),
		h.createOrder(alice, native, tokenA, units(4), units(40)),
	}
	requireCustodyCovered := func() {
		t.Helper()

		orders, err := h.OrderBook.ListOrders(ctx, domain.OrderFilter{})
		require.NoError(t, err)

		locked := map[common.Address]*big.Int{tokenA: big.NewInt(0), native: big.NewInt(0)}
		for _, o := range orders {
			if !o.IsActive() {
				require.Zero(t, o.SellAmount.Sign())
				continue
			}
			sum := locked[o.TokenToSell.Address()]
			sum.Add(sum, o.SellAmount)
		}
		for asset, sum := range locked {
			require.Equal(t, sum.String(), h.balance(asset, h.OrderBook.Address()).String())
		}
	}

	requireCustodyCovered()
	require.NoError(t, h.OrderBook.CancelOrder(ctx, executor.TxOpts{From: bob}, ids[1]))
	requireCustodyCovered()
	require.NoError(t, h.executeOrder(bob, ids[0]))
	requireCustodyCovered()
	require.NoError(t, h.executeOrder(bob, ids[3]))
	requireCustodyCovered()

	// Unsolicited native transfers are accepted and attributed to no order.
	require.NoError(t, h.exec.Transfer(ctx, carol, h.OrderBook.Address(), units(1)))
	balance, err := h.OrderBook.GetEthBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, units(1).String(), balance.String())

	active := domain.OrderStatusActive
	orders, err := h.OrderBook.ListOrders(ctx, domain.OrderFilter{Status: &active})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, ids[2], orders[0].ID)
}

func TestViews(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := h.createOrder(alice, h.tokenA.Address(), native, units(1), units(1))

	for _, unknown := range []uint64{0, id + 1, 1 << 40} {
		active, err := h.OrderBook.IsOrderActive(ctx, unknown)
		require.NoError(t, err)
		require.False(t, active)

		order, err := h.OrderBook.GetOrder(ctx, unknown)
		require.NoError(t, err)
		require.Zero(t, order.ID)
		require.Equal(t, common.Address{}, order.Creator)
		require.Zero(t, order.SellAmount.Sign())
		require.Zero(t, order.BuyAmount.Sign())
	}

	active, err := h.OrderBook.IsOrderActive(ctx, id)
	require.NoError(t, err)
	require.True(t, active)
}

func TestTradeOnlyEntryPoints(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := h.createOrder(alice, h.tokenA.Address(), native, units(1), units(1))
	trade := executor.TxOpts{From: h.Trade.Address()}

	err := h.OrderBook.MoveTokensToTradeContract(ctx, executor.TxOpts{From: alice}, id)
	require.ErrorIs(t, err, domain.ErrOnlyTradeContract)
	err = h.OrderBook.DeactivateOrder(ctx, executor.TxOpts{From: owner}, id)
	require.ErrorIs(t, err, domain.ErrOnlyTradeContract)

	err = h.OrderBook.MoveTokensToTradeContract(ctx, trade, id+1)
	require.ErrorIs(t, err, domain.ErrOrderDoesNotExist)
	err = h.OrderBook.DeactivateOrder(ctx, trade, id)
	require.ErrorIs(t, err, domain.ErrOrderNotPending)

	require.NoError(t, h.OrderBook.MoveTokensToTradeContract(ctx, trade, id))
	require.Equal(t, domain.OrderStatusPending, h.order(id).Status)
	require.Equal(t, units(1).String(), h.balance(h.tokenA.Address(), h.Trade.Address()).String())
	err = h.OrderBook.MoveTokensToTradeContract(ctx, trade, id)
	require.ErrorIs(t, err, domain.ErrOrderNotActive)

	require.NoError(t, h.OrderBook.DeactivateOrder(ctx, trade, id))
	require.Equal(t, domain.OrderStatusCompleted, h.order(id).Status)

	// Moving the trade contract revokes the previous one.
	newTrade := common.HexToAddress("0x00000000000000000000000000000000000000b7")
	err = h.OrderBook.SetTradeContract(ctx, executor.TxOpts{From: alice}, newTrade)
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	err = h.OrderBook.SetTradeContract(ctx, executor.TxOpts{From: owner}, common.Address{})
	require.ErrorIs(t, err, domain.ErrInvalidTradeContract)
	require.NoError(t, h.OrderBook.SetTradeContract(ctx, executor.TxOpts{From: owner}, newTrade))

	updated := h.events.last().Event.(domain.TradeContractUpdated)
	require.Equal(t, h.Trade.Address(), updated.Previous)
	require.Equal(t, newTrade, updated.Current)

	second := h.createOrder(alice, h.tokenA.Address(), native, units(1), units(1))
	require.ErrorIs(t, h.executeOrder(bob, second), domain.ErrOnlyTradeContract)
}

func TestTransferOwnership(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	err := h.OrderBook.TransferOwnership(ctx, executor.TxOpts{From: alice}, alice)
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	err = h.OrderBook.TransferOwnership(ctx, executor.TxOpts{From: owner}, common.Address{})
	require.ErrorIs(t, err, domain.ErrInvalidOwner)
	require.NoError(t, h.OrderBook.TransferOwnership(ctx, executor.TxOpts{From: owner}, alice))

	transferred := h.events.last().Event.(domain.OwnershipTransferred)
	require.Equal(t, owner, transferred.PreviousOwner)
	require.Equal(t, alice, transferred.NewOwner)

	err = h.OrderBook.ToggleTokenRestriction(ctx, executor.TxOpts{From: owner}, true)
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	require.NoError(t, h.OrderBook.ToggleTokenRestriction(ctx, executor.TxOpts{From: alice}, true))

	require.NoError(t, h.TokenManager.TransferOwnership(ctx, executor.TxOpts{From: owner}, bob))
	err = h.TokenManager.AddToken(ctx, executor.TxOpts{From: owner}, h.tokenA.Address())
	require.ErrorIs(t, err, domain.ErrUnauthorizedAccount)
	require.NoError(t, h.TokenManager.AddToken(ctx, executor.TxOpts{From: bob}, h.tokenA.Address()))
}

func TestReentrancy(t *testing.T) {
	t.Parallel()

	t.Run("malicious_token", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		evil := &reentrantToken{Token: h.tokenA}
		h.registry.Register(evil)

		id := h.createOrder(alice, h.tokenA.Address(), native, units(10), units(1))
		evil.hook = func(ctx context.Context, caller, _ common.Address) error {
			if caller != h.Trade.Address() {
				return nil
			}
			return h.Trade.ExecuteOrder(ctx, executor.TxOpts{From: carol, Value: units(1)}, id)
		}
		bobNative := h.balance(native, bob)
		carolNative := h.balance(native, carol)
		h.events.reset()

		err := h.executeOrder(bob, id)
		require.ErrorIs(t, err, domain.ErrTokenSellTransferFailed)
		require.ErrorIs(t, err, domain.ErrReentrantCall)

		// The whole settlement reverted.
		order := h.order(id)
		require.True(t, order.IsActive())
		require.Equal(t, units(10).String(), order.SellAmount.String())
		require.Equal(t, units(10).String(), h.balance(h.tokenA.Address(), h.OrderBook.Address()).String())
		require.Equal(t, bobNative.String(), h.balance(native, bob).String())
		require.Equal(t, carolNative.String(), h.balance(native, carol).String())
		require.Empty(t, h.events.topics())

		// The guard is released once the call is over.
		evil.hook = nil
		require.NoError(t, h.executeOrder(bob, id))
	})

	t.Run("malicious_receiver", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		first := h.createOrder(alice, native, h.tokenB.Address(), units(1), units(100))
		second := h.createOrder(alice, native, h.tokenB.Address(), units(1), units(100))
		h.approve(h.tokenB.Address(), bob, h.Trade.Address(), units(200))

		var reentryErrs []error
		receiver := &mockReceiver{}
		receiver.On("Receive", mock.Anything, h.Trade.Address(), mock.Anything).
			Run(func(args mock.Arguments) {
				ctx := args.Get(0).(context.Context)
				for _, id := range []uint64{first, second} {
					reentryErrs = append(reentryErrs, h.Trade.ExecuteOrder(
						ctx, executor.TxOpts{From: bob}, id,
					))
				}
			}).
			Return(nil)
		h.ledger.RegisterReceiver(bob, receiver)

		bobNative := h.balance(native, bob)
		require.NoError(t, h.Trade.ExecuteOrder(ctx, executor.TxOpts{From: bob}, first))
		receiver.AssertNumberOfCalls(t, "Receive", 1)

		require.Len(t, reentryErrs, 2)
		for _, err := range reentryErrs {
			require.ErrorIs(t, err, domain.ErrReentrantCall)
		}

		// Only the outer settlement happened.
		require.Equal(t, domain.OrderStatusCompleted, h.order(first).Status)
		require.True(t, h.order(second).IsActive())
		gained := new(big.Int).Sub(h.balance(native, bob), bobNative)
		require.Equal(t, units(1).String(), gained.String())
		require.Equal(t, units(900).String(), h.balance(h.tokenB.Address(), bob).String())
	})

	t.Run("swallowed_reentry_with_value", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		first := h.createOrder(alice, native, h.tokenB.Address(), units(1), units(100))
		second := h.createOrder(alice, native, h.tokenB.Address(), units(1), units(100))
		h.approve(h.tokenB.Address(), bob, h.Trade.Address(), units(100))

		var reentryErr error
		receiver := &mockReceiver{}
		receiver.On("Receive", mock.Anything, h.Trade.Address(), mock.Anything).
			Run(func(args mock.Arguments) {
				ctx := args.Get(0).(context.Context)
				reentryErr = h.Trade.ExecuteOrder(
					ctx, executor.TxOpts{From: bob, Value: units(5)}, second,
				)
			}).
			Return(nil)
		h.ledger.RegisterReceiver(bob, receiver)

		bobNative := h.balance(native, bob)
		require.NoError(t, h.Trade.ExecuteOrder(ctx, executor.TxOpts{From: bob}, first))
		require.ErrorIs(t, reentryErr, domain.ErrReentrantCall)

		// The value attached to the rejected call went back to bob.
		require.Zero(t, h.balance(native, h.Trade.Address()).Sign())
		gained := new(big.Int).Sub(h.balance(native, bob), bobNative)
		require.Equal(t, units(1).String(), gained.String())
		require.Equal(t, domain.OrderStatusCompleted, h.order(first).Status)
		require.True(t, h.order(second).IsActive())
		require.Equal(t, units(1).String(), h.balance(native, h.OrderBook.Address()).String())
	})

	t.Run("rejecting_creator", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		id := h.createOrder(alice, h.tokenA.Address(), native, units(10), units(1))

		receiver := &mockReceiver{}
		receiver.On("Receive", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("no thanks"))
		h.ledger.RegisterReceiver(alice, receiver)

		err := h.executeOrder(bob, id)
		require.ErrorIs(t, err, domain.ErrETHTransferToCreatorFailed)
		require.True(t, h.order(id).IsActive())
		require.Equal(t, units(100).String(), h.balance(native, bob).String())
		require.Equal(t, units(1000).String(), h.balance(h.tokenA.Address(), bob).String())
	})
}
