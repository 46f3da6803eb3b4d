package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus uint8

const (
	OrderStatusActive OrderStatus = iota
	OrderStatusPending
	OrderStatusCompleted
	OrderStatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusActive:
		return "active"
	case OrderStatusPending:
		return "pending"
	case OrderStatusCompleted:
		return "completed"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseOrderStatus accepts either the name or the numeric value of a status.
func ParseOrderStatus(str string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "active", "0":
		return OrderStatusActive, nil
	case "pending", "1":
		return OrderStatusPending, nil
	case "completed", "2":
		return OrderStatusCompleted, nil
	case "cancelled", "canceled", "3":
		return OrderStatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown order status %q", str)
	}
}

// Order is a standing offer to sell SellAmount of TokenToSell in exchange for
// BuyAmount of TokenToBuy. While the order is active its sell amount is held
// in custody by the order book.
type Order struct {
	ID          uint64
	Creator     common.Address
	TokenToSell Asset
	TokenToBuy  Asset
	// SellAmount is zeroed once custody is released, either by cancellation
	// or by the move to the settlement contract.
	SellAmount *big.Int
	BuyAmount  *big.Int
	Status     OrderStatus
}

// ValidateOrderTerms checks the terms of a new order in the same order the
// order book does: amounts first, then the asset pair.
func ValidateOrderTerms(
	tokenToSell, tokenToBuy Asset, sellAmount, buyAmount *big.Int,
) error {
	if !isPositive(sellAmount) || !isPositive(buyAmount) {
		return ErrInvalidAmounts
	}
	if tokenToSell.Equal(tokenToBuy) {
		return ErrSameAssetTrade
	}
	return nil
}

// NewOrder returns a new active order with the given terms.
func NewOrder(
	id uint64, creator common.Address, tokenToSell, tokenToBuy Asset,
	sellAmount, buyAmount *big.Int,
) (*Order, error) {
	if err := ValidateOrderTerms(
		tokenToSell, tokenToBuy, sellAmount, buyAmount,
	); err != nil {
		return nil, err
	}
	return &Order{
		ID:          id,
		Creator:     creator,
		TokenToSell: tokenToSell,
		TokenToBuy:  tokenToBuy,
		SellAmount:  new(big.Int).Set(sellAmount),
		BuyAmount:   new(big.Int).Set(buyAmount),
		Status:      OrderStatusActive,
	}, nil
}

// EmptyOrder is what lookups of ids that were never assigned return.
func EmptyOrder() Order {
	return Order{
		TokenToSell: NativeAsset(),
		TokenToBuy:  NativeAsset(),
		SellAmount:  big.NewInt(0),
		BuyAmount:   big.NewInt(0),
	}
}

func (o Order) IsActive() bool {
	return o.Status == OrderStatusActive
}

// Cancel releases custody of the sell amount back to the creator. It returns
// the amount to be refunded.
func (o *Order) Cancel(caller common.Address) (*big.Int, error) {
	if caller != o.Creator {
		return nil, ErrNotOrderCreator
	}
	if !o.IsActive() {
		return nil, ErrOrderNotActive
	}
	refund := o.releaseCustody()
	o.Status = OrderStatusCancelled
	return refund, nil
}

// StartSettlement marks the order as pending and returns the sell amount to
// be handed over to the settlement contract.
func (o *Order) StartSettlement() (*big.Int, error) {
	if !o.IsActive() {
		return nil, ErrOrderNotActive
	}
	amount := o.releaseCustody()
	o.Status = OrderStatusPending
	return amount, nil
}

// Complete closes a pending order.
func (o *Order) Complete() error {
	if o.Status != OrderStatusPending {
		return ErrOrderNotPending
	}
	o.Status = OrderStatusCompleted
	return nil
}

// Price returns how many units of the buy asset are asked for one unit of
// the sell asset.
func (o *Order) Price() decimal.Decimal {
	if !isPositive(o.SellAmount) || o.BuyAmount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(o.BuyAmount, 0).Div(
		decimal.NewFromBigInt(o.SellAmount, 0),
	)
}

// InversePrice returns how many units of the sell asset are offered for one
// unit of the buy asset.
func (o *Order) InversePrice() decimal.Decimal {
	if !isPositive(o.BuyAmount) || o.SellAmount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(o.SellAmount, 0).Div(
		decimal.NewFromBigInt(o.BuyAmount, 0),
	)
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.SellAmount = cloneAmount(o.SellAmount)
	o.BuyAmount = cloneAmount(o.BuyAmount)
	return o
}

func (o *Order) releaseCustody() *big.Int {
	amount := cloneAmount(o.SellAmount)
	o.SellAmount = big.NewInt(0)
	return amount
}

func isPositive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

func cloneAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(amount)
}
