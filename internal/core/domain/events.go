package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventTopic is the name under which an event is published.
type EventTopic string

const (
	TopicOrderCreated         EventTopic = "OrderCreated"
	TopicOrderCancelled       EventTopic = "OrderCancelled"
	TopicOrderExecuted        EventTopic = "OrderExecuted"
	TopicTradeExecuted        EventTopic = "TradeExecuted"
	TopicTokenAdded           EventTopic = "TokenAdded"
	TopicTokenRemoved         EventTopic = "TokenRemoved"
	TopicTradeContractUpdated EventTopic = "TradeContractUpdated"
	TopicTokenRestriction     EventTopic = "TokenRestrictionToggled"
	TopicOwnershipTransferred EventTopic = "OwnershipTransferred"
)

// Event is something a contract emitted during a committed operation.
type Event interface {
	Topic() EventTopic
}

// EventLog binds an event to the contract that emitted it.
type EventLog struct {
	Contract common.Address
	Event    Event
}

// OrderCreated is emitted by the order book once custody is taken.
type OrderCreated struct {
	OrderID     uint64
	Creator     common.Address
	TokenToSell common.Address
	TokenToBuy  common.Address
	SellAmount  *big.Int
	BuyAmount   *big.Int
	Timestamp   int64
}

func (OrderCreated) Topic() EventTopic { return TopicOrderCreated }

type OrderCancelled struct {
	OrderID   uint64
	Creator   common.Address
	Timestamp int64
}

func (OrderCancelled) Topic() EventTopic { return TopicOrderCancelled }

// OrderExecuted is emitted by the order book when a pending order completes.
type OrderExecuted struct {
	OrderID   uint64
	Timestamp int64
}

func (OrderExecuted) Topic() EventTopic { return TopicOrderExecuted }

// TradeExecuted is emitted by the trade contract once both legs settled.
// SellAmount is the amount the order held before settlement.
type TradeExecuted struct {
	OrderID    uint64
	Executor   common.Address
	Creator    common.Address
	SellAmount *big.Int
	BuyAmount  *big.Int
	Timestamp  int64
}

func (TradeExecuted) Topic() EventTopic { return TopicTradeExecuted }

type TokenAdded struct {
	Token common.Address
}

func (TokenAdded) Topic() EventTopic { return TopicTokenAdded }

type TokenRemoved struct {
	Token common.Address
}

func (TokenRemoved) Topic() EventTopic { return TopicTokenRemoved }

type TradeContractUpdated struct {
	Previous common.Address
	Current  common.Address
}

func (TradeContractUpdated) Topic() EventTopic { return TopicTradeContractUpdated }

type TokenRestrictionToggled struct {
	Enabled bool
}

func (TokenRestrictionToggled) Topic() EventTopic { return TopicTokenRestriction }

type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferred) Topic() EventTopic { return TopicOwnershipTransferred }
