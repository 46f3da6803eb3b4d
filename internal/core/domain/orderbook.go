package domain

import "github.com/ethereum/go-ethereum/common"

// OrderBook holds the configuration and the id counter of the order book
// contract. Orders themselves are stored apart.
type OrderBook struct {
	Address common.Address
	Ownable
	TokenManager  common.Address
	TradeContract common.Address
	// RestrictTokens, when set, limits new orders to tokens supported by the
	// token manager. The native currency is always allowed.
	RestrictTokens bool
	// OrderCounter is the id of the last created order. Ids start at 1.
	OrderCounter uint64
}

func NewOrderBook(address, owner, tokenManager common.Address) (*OrderBook, error) {
	if tokenManager == (common.Address{}) {
		return nil, ErrInvalidTokenManager
	}
	ownable, err := NewOwnable(owner)
	if err != nil {
		return nil, err
	}
	return &OrderBook{
		Address:      address,
		Ownable:      ownable,
		TokenManager: tokenManager,
	}, nil
}

// SetTradeContract sets the only address allowed to drive settlement and
// returns the previous one.
func (b *OrderBook) SetTradeContract(
	caller, trade common.Address,
) (common.Address, error) {
	if err := b.OnlyOwner(caller); err != nil {
		return common.Address{}, err
	}
	if trade == (common.Address{}) {
		return common.Address{}, ErrInvalidTradeContract
	}
	prev := b.TradeContract
	b.TradeContract = trade
	return prev, nil
}

func (b *OrderBook) ToggleTokenRestriction(caller common.Address, enabled bool) error {
	if err := b.OnlyOwner(caller); err != nil {
		return err
	}
	if b.RestrictTokens == enabled {
		return ErrRestrictionAlreadySet
	}
	b.RestrictTokens = enabled
	return nil
}

// OnlyTradeContract fails unless caller is the configured trade contract.
// An unset trade contract matches nobody.
func (b *OrderBook) OnlyTradeContract(caller common.Address) error {
	if b.TradeContract == (common.Address{}) || caller != b.TradeContract {
		return ErrOnlyTradeContract
	}
	return nil
}

// NextOrderID increments the counter and returns the new id.
func (b *OrderBook) NextOrderID() uint64 {
	b.OrderCounter++
	return b.OrderCounter
}

// OrderExists tells whether id has been assigned.
func (b *OrderBook) OrderExists(id uint64) bool {
	return id > 0 && id <= b.OrderCounter
}
