package dbbadger

import (
	"fmt"
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
)

// Order is the stored form of domain.Order. Addresses are kept in hex and
// amounts in base 10 so that records can be queried by field.
type Order struct {
	ID          uint64
	Creator     string
	TokenToSell string
	TokenToBuy  string
	SellAmount  string
	BuyAmount   string
	Status      uint8
}

type OrderBook struct {
	Address        string
	Owner          string
	TokenManager   string
	TradeContract  string
	RestrictTokens bool
	OrderCounter   uint64
}

type TokenManager struct {
	Address         string
	Owner           string
	SupportedTokens []string
}

// Balance is used for both native and token balances.
type Balance struct {
	Asset  string
	Holder string
	Amount string
}

type Allowance struct {
	Token   string
	Owner   string
	Spender string
	Amount  string
}

func MapDomainOrderToInfraOrder(o domain.Order) Order {
	return Order{
		ID:          o.ID,
		Creator:     o.Creator.Hex(),
		TokenToSell: o.TokenToSell.Address().Hex(),
		TokenToBuy:  o.TokenToBuy.Address().Hex(),
		SellAmount:  amountToString(o.SellAmount),
		BuyAmount:   amountToString(o.BuyAmount),
		Status:      uint8(o.Status),
	}
}

func MapInfraOrderToDomainOrder(o Order) (*domain.Order, error) {
	sellAmount, err := amountFromString(o.SellAmount)
	if err != nil {
		return nil, err
	}
	buyAmount, err := amountFromString(o.BuyAmount)
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:          o.ID,
		Creator:     common.HexToAddress(o.Creator),
		TokenToSell: domain.AssetFromAddress(common.HexToAddress(o.TokenToSell)),
		TokenToBuy:  domain.AssetFromAddress(common.HexToAddress(o.TokenToBuy)),
		SellAmount:  sellAmount,
		BuyAmount:   buyAmount,
		Status:      domain.OrderStatus(o.Status),
	}, nil
}

func MapDomainOrderBookToInfraOrderBook(b domain.OrderBook) OrderBook {
	return OrderBook{
		Address:        b.Address.Hex(),
		Owner:          b.Owner.Hex(),
		TokenManager:   b.TokenManager.Hex(),
		TradeContract:  b.TradeContract.Hex(),
		RestrictTokens: b.RestrictTokens,
		OrderCounter:   b.OrderCounter,
	}
}

func MapInfraOrderBookToDomainOrderBook(b OrderBook) *domain.OrderBook {
	return &domain.OrderBook{
		Address:        common.HexToAddress(b.Address),
		Ownable:        domain.Ownable{Owner: common.HexToAddress(b.Owner)},
		TokenManager:   common.HexToAddress(b.TokenManager),
		TradeContract:  common.HexToAddress(b.TradeContract),
		RestrictTokens: b.RestrictTokens,
		OrderCounter:   b.OrderCounter,
	}
}

func MapDomainTokenManagerToInfraTokenManager(m domain.TokenManager) TokenManager {
	tokens := make([]string, 0, len(m.SupportedTokens))
	for _, token := range m.Tokens() {
		tokens = append(tokens, token.Hex())
	}
	return TokenManager{
		Address:         m.Address.Hex(),
		Owner:           m.Owner.Hex(),
		SupportedTokens: tokens,
	}
}

func MapInfraTokenManagerToDomainTokenManager(m TokenManager) *domain.TokenManager {
	supported := make(map[common.Address]bool, len(m.SupportedTokens))
	for _, token := range m.SupportedTokens {
		supported[common.HexToAddress(token)] = true
	}
	return &domain.TokenManager{
		Address:         common.HexToAddress(m.Address),
		Ownable:         domain.Ownable{Owner: common.HexToAddress(m.Owner)},
		SupportedTokens: supported,
	}
}

func amountToString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func amountFromString(str string) (*big.Int, error) {
	if str == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", str)
	}
	return amount, nil
}
