package httpinterface

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/wallet"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
)

const maxBodySize = 1 << 20

// txRequest is embedded by the body of every state-changing request.
type txRequest struct {
	From  string `json:"from"`
	Value string `json:"value,omitempty"`
}

func (r txRequest) opts() (executor.TxOpts, error) {
	from, err := parseAddress("from", r.From)
	if err != nil {
		return executor.TxOpts{}, err
	}
	opts := executor.TxOpts{From: from}
	if r.Value != "" {
		if opts.Value, err = parseAmount("value", r.Value); err != nil {
			return executor.TxOpts{}, err
		}
	}
	return opts, nil
}

type createOrderRequest struct {
	txRequest
	TokenToSell string `json:"tokenToSell"`
	TokenToBuy  string `json:"tokenToBuy"`
	SellAmount  string `json:"sellAmount"`
	BuyAmount   string `json:"buyAmount"`
}

type addressRequest struct {
	txRequest
	Address string `json:"address"`
}

type restrictionRequest struct {
	txRequest
	Enabled bool `json:"enabled"`
}

type transferRequest struct {
	txRequest
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type approveRequest struct {
	txRequest
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type addWebhookRequest struct {
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type orderResponse struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	TokenToSell string `json:"tokenToSell"`
	TokenToBuy  string `json:"tokenToBuy"`
	SellAmount  string `json:"sellAmount"`
	BuyAmount   string `json:"buyAmount"`
	Status      string `json:"status"`
	Price       string `json:"price"`
}

func newOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		Creator:     o.Creator.Hex(),
		TokenToSell: o.TokenToSell.Address().Hex(),
		TokenToBuy:  o.TokenToBuy.Address().Hex(),
		SellAmount:  o.SellAmount.String(),
		BuyAmount:   o.BuyAmount.String(),
		Status:      o.Status.String(),
		Price:       o.Price().String(),
	}
}

type orderBookResponse struct {
	Address        string `json:"address"`
	Owner          string `json:"owner"`
	TokenManager   string `json:"tokenManager"`
	TradeContract  string `json:"tradeContract"`
	RestrictTokens bool   `json:"restrictTokens"`
	OrderCounter   uint64 `json:"orderCounter"`
	EthBalance     string `json:"ethBalance"`
}

type tokenManagerResponse struct {
	Address string   `json:"address"`
	Owner   string   `json:"owner"`
	Tokens  []string `json:"tokens"`
}

type tradeResponse struct {
	Address    string `json:"address"`
	OrderBook  string `json:"orderBook"`
	EthBalance string `json:"ethBalance"`
}

type tokenResponse struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func newTokenResponse(t wallet.TokenInfo) tokenResponse {
	return tokenResponse{t.Address.Hex(), t.Name, t.Symbol, t.Decimals}
}

type balancesResponse struct {
	Native string            `json:"native"`
	Tokens map[string]string `json:"tokens"`
}

func newBalancesResponse(b *wallet.Balances) balancesResponse {
	tokens := make(map[string]string, len(b.Tokens))
	for token, amount := range b.Tokens {
		tokens[token.Hex()] = amount.String()
	}
	return balancesResponse{b.Native.String(), tokens}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body: %s", errBadRequest, err)
	}
	return nil
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid %s address %q", errBadRequest, name, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(name, s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, s)
	}
	return amount, nil
}

func parseOrderID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid order id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}
