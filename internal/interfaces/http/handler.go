package httpinterface

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ethereum/go-ethereum/common"
)

func (s *Service) registerRoutes(mux *http.ServeMux) {
	// OrderBook
	s.handle(mux, "GET /v1/orderbook", s.getOrderBook)
	s.handle(mux, "POST /v1/orderbook/trade-contract", s.setTradeContract)
	s.handle(mux, "POST /v1/orderbook/restriction", s.toggleTokenRestriction)
	s.handle(mux, "POST /v1/orderbook/owner", s.transferOrderBookOwnership)
	s.handle(mux, "GET /v1/orders", s.listOrders)
	s.handle(mux, "POST /v1/orders", s.createOrder)
	s.handle(mux, "GET /v1/orders/{id}", s.getOrder)
	s.handle(mux, "GET /v1/orders/{id}/active", s.isOrderActive)
	s.handle(mux, "POST /v1/orders/{id}/cancel", s.cancelOrder)
	// Trade
	s.handle(mux, "GET /v1/trade", s.getTrade)
	s.handle(mux, "POST /v1/orders/{id}/execute", s.executeOrder)
	// TokenManager
	s.handle(mux, "GET /v1/tokenmanager", s.getTokenManager)
	s.handle(mux, "GET /v1/tokenmanager/tokens/{address}", s.isTokenSupported)
	s.handle(mux, "POST /v1/tokenmanager/tokens", s.addToken)
	s.handle(mux, "POST /v1/tokenmanager/tokens/remove", s.removeToken)
	s.handle(mux, "POST /v1/tokenmanager/owner", s.transferTokenManagerOwnership)
	// Wallet
	s.handle(mux, "GET /v1/tokens", s.listTokens)
	s.handle(mux, "POST /v1/tokens/{address}/approve", s.approve)
	s.handle(mux, "POST /v1/tokens/{address}/mint", s.mint)
	s.handle(mux, "POST /v1/tokens/{address}/transfer", s.transferToken)
	s.handle(mux, "GET /v1/accounts/{address}/balances", s.getBalances)
	s.handle(mux, "POST /v1/native/transfer", s.send)
	s.handle(mux, "POST /v1/native/faucet", s.faucet)
	// Webhooks
	s.handle(mux, "GET /v1/webhooks", s.listWebhooks)
	s.handle(mux, "POST /v1/webhooks", s.addWebhook)
	s.handle(mux, "DELETE /v1/webhooks/{id}", s.removeWebhook)
}

func (s *Service) getOrderBook(w http.ResponseWriter, r *http.Request) {
	orderBook := s.opts.Exchange.OrderBook
	info, err := orderBook.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := orderBook.GetEthBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderBookResponse{
		Address:        info.Address.Hex(),
		Owner:          info.Owner.Hex(),
		TokenManager:   info.TokenManager.Hex(),
		TradeContract:  info.TradeContract.Hex(),
		RestrictTokens: info.RestrictTokens,
		OrderCounter:   info.OrderCounter,
		EthBalance:     balance.String(),
	})
}

func (s *Service) setTradeContract(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	opts, address, err := parseAddressRequest(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.OrderBook.SetTradeContract(r.Context(), opts, address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) toggleTokenRestriction(w http.ResponseWriter, r *http.Request) {
	var req restrictionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts, err := req.opts()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.OrderBook.ToggleTokenRestriction(
		r.Context(), opts, req.Enabled,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) transferOrderBookOwnership(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	opts, address, err := parseAddressRequest(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.OrderBook.TransferOwnership(r.Context(), opts, address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter domain.OrderFilter
	query := r.URL.Query()
	if v := query.Get("status"); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %s", errBadRequest, err))
			return
		}
		filter.Status = &status
	}
	if v := query.Get("creator"); v != "" {
		creator, err := parseAddress("creator", v)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Creator = &creator
	}

	orders, err := s.opts.Exchange.OrderBook.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts, err := req.opts()
	if err != nil {
		writeError(w, err)
		return
	}
	tokenToSell, err := parseAddress("tokenToSell", req.TokenToSell)
	if err != nil {
		writeError(w, err)
		return
	}
	tokenToBuy, err := parseAddress("tokenToBuy", req.TokenToBuy)
	if err != nil {
		writeError(w, err)
		return
	}
	sellAmount, err := parseAmount("sellAmount", req.SellAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	buyAmount, err := parseAmount("buyAmount", req.BuyAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.opts.Exchange.OrderBook.CreateOrder(
		r.Context(), opts, tokenToSell, tokenToBuy, sellAmount, buyAmount,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"id": id})
}

func (s *Service) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := s.opts.Exchange.OrderBook.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	// The contract view yields an empty order for unknown ids.
	if order.ID == 0 {
		writeError(w, domain.ErrOrderDoesNotExist)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (s *Service) isOrderActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	active, err := s.opts.Exchange.OrderBook.IsOrderActive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *Service) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, opts, err := parseOrderRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.OrderBook.CancelOrder(r.Context(), opts, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) getTrade(w http.ResponseWriter, r *http.Request) {
	trade := s.opts.Exchange.Trade
	balance, err := trade.GetEthBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tradeResponse{
		Address:    trade.Address().Hex(),
		OrderBook:  trade.OrderBookAddress().Hex(),
		EthBalance: balance.String(),
	})
}

func (s *Service) executeOrder(w http.ResponseWriter, r *http.Request) {
	id, opts, err := parseOrderRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.Trade.ExecuteOrder(r.Context(), opts, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) getTokenManager(w http.ResponseWriter, r *http.Request) {
	info, err := s.opts.Exchange.TokenManager.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	tokens := make([]string, 0, len(info.SupportedTokens))
	for _, t := range info.Tokens() {
		tokens = append(tokens, t.Hex())
	}
	writeJSON(w, http.StatusOK, tokenManagerResponse{
		Address: info.Address.Hex(),
		Owner:   info.Owner.Hex(),
		Tokens:  tokens,
	})
}

func (s *Service) isTokenSupported(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress("token", r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	supported, err := s.opts.Exchange.TokenManager.IsTokenSupported(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"supported": supported})
}

func (s *Service) addToken(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	opts, token, err := parseAddressRequest(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.TokenManager.AddToken(r.Context(), opts, token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) removeToken(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	opts, token, err := parseAddressRequest(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.TokenManager.RemoveToken(r.Context(), opts, token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) transferTokenManagerOwnership(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	opts, address, err := parseAddressRequest(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Exchange.TokenManager.TransferOwnership(
		r.Context(), opts, address,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) listTokens(w http.ResponseWriter, _ *http.Request) {
	tokens := s.opts.WalletSvc.Tokens()
	resp := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, newTokenResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) approve(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress("token", r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req approveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts, err := req.opts()
	if err != nil {
		writeError(w, err)
		return
	}
	spender, err := parseAddress("spender", req.Spender)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.WalletSvc.Approve(r.Context(), opts, token, spender, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) mint(w http.ResponseWriter, r *http.Request) {
	s.tokenTransfer(w, r, s.opts.WalletSvc.MintToken)
}

func (s *Service) transferToken(w http.ResponseWriter, r *http.Request) {
	s.tokenTransfer(w, r, s.opts.WalletSvc.TransferToken)
}

type tokenTransferFunc func(
	ctx context.Context, opts executor.TxOpts,
	token, to common.Address, amount *big.Int,
) error

func (s *Service) tokenTransfer(
	w http.ResponseWriter, r *http.Request, transfer tokenTransferFunc,
) {
	token, err := parseAddress("token", r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts, to, amount, err := parseTransferRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := transfer(r.Context(), opts, token, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) getBalances(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress("account", r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	balances, err := s.opts.WalletSvc.Balances(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalancesResponse(balances))
}

func (s *Service) send(w http.ResponseWriter, r *http.Request) {
	opts, to, amount, err := parseTransferRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.WalletSvc.Send(r.Context(), opts, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) faucet(w http.ResponseWriter, r *http.Request) {
	opts, to, amount, err := parseTransferRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.WalletSvc.Faucet(r.Context(), opts, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Service) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.opts.PubSubSvc.ListWebhooks(r.Context(), r.URL.Query().Get("event"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hooks)
}

func (s *Service) addWebhook(w http.ResponseWriter, r *http.Request) {
	var req addWebhookRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := s.opts.PubSubSvc.AddWebhook(r.Context(), req.Event, req.Endpoint, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Service) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.PubSubSvc.RemoveWebhook(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func parseAddressRequest(
	w http.ResponseWriter, r *http.Request, req *addressRequest,
) (executor.TxOpts, common.Address, error) {
	if err := decodeBody(w, r, req); err != nil {
		return executor.TxOpts{}, common.Address{}, err
	}
	opts, err := req.opts()
	if err != nil {
		return executor.TxOpts{}, common.Address{}, err
	}
	address, err := parseAddress("address", req.Address)
	if err != nil {
		return executor.TxOpts{}, common.Address{}, err
	}
	return opts, address, nil
}

func parseTransferRequest(
	w http.ResponseWriter, r *http.Request,
) (executor.TxOpts, common.Address, *big.Int, error) {
	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		return executor.TxOpts{}, common.Address{}, nil, err
	}
	opts, err := req.opts()
	if err != nil {
		return executor.TxOpts{}, common.Address{}, nil, err
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		return executor.TxOpts{}, common.Address{}, nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return executor.TxOpts{}, common.Address{}, nil, err
	}
	return opts, to, amount, nil
}

func parseOrderRequest(
	w http.ResponseWriter, r *http.Request,
) (uint64, executor.TxOpts, error) {
	id, err := parseOrderID(r)
	if err != nil {
		return 0, executor.TxOpts{}, err
	}
	var req txRequest
	if err := decodeBody(w, r, &req); err != nil {
		return 0, executor.TxOpts{}, err
	}
	opts, err := req.opts()
	if err != nil {
		return 0, executor.TxOpts{}, err
	}
	return id, opts, nil
}
