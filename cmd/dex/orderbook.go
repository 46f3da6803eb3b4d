package main

import (
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"
)

type orderInfo struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	TokenToSell string `json:"tokenToSell"`
	TokenToBuy  string `json:"tokenToBuy"`
	SellAmount  string `json:"sellAmount"`
	BuyAmount   string `json:"buyAmount"`
	Status      string `json:"status"`
	Price       string `json:"price"`
}

type orderBookInfo struct {
	Address        string `json:"address"`
	Owner          string `json:"owner"`
	TokenManager   string `json:"tokenManager"`
	TradeContract  string `json:"tradeContract"`
	RestrictTokens bool   `json:"restrictTokens"`
	OrderCounter   uint64 `json:"orderCounter"`
	EthBalance     string `json:"ethBalance"`
}

var info = cli.Command{
	Name:   "info",
	Usage:  "get info about the exchange contracts",
	Action: infoAction,
}

var listorders = cli.Command{
	Name:  "orders",
	Usage: "list orders, optionally filtered by status and creator",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "status",
			Usage: "one of active, pending, completed, cancelled",
		},
		&cli.StringFlag{
			Name:  "creator",
			Usage: "the address of the order creator",
		},
	},
	Action: listOrdersAction,
}

var getorder = cli.Command{
	Name:  "order",
	Usage: "get an order by id",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:     "id",
			Usage:    "the id of the order",
			Required: true,
		},
	},
	Action: getOrderAction,
}

var createorder = cli.Command{
	Name:  "createorder",
	Usage: "create an order selling some asset for another",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:  "sell_asset",
			Usage: "the token to sell, native currency if omitted",
		},
		&cli.StringFlag{
			Name:     "sell_amount",
			Usage:    "the amount to sell in whole units",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "buy_asset",
			Usage: "the token to buy, native currency if omitted",
		},
		&cli.StringFlag{
			Name:     "buy_amount",
			Usage:    "the amount to buy in whole units",
			Required: true,
		},
	},
	Action: createOrderAction,
}

var cancelorder = cli.Command{
	Name:  "cancelorder",
	Usage: "cancel an active order and get the escrowed funds back",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.Uint64Flag{
			Name:     "id",
			Usage:    "the id of the order",
			Required: true,
		},
	},
	Action: cancelOrderAction,
}

var executeorder = cli.Command{
	Name:  "executeorder",
	Usage: "fill an active order paying its buy amount",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.Uint64Flag{
			Name:     "id",
			Usage:    "the id of the order",
			Required: true,
		},
	},
	Action: executeOrderAction,
}

var settradecontract = cli.Command{
	Name:  "settradecontract",
	Usage: "set the contract allowed to settle orders",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address of the trade contract",
			Required: true,
		},
	},
	Action: setTradeContractAction,
}

var togglerestriction = cli.Command{
	Name:  "togglerestriction",
	Usage: "enable or disable the token allow-list for new orders",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.BoolFlag{
			Name:  "enable",
			Usage: "whether to restrict orders to supported tokens",
		},
	},
	Action: toggleRestrictionAction,
}

func infoAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	var orderBook orderBookInfo
	if err := c.get("/v1/orderbook", &orderBook); err != nil {
		return err
	}
	var trade map[string]interface{}
	if err := c.get("/v1/trade", &trade); err != nil {
		return err
	}
	var tokenManager map[string]interface{}
	if err := c.get("/v1/tokenmanager", &tokenManager); err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"orderBook":    orderBook,
		"trade":        trade,
		"tokenManager": tokenManager,
	})
	return nil
}

func listOrdersAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if status := ctx.String("status"); status != "" {
		query.Set("status", status)
	}
	if creator := ctx.String("creator"); creator != "" {
		query.Set("creator", creator)
	}
	path := "/v1/orders"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var orders []orderInfo
	if err := c.get(path, &orders); err != nil {
		return err
	}

	printRespJSON(orders)
	return nil
}

func getOrderAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	order, err := getOrder(c, ctx.Uint64("id"))
	if err != nil {
		return err
	}

	printRespJSON(order)
	return nil
}

func createOrderAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	sellAsset, buyAsset := ctx.String("sell_asset"), ctx.String("buy_asset")
	if isNative(sellAsset) {
		sellAsset = nativeAsset
	}
	if isNative(buyAsset) {
		buyAsset = nativeAsset
	}
	sellAmount, err := parseAmount(c, sellAsset, ctx.String("sell_amount"))
	if err != nil {
		return err
	}
	buyAmount, err := parseAmount(c, buyAsset, ctx.String("buy_amount"))
	if err != nil {
		return err
	}

	req := map[string]string{
		"from":        from,
		"tokenToSell": sellAsset,
		"tokenToBuy":  buyAsset,
		"sellAmount":  sellAmount,
		"buyAmount":   buyAmount,
	}
	if isNative(sellAsset) {
		req["value"] = sellAmount
	} else {
		var orderBook orderBookInfo
		if err := c.get("/v1/orderbook", &orderBook); err != nil {
			return err
		}
		if err := approveSpender(c, from, sellAsset, orderBook.Address, sellAmount); err != nil {
			return err
		}
	}

	var reply struct {
		ID uint64 `json:"id"`
	}
	if err := c.post("/v1/orders", req, &reply); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("order id:", reply.ID)
	return nil
}

func cancelOrderAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	id := ctx.Uint64("id")
	path := fmt.Sprintf("/v1/orders/%d/cancel", id)
	if err := c.post(path, map[string]string{"from": from}, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("order %d cancelled\n", id)
	return nil
}

func executeOrderAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	id := ctx.Uint64("id")
	order, err := getOrder(c, id)
	if err != nil {
		return err
	}

	req := map[string]string{"from": from}
	if isNative(order.TokenToBuy) {
		req["value"] = order.BuyAmount
	} else {
		var trade struct {
			Address string `json:"address"`
		}
		if err := c.get("/v1/trade", &trade); err != nil {
			return err
		}
		if err := approveSpender(
			c, from, order.TokenToBuy, trade.Address, order.BuyAmount,
		); err != nil {
			return err
		}
	}

	if err := c.post(fmt.Sprintf("/v1/orders/%d/execute", id), req, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("order %d executed\n", id)
	return nil
}

func setTradeContractAction(ctx *cli.Context) error {
	return ownerAction(ctx, "/v1/orderbook/trade-contract", map[string]interface{}{
		"address": ctx.String("address"),
	}, "trade contract updated")
}

func toggleRestrictionAction(ctx *cli.Context) error {
	return ownerAction(ctx, "/v1/orderbook/restriction", map[string]interface{}{
		"enabled": ctx.Bool("enable"),
	}, "token restriction updated")
}

func getOrder(c *client, id uint64) (*orderInfo, error) {
	var order orderInfo
	if err := c.get(fmt.Sprintf("/v1/orders/%d", id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ownerAction posts an administrative request signed by the sender account.
func ownerAction(
	ctx *cli.Context, path string, req map[string]interface{}, done string,
) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}
	req["from"] = from

	if err := c.post(path, req, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(done)
	return nil
}
