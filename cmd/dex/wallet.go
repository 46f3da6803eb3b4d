package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

type tokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

var listtokens = cli.Command{
	Name:   "tokens",
	Usage:  "list the token contracts known to the chain",
	Action: listTokensAction,
}

var balances = cli.Command{
	Name:  "balances",
	Usage: "get the native and token balances of an account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "account",
			Usage: "the account to inspect, defaults to the configured one",
		},
		&cli.BoolFlag{
			Name:  "base_units",
			Usage: "print balances in base units",
		},
	},
	Action: balancesAction,
}

var approve = cli.Command{
	Name:  "approve",
	Usage: "let a spender move tokens on behalf of the sender",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:     "token",
			Usage:    "the address of the token",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "spender",
			Usage:    "the address allowed to spend",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the allowance in whole units",
			Required: true,
		},
	},
	Action: approveAction,
}

var mint = cli.Command{
	Name:  "mint",
	Usage: "mint new tokens, only the token owner can",
	Flags: tokenTransferFlags(),
	Action: func(ctx *cli.Context) error {
		return tokenTransferAction(ctx, "mint")
	},
}

var transfer = cli.Command{
	Name:  "transfer",
	Usage: "transfer tokens to another account",
	Flags: tokenTransferFlags(),
	Action: func(ctx *cli.Context) error {
		return tokenTransferAction(ctx, "transfer")
	},
}

var send = cli.Command{
	Name:  "send",
	Usage: "send native currency to another account",
	Flags: nativeTransferFlags(),
	Action: func(ctx *cli.Context) error {
		return nativeTransferAction(ctx, "/v1/native/transfer")
	},
}

var faucet = cli.Command{
	Name:  "faucet",
	Usage: "create native currency for an account, only the faucet owner can",
	Flags: nativeTransferFlags(),
	Action: func(ctx *cli.Context) error {
		return nativeTransferAction(ctx, "/v1/native/faucet")
	},
}

func tokenTransferFlags() []cli.Flag {
	return append(nativeTransferFlags(), &cli.StringFlag{
		Name:     "token",
		Usage:    "the address of the token",
		Required: true,
	})
}

func nativeTransferFlags() []cli.Flag {
	return []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the receiving account",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount in whole units",
			Required: true,
		},
	}
}

func listTokensAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	tokens, err := listTokens(c)
	if err != nil {
		return err
	}

	printRespJSON(tokens)
	return nil
}

func balancesAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	account := ctx.String("account")
	if account == "" {
		if account, err = getAccount(ctx); err != nil {
			return err
		}
	}

	var reply struct {
		Native string            `json:"native"`
		Tokens map[string]string `json:"tokens"`
	}
	if err := c.get("/v1/accounts/"+account+"/balances", &reply); err != nil {
		return err
	}
	if ctx.Bool("base_units") {
		printRespJSON(reply)
		return nil
	}

	tokens, err := listTokens(c)
	if err != nil {
		return err
	}
	balances := map[string]string{
		"native": fromBaseUnits(reply.Native, nativeDecimals),
	}
	for _, t := range tokens {
		for address, amount := range reply.Tokens {
			if strings.EqualFold(address, t.Address) {
				balances[t.Symbol] = fromBaseUnits(amount, int32(t.Decimals))
			}
		}
	}

	printRespJSON(balances)
	return nil
}

func approveAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	token := ctx.String("token")
	amount, err := parseAmount(c, token, ctx.String("amount"))
	if err != nil {
		return err
	}
	if err := approveSpender(c, from, token, ctx.String("spender"), amount); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("allowance updated")
	return nil
}

func tokenTransferAction(ctx *cli.Context, op string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	token := ctx.String("token")
	amount, err := parseAmount(c, token, ctx.String("amount"))
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/v1/tokens/%s/%s", token, op)
	if err := c.post(path, map[string]string{
		"from": from, "to": ctx.String("to"), "amount": amount,
	}, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s succeeded\n", op)
	return nil
}

func nativeTransferAction(ctx *cli.Context, path string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	from, err := getAccount(ctx)
	if err != nil {
		return err
	}

	amount, err := toBaseUnits(ctx.String("amount"), nativeDecimals)
	if err != nil {
		return err
	}
	if err := c.post(path, map[string]string{
		"from": from, "to": ctx.String("to"), "amount": amount,
	}, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("native currency sent")
	return nil
}

func listTokens(c *client) ([]tokenInfo, error) {
	var tokens []tokenInfo
	if err := c.get("/v1/tokens", &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func approveSpender(c *client, from, token, spender, amount string) error {
	return c.post("/v1/tokens/"+token+"/approve", map[string]string{
		"from": from, "spender": spender, "amount": amount,
	}, nil)
}
