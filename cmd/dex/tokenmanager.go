package main

import (
	"github.com/urfave/cli/v2"
)

var tokenmanager = cli.Command{
	Name:   "tokenmanager",
	Usage:  "get the token allow-list",
	Action: tokenManagerAction,
}

var addtoken = cli.Command{
	Name:  "addtoken",
	Usage: "add a token to the allow-list",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address of the token",
			Required: true,
		},
	},
	Action: addTokenAction,
}

var removetoken = cli.Command{
	Name:  "removetoken",
	Usage: "remove a token from the allow-list",
	Flags: []cli.Flag{
		&fromFlag,
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address of the token",
			Required: true,
		},
	},
	Action: removeTokenAction,
}

func tokenManagerAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	var reply map[string]interface{}
	if err := c.get("/v1/tokenmanager", &reply); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func addTokenAction(ctx *cli.Context) error {
	return ownerAction(ctx, "/v1/tokenmanager/tokens", map[string]interface{}{
		"address": ctx.String("address"),
	}, "token added")
}

func removeTokenAction(ctx *cli.Context) error {
	return ownerAction(ctx, "/v1/tokenmanager/tokens/remove", map[string]interface{}{
		"address": ctx.String("address"),
	}, "token removed")
}
