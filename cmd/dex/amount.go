package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

const (
	nativeAsset    = "0x0000000000000000000000000000000000000000"
	nativeDecimals = 18
)

var fromFlag = cli.StringFlag{
	Name:  "from",
	Usage: "the account sending the transaction, defaults to the configured one",
}

// toBaseUnits converts an amount of whole units, like 1.5, to base units
// of an asset with the given decimals.
func toBaseUnits(amount string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", amount)
	}
	if !d.IsPositive() {
		return "", fmt.Errorf("amount must be greater than zero")
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return "", fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return units.String(), nil
}

// fromBaseUnits converts base units to whole units.
func fromBaseUnits(units string, decimals int32) string {
	d, err := decimal.NewFromString(units)
	if err != nil {
		return units
	}
	return d.Shift(-decimals).String()
}

func isNative(asset string) bool {
	return asset == "" || strings.EqualFold(asset, nativeAsset)
}

// assetDecimals returns the decimals of asset, native included.
func assetDecimals(c *client, asset string) (int32, error) {
	if isNative(asset) {
		return nativeDecimals, nil
	}
	tokens, err := listTokens(c)
	if err != nil {
		return 0, err
	}
	for _, t := range tokens {
		if strings.EqualFold(t.Address, asset) {
			return int32(t.Decimals), nil
		}
	}
	return 0, fmt.Errorf("unknown token %s", asset)
}

func parseAmount(c *client, asset, amount string) (string, error) {
	decimals, err := assetDecimals(c, asset)
	if err != nil {
		return "", err
	}
	return toBaseUnits(amount, decimals)
}
