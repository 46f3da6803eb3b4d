package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// NativeAddress is the sentinel address that stands for the chain's native
// currency wherever an asset is referred to by address.
var NativeAddress = common.Address{}

// Asset identifies what an order leg trades: either the native currency or a
// fungible token contract.
type Asset struct {
	native bool
	token  common.Address
}

// NativeAsset returns the native currency asset.
func NativeAsset() Asset {
	return Asset{native: true}
}

// TokenAsset returns the asset of the given token contract. The zero address
// maps to the native asset.
func TokenAsset(token common.Address) Asset {
	return AssetFromAddress(token)
}

// AssetFromAddress decodes the sentinel representation of an asset.
func AssetFromAddress(addr common.Address) Asset {
	if addr == NativeAddress {
		return NativeAsset()
	}
	return Asset{token: addr}
}

func (a Asset) IsNative() bool {
	return a.native || a.token == NativeAddress
}

// Address returns the sentinel representation of the asset.
func (a Asset) Address() common.Address {
	if a.IsNative() {
		return NativeAddress
	}
	return a.token
}

func (a Asset) Equal(other Asset) bool {
	return a.Address() == other.Address()
}

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return a.token.Hex()
}
