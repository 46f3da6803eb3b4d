package dbbadger

import (
	"context"
	"errors"
	"math/big"

	"github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/timshannon/badgerhold/v4"
)

type balanceRepositoryImpl struct {
	store *badgerhold.Store
}

func (r balanceRepositoryImpl) GetBalance(
	ctx context.Context, asset, holder common.Address,
) (*big.Int, error) {
	var record Balance
	err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxGet(tx, balanceKey(asset, holder), &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return amountFromString(record.Amount)
}

func (r balanceRepositoryImpl) SetBalance(
	ctx context.Context, asset, holder common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	record := Balance{
		Asset:  asset.Hex(),
		Holder: holder.Hex(),
		Amount: amount.String(),
	}
	return write[Balance](ctx, r.store, balanceKey(asset, holder), func(tx *badger.Txn) error {
		return r.store.TxUpsert(tx, balanceKey(asset, holder), record)
	})
}

func (r balanceRepositoryImpl) GetBalances(
	ctx context.Context, holder common.Address,
) (map[common.Address]*big.Int, error) {
	var records []Balance
	query := badgerhold.Where("Holder").Eq(holder.Hex())
	if err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxFind(tx, &records, query)
	}); err != nil {
		return nil, err
	}

	balances := make(map[common.Address]*big.Int, len(records))
	for _, record := range records {
		amount, err := amountFromString(record.Amount)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			continue
		}
		balances[common.HexToAddress(record.Asset)] = amount
	}
	return balances, nil
}

func (r balanceRepositoryImpl) GetAllowance(
	ctx context.Context, token, owner, spender common.Address,
) (*big.Int, error) {
	var record Allowance
	err := withTx(ctx, r.store, true, func(tx *badger.Txn) error {
		return r.store.TxGet(tx, allowanceKey(token, owner, spender), &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return amountFromString(record.Amount)
}

func (r balanceRepositoryImpl) SetAllowance(
	ctx context.Context, token, owner, spender common.Address, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	record := Allowance{
		Token:   token.Hex(),
		Owner:   owner.Hex(),
		Spender: spender.Hex(),
		Amount:  amount.String(),
	}
	return write[Allowance](ctx, r.store, allowanceKey(token, owner, spender), func(tx *badger.Txn) error {
		return r.store.TxUpsert(tx, allowanceKey(token, owner, spender), record)
	})
}

func balanceKey(asset, holder common.Address) string {
	return asset.Hex() + "/" + holder.Hex()
}

func allowanceKey(token, owner, spender common.Address) string {
	return token.Hex() + "/" + owner.Hex() + "/" + spender.Hex()
}
