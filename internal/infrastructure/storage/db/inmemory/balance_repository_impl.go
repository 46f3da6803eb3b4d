package inmemory

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// balanceRepositoryImpl stores both balances and allowances as plain
// amounts keyed by their owners.
type balanceRepositoryImpl struct {
	store *store
}

func (r balanceRepositoryImpl) GetBalance(
	ctx context.Context, asset, holder common.Address,
) (*big.Int, error) {
	return r.getAmount(ctx, balanceKey(asset, holder)), nil
}

func (r balanceRepositoryImpl) SetBalance(
	ctx context.Context, asset, holder common.Address, amount *big.Int,
) error {
	return r.setAmount(ctx, balanceKey(asset, holder), amount)
}

func (r balanceRepositoryImpl) GetBalances(
	ctx context.Context, holder common.Address,
) (map[common.Address]*big.Int, error) {
	balances := make(map[common.Address]*big.Int)
	suffix := "/" + holder.Hex()
	for _, v := range r.store.scan(ctx, "balance/") {
		entry := v.(balanceEntry)
		if !strings.HasSuffix(entry.key, suffix) || entry.amount.Sign() == 0 {
			continue
		}
		balances[entry.asset] = new(big.Int).Set(entry.amount)
	}
	return balances, nil
}

func (r balanceRepositoryImpl) GetAllowance(
	ctx context.Context, token, owner, spender common.Address,
) (*big.Int, error) {
	return r.getAmount(ctx, allowanceKey(token, owner, spender)), nil
}

func (r balanceRepositoryImpl) SetAllowance(
	ctx context.Context, token, owner, spender common.Address, amount *big.Int,
) error {
	return r.setAmount(ctx, allowanceKey(token, owner, spender), amount)
}

type balanceEntry struct {
	key    string
	asset  common.Address
	amount *big.Int
}

func (r balanceRepositoryImpl) getAmount(ctx context.Context, key string) *big.Int {
	v, ok := r.store.get(ctx, key)
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v.(balanceEntry).amount)
}

func (r balanceRepositoryImpl) setAmount(
	ctx context.Context, key string, amount *big.Int,
) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	asset := common.HexToAddress(strings.Split(key, "/")[1])
	return r.store.put(ctx, key, balanceEntry{
		key:    key,
		asset:  asset,
		amount: new(big.Int).Set(amount),
	})
}

func balanceKey(asset, holder common.Address) string {
	return "balance/" + asset.Hex() + "/" + holder.Hex()
}

func allowanceKey(token, owner, spender common.Address) string {
	return "allowance/" + token.Hex() + "/" + owner.Hex() + "/" + spender.Hex()
}
