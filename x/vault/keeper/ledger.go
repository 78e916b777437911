package keeper

import (
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// Share balances and allowances are plain ledger entries keyed by pool.
// Shares are not bank coins; they only exist inside this module.

func shareBalanceKey(poolID, holder string) []byte {
	return append(ShareBalanceKeyPrefix, []byte(poolID+"/"+holder)...)
}

func shareAllowanceKey(poolID, owner, spender string) []byte {
	return append(ShareAllowanceKeyPrefix, []byte(poolID+"/"+owner+"/"+spender)...)
}

// GetShareBalance returns holder's share balance in a pool.
func (k *Keeper) GetShareBalance(ctx sdk.Context, poolID, holder string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(shareBalanceKey(poolID, holder))
	if bz == nil {
		return math.ZeroInt()
	}
	var bal math.Int
	if err := bal.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return bal
}

func (k *Keeper) setShareBalance(ctx sdk.Context, poolID, holder string, balance math.Int) {
	store := k.GetStore(ctx)
	key := shareBalanceKey(poolID, holder)
	if balance.IsZero() {
		store.Delete(key)
		return
	}
	bz, _ := balance.Marshal()
	store.Set(key, bz)
}

// GetShareAllowance returns what spender may move out of owner's balance.
func (k *Keeper) GetShareAllowance(ctx sdk.Context, poolID, owner, spender string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(shareAllowanceKey(poolID, owner, spender))
	if bz == nil {
		return math.ZeroInt()
	}
	var allowance math.Int
	if err := allowance.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return allowance
}

// SetShareAllowance replaces an allowance outright.
func (k *Keeper) SetShareAllowance(ctx sdk.Context, poolID, owner, spender string, amount math.Int) {
	store := k.GetStore(ctx)
	key := shareAllowanceKey(poolID, owner, spender)
	if amount.IsZero() {
		store.Delete(key)
		return
	}
	bz, _ := amount.Marshal()
	store.Set(key, bz)
}

// spendAllowance deducts amount from owner->spender allowance. The owner
// acting on their own balance needs no allowance.
func (k *Keeper) spendAllowance(ctx sdk.Context, poolID, owner, spender string, amount math.Int) error {
	if owner == spender {
		return nil
	}
	allowance := k.GetShareAllowance(ctx, poolID, owner, spender)
	if allowance.LT(amount) {
		return types.ErrInsufficientAllowance.Wrapf("allowance %s, need %s", allowance, amount)
	}
	k.SetShareAllowance(ctx, poolID, owner, spender, allowance.Sub(amount))
	return nil
}

// mintShares credits newly created shares to holder and grows the supply.
func (k *Keeper) mintShares(ctx sdk.Context, pool *types.Pool, holder string, amount math.Int) {
	if amount.IsZero() {
		return
	}
	bal := k.GetShareBalance(ctx, pool.PoolID, holder)
	k.setShareBalance(ctx, pool.PoolID, holder, bal.Add(amount))
	pool.TotalShares = pool.TotalShares.Add(amount)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSharesMinted,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeOwner, holder),
		sdk.NewAttribute(types.AttributeShares, amount.String()),
	))
}

// burnShares removes shares from holder and shrinks the supply.
func (k *Keeper) burnShares(ctx sdk.Context, pool *types.Pool, holder string, amount math.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal := k.GetShareBalance(ctx, pool.PoolID, holder)
	if bal.LT(amount) {
		return types.ErrInsufficientShares.Wrapf("balance %s, need %s", bal, amount)
	}
	k.setShareBalance(ctx, pool.PoolID, holder, bal.Sub(amount))
	pool.TotalShares = pool.TotalShares.Sub(amount)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSharesBurned,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeOwner, holder),
		sdk.NewAttribute(types.AttributeShares, amount.String()),
	))
	return nil
}

// TransferShares moves shares between holders without touching supply.
func (k *Keeper) TransferShares(ctx sdk.Context, poolID, from, to string, amount math.Int) error {
	if !amount.IsPositive() {
		return types.ErrZeroAmount
	}
	fromBal := k.GetShareBalance(ctx, poolID, from)
	if fromBal.LT(amount) {
		return types.ErrInsufficientShares.Wrapf("balance %s, need %s", fromBal, amount)
	}
	k.setShareBalance(ctx, poolID, from, fromBal.Sub(amount))
	toBal := k.GetShareBalance(ctx, poolID, to)
	k.setShareBalance(ctx, poolID, to, toBal.Add(amount))

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSharesTransferred,
		sdk.NewAttribute(types.AttributePoolID, poolID),
		sdk.NewAttribute(types.AttributeFrom, from),
		sdk.NewAttribute(types.AttributeTo, to),
		sdk.NewAttribute(types.AttributeShares, amount.String()),
	))
	return nil
}

// GetAllShareBalances returns every holder balance for a pool.
func (k *Keeper) GetAllShareBalances(ctx sdk.Context, poolID string) map[string]math.Int {
	store := k.GetStore(ctx)
	prefix := append(ShareBalanceKeyPrefix, []byte(poolID+"/")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	out := make(map[string]math.Int)
	for ; iterator.Valid(); iterator.Next() {
		holder := string(iterator.Key()[len(prefix):])
		var bal math.Int
		if err := bal.Unmarshal(iterator.Value()); err != nil {
			continue
		}
		out[holder] = bal
	}
	return out
}
