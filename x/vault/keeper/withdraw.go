package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// Withdraw pays out principal against the owner's shares. The share cost
// is rounded up so the pool is never undercharged; an "all" amount burns
// the owner's whole balance at the floor-converted value instead, which
// never strands dust.
func (k *Keeper) Withdraw(ctx sdk.Context, poolID, caller, owner, receiver string, amount types.Amount) (*types.WithdrawalReceipt, error) {
	return k.payOut(ctx, poolID, caller, owner, receiver, amount, false)
}

// Redeem is the share-exact exit: the caller names shares to burn and
// receives their floor-converted principal value.
func (k *Keeper) Redeem(ctx sdk.Context, poolID, caller, owner, receiver string, shares types.Amount) (*types.WithdrawalReceipt, error) {
	return k.payOut(ctx, poolID, caller, owner, receiver, shares, true)
}

// payOut is the shared exit path. shareExact selects whether amount is
// denominated in shares (redeem) or principal (withdraw).
func (k *Keeper) payOut(ctx sdk.Context, poolID, caller, owner, receiver string, amount types.Amount, shareExact bool) (*types.WithdrawalReceipt, error) {
	var receipt *types.WithdrawalReceipt
	err := k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if !pool.IsActive() {
			return types.ErrPoolPaused.Wrapf("pool %s is %s", poolID, pool.Status)
		}
		if receiver == "" {
			return types.ErrNilReceiver
		}
		if amount.IsZero() {
			return types.ErrZeroAmount
		}

		if _, err := k.crystallize(ctx, pool); err != nil {
			return err
		}

		total, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		balance := k.GetShareBalance(ctx, poolID, owner)

		// resolve the request into a (shares burned, assets owed) pair
		var shares, assets math.Int
		switch {
		case amount.All:
			shares = balance
			assets = pool.ConvertToAssets(shares, total)
		case shareExact:
			shares = amount.Value
			assets = pool.ConvertToAssets(shares, total)
		default:
			assets = amount.Value
			shares = pool.ConvertToSharesUp(assets, total)
		}
		if !shares.IsPositive() {
			return types.ErrZeroAmount.Wrap("nothing to burn")
		}
		if balance.LT(shares) {
			return types.ErrInsufficientShares.Wrapf("balance %s, need %s", balance, shares)
		}
		if err := k.spendAllowance(ctx, poolID, owner, caller, shares); err != nil {
			return err
		}

		// recover principal from the strategy if idle custody is short
		if pool.IdleBalance.LT(assets) {
			if _, err := k.divestThroughStrategy(ctx, pool, assets.Sub(pool.IdleBalance), nil); err != nil {
				return err
			}
		}
		payout := assets
		if pool.IdleBalance.LT(payout) {
			payout = pool.IdleBalance
		}
		// adapter rounding may come back a hair short; anything beyond
		// the tolerance is a real shortfall, not rounding
		deficit := assets.Sub(payout)
		tolerance := assets.MulRaw(types.WithdrawalToleranceBps).QuoRaw(types.BpsDivisor)
		if deficit.GT(tolerance) {
			return types.ErrLiquidityShortfall.Wrapf("owed %s, recovered %s", assets, payout)
		}

		if err := k.burnShares(ctx, pool, owner, shares); err != nil {
			return err
		}

		receiverAddr, err := sdk.AccAddressFromBech32(receiver)
		if err != nil {
			return err
		}
		coins := sdk.NewCoins(sdk.NewCoin(pool.PrincipalAsset, payout))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, receiverAddr, coins); err != nil {
			return err
		}
		pool.IdleBalance = pool.IdleBalance.Sub(payout)

		assets1, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		ratio := pool.Ratio(assets1)
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		receipt = types.NewWithdrawalReceipt(poolID, owner, receiver,
			payout, shares, ratio, ctx.BlockHeight())
		k.SetWithdrawalReceipt(ctx, receipt)

		stats := k.GetPoolStats(ctx, poolID)
		if stats == nil {
			stats = types.NewPoolStats(poolID)
		}
		stats.TotalWithdrawn = stats.TotalWithdrawn.Add(payout)
		stats.TotalValueLocked = assets1
		stats.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPoolStats(ctx, stats)

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributePoolID, poolID),
			sdk.NewAttribute(types.AttributeOwner, owner),
			sdk.NewAttribute(types.AttributeReceiver, receiver),
			sdk.NewAttribute(types.AttributeAssets, payout.String()),
			sdk.NewAttribute(types.AttributeShares, shares.String()),
			sdk.NewAttribute(types.AttributeRatioAfter, ratio.String()),
		))
		k.logger.Info("withdrawal processed",
			"pool_id", poolID,
			"owner", owner,
			"assets", payout.String(),
			"shares", shares.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
