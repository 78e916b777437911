package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// Deposit moves assets from the depositor into the pool, pushes them
// through the active strategy and credits the resulting shares to the
// receiver. Ordering is fixed: crystallize first, snapshot the baseline,
// then invest, then settle shares against the pre-investment baseline.
func (k *Keeper) Deposit(ctx sdk.Context, poolID, depositor, receiver string, assets math.Int, auxData []byte) (*types.DepositReceipt, error) {
	var receipt *types.DepositReceipt
	err := k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if !pool.IsActive() {
			return types.ErrPoolPaused.Wrapf("pool %s is %s", poolID, pool.Status)
		}
		if !assets.IsPositive() {
			return types.ErrZeroAmount
		}
		if receiver == "" {
			return types.ErrNilReceiver
		}

		if _, err := k.crystallize(ctx, pool); err != nil {
			return err
		}

		// baseline for share conversion, after fee dilution and before
		// this deposit moves anything
		supply0 := pool.TotalShares
		assets0, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}

		// pull principal into pool custody
		depositorAddr, err := sdk.AccAddressFromBech32(depositor)
		if err != nil {
			return err
		}
		coins := sdk.NewCoins(sdk.NewCoin(pool.PrincipalAsset, assets))
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, depositorAddr, types.ModuleName, coins); err != nil {
			return err
		}
		pool.IdleBalance = pool.IdleBalance.Add(assets)

		res, err := k.investThroughStrategy(ctx, pool, assets, auxData)
		if err != nil {
			return err
		}

		settle := types.SettleEntry(res.Accounted, res.EntryGain, pool.PerformanceFeeBps, supply0, assets0)
		if !settle.DepositorShares.IsPositive() {
			return types.ErrZeroAmount.Wrap("deposit too small for one share")
		}

		k.mintShares(ctx, pool, pool.FeeCollector, settle.FeeShares)
		k.mintShares(ctx, pool, receiver, settle.DepositorShares)

		// the entry gain is now fully fee-settled; the mark absorbs the
		// post-mint ratio so it is not charged again
		assets1, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		ratio := pool.Ratio(assets1)
		pool.RefreshHighWaterMark(ratio)
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		receipt = types.NewDepositReceipt(poolID, depositor, receiver,
			assets, settle.DepositorShares, settle.FeeShares, ratio, ctx.BlockHeight())
		k.SetDepositReceipt(ctx, receipt)

		k.bumpDepositStats(ctx, pool, assets, settle.FeeShares, assets1)

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributePoolID, poolID),
			sdk.NewAttribute(types.AttributeDepositor, depositor),
			sdk.NewAttribute(types.AttributeReceiver, receiver),
			sdk.NewAttribute(types.AttributeAssets, assets.String()),
			sdk.NewAttribute(types.AttributeShares, settle.DepositorShares.String()),
			sdk.NewAttribute(types.AttributeFeeShares, settle.FeeShares.String()),
			sdk.NewAttribute(types.AttributeRatioAfter, ratio.String()),
		))
		k.logger.Info("deposit processed",
			"pool_id", poolID,
			"depositor", depositor,
			"assets", assets.String(),
			"shares", settle.DepositorShares.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Mint is the share-exact entry: the caller names the shares they want
// and pays whatever principal that costs at the current ratio, rounded
// up. The adapter must account at least the requested claim or the mint
// fails rather than short the caller.
func (k *Keeper) Mint(ctx sdk.Context, poolID, depositor, receiver string, shares math.Int) (*types.DepositReceipt, error) {
	var receipt *types.DepositReceipt
	err := k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if !pool.IsActive() {
			return types.ErrPoolPaused.Wrapf("pool %s is %s", poolID, pool.Status)
		}
		if !shares.IsPositive() {
			return types.ErrZeroAmount
		}
		if receiver == "" {
			return types.ErrNilReceiver
		}

		if _, err := k.crystallize(ctx, pool); err != nil {
			return err
		}

		supply0 := pool.TotalShares
		assets0, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		required := pool.ConvertToAssetsUp(shares, assets0)
		if !required.IsPositive() {
			return types.ErrZeroAmount.Wrap("share amount prices to zero principal")
		}

		depositorAddr, err := sdk.AccAddressFromBech32(depositor)
		if err != nil {
			return err
		}
		coins := sdk.NewCoins(sdk.NewCoin(pool.PrincipalAsset, required))
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, depositorAddr, types.ModuleName, coins); err != nil {
			return err
		}
		pool.IdleBalance = pool.IdleBalance.Add(required)

		res, err := k.investThroughStrategy(ctx, pool, required, nil)
		if err != nil {
			return err
		}

		settle := types.SettleEntry(res.Accounted, res.EntryGain, pool.PerformanceFeeBps, supply0, assets0)
		if settle.DepositorShares.LT(shares) {
			return types.ErrSlippage.Wrapf("minted %s shares for %s requested", settle.DepositorShares, shares)
		}

		k.mintShares(ctx, pool, pool.FeeCollector, settle.FeeShares)
		k.mintShares(ctx, pool, receiver, settle.DepositorShares)

		assets1, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		ratio := pool.Ratio(assets1)
		pool.RefreshHighWaterMark(ratio)
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		receipt = types.NewDepositReceipt(poolID, depositor, receiver,
			required, settle.DepositorShares, settle.FeeShares, ratio, ctx.BlockHeight())
		k.SetDepositReceipt(ctx, receipt)

		k.bumpDepositStats(ctx, pool, required, settle.FeeShares, assets1)

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributePoolID, poolID),
			sdk.NewAttribute(types.AttributeDepositor, depositor),
			sdk.NewAttribute(types.AttributeReceiver, receiver),
			sdk.NewAttribute(types.AttributeAssets, required.String()),
			sdk.NewAttribute(types.AttributeShares, settle.DepositorShares.String()),
			sdk.NewAttribute(types.AttributeFeeShares, settle.FeeShares.String()),
			sdk.NewAttribute(types.AttributeRatioAfter, ratio.String()),
		))
		k.logger.Info("mint processed",
			"pool_id", poolID,
			"depositor", depositor,
			"assets", required.String(),
			"shares", settle.DepositorShares.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (k *Keeper) bumpDepositStats(ctx sdk.Context, pool *types.Pool, assets, feeShares, tvl math.Int) {
	stats := k.GetPoolStats(ctx, pool.PoolID)
	if stats == nil {
		stats = types.NewPoolStats(pool.PoolID)
	}
	stats.TotalDeposited = stats.TotalDeposited.Add(assets)
	stats.TotalFeeShares = stats.TotalFeeShares.Add(feeShares)
	stats.TotalValueLocked = tvl
	stats.TotalDepositors++
	stats.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPoolStats(ctx, stats)
}
