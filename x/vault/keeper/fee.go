package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// crystallize runs the high-water-mark fee pass against the pool's
// current valuation. Fee shares dilute every holder equally; the mark
// moves to the post-dilution ratio so the same profit can never be
// charged twice. Callers run this before reading any baseline for share
// conversion.
func (k *Keeper) crystallize(ctx sdk.Context, pool *types.Pool) (types.Crystallization, error) {
	total, err := k.TotalAssets(ctx, pool)
	if err != nil {
		return types.Crystallization{}, err
	}

	c := types.CrystallizeFee(pool.TotalShares, total, pool.PerformanceFeeBps, pool.HighWaterMark)
	if !c.Charged() {
		// No fee due. The mark stays put so sub-share gains keep
		// accumulating until they are worth at least one fee share.
		return c, nil
	}

	k.mintShares(ctx, pool, pool.FeeCollector, c.FeeShares)
	pool.HighWaterMark = c.NewMark
	pool.UpdatedAt = ctx.BlockTime().Unix()

	if stats := k.GetPoolStats(ctx, pool.PoolID); stats != nil {
		stats.TotalFeeShares = stats.TotalFeeShares.Add(c.FeeShares)
		stats.Crystallizations++
		stats.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPoolStats(ctx, stats)
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeFeeCrystallized,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeRatioBefore, c.P0.String()),
		sdk.NewAttribute(types.AttributeRatioAfter, c.P1.String()),
		sdk.NewAttribute(types.AttributeRatioDelta, c.DeltaP.String()),
		sdk.NewAttribute(types.AttributeFeeShares, c.FeeShares.String()),
		sdk.NewAttribute(types.AttributeFeeRateBps, strconv.FormatInt(pool.PerformanceFeeBps, 10)),
	))
	k.logger.Info("performance fee crystallized",
		"pool_id", pool.PoolID,
		"fee_shares", c.FeeShares.String(),
		"p0", c.P0.String(),
		"p1", c.P1.String(),
	)
	return c, nil
}
