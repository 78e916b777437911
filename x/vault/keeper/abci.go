package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// RatioObservationInterval is how many blocks apart share-price points
// are recorded.
const RatioObservationInterval = 100

// EndBlocker records a ratio observation for every pool on the sampling
// interval. Observation failures are logged, never fatal: a pool whose
// adapter cannot price itself still produces blocks.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	height := ctx.BlockHeight()
	if height%RatioObservationInterval != 0 {
		return nil
	}
	start := time.Now()

	observed := 0
	for _, pool := range k.GetAllPools(ctx) {
		total, err := k.TotalAssets(ctx, pool)
		if err != nil {
			k.logger.Error("ratio observation skipped",
				"pool_id", pool.PoolID,
				"error", err,
			)
			continue
		}
		k.AppendRatioObservation(ctx, &types.RatioObservation{
			PoolID:      pool.PoolID,
			Ratio:       pool.Ratio(total),
			TotalAssets: total,
			TotalShares: pool.TotalShares,
			BlockHeight: height,
			Timestamp:   ctx.BlockTime().Unix(),
		})
		observed++
	}

	k.logger.Debug("vault EndBlocker completed",
		"block", height,
		"pools_observed", observed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"vault_endblock",
		sdk.NewAttribute("block_height", math.NewInt(height).String()),
		sdk.NewAttribute("pools_observed", math.NewInt(int64(observed)).String()),
	))
	return nil
}
