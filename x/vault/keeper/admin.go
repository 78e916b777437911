package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// InitializePool creates a pool bound to a principal asset and an
// external market. Binding is exactly-once per market: a second pool on
// the same market is rejected rather than silently sharing positions.
func (k *Keeper) InitializePool(ctx sdk.Context, creator string, msg *types.MsgInitializePool) (*types.Pool, error) {
	if k.GetPool(ctx, msg.PoolID) != nil {
		return nil, types.ErrPoolExists.Wrapf("pool %s", msg.PoolID)
	}
	if existing := k.GetPoolByMarket(ctx, msg.Market); existing != nil {
		return nil, types.ErrMarketTaken.Wrapf("market %s already bound to pool %s", msg.Market, existing.PoolID)
	}
	if msg.FeeRateBps < 0 || msg.FeeRateBps > types.MaxPerformanceFeeBps {
		return nil, types.ErrFeeRateTooHigh.Wrapf("rate %d bps, cap %d", msg.FeeRateBps, types.MaxPerformanceFeeBps)
	}
	if _, ok := k.strategyRegistry[msg.StrategyID]; !ok {
		return nil, types.ErrStrategyNotFound.Wrapf("strategy %s", msg.StrategyID)
	}

	pool := types.NewPool(msg.PoolID, msg.Asset, msg.Market,
		msg.Name, msg.Symbol, creator, msg.FeeCollector, msg.StrategyID, msg.FeeRateBps)
	pool.CreatedAt = ctx.BlockTime().Unix()
	pool.UpdatedAt = pool.CreatedAt
	k.SetPool(ctx, pool)
	k.setPoolMarketIndex(ctx, msg.Market, msg.PoolID)
	k.SetPoolStats(ctx, types.NewPoolStats(msg.PoolID))

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePoolInitialized,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeAsset, pool.PrincipalAsset),
		sdk.NewAttribute(types.AttributeMarket, pool.Market),
		sdk.NewAttribute(types.AttributeStrategy, pool.StrategyID),
		sdk.NewAttribute(types.AttributeFeeRateBps, strconv.FormatInt(pool.PerformanceFeeBps, 10)),
	))
	k.logger.Info("pool initialized",
		"pool_id", pool.PoolID,
		"asset", pool.PrincipalAsset,
		"market", pool.Market,
		"strategy", pool.StrategyID,
	)
	return pool, nil
}

// SetPerformanceFeeRate changes the fee rate. Gains accrued so far are
// crystallized at the outgoing rate first, so a rate hike cannot reach
// back into profit earned under the old one.
func (k *Keeper) SetPerformanceFeeRate(ctx sdk.Context, poolID, admin string, feeBps int64) error {
	return k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if pool.Admin != admin {
			return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
		}
		if feeBps < 0 || feeBps > types.MaxPerformanceFeeBps {
			return types.ErrFeeRateTooHigh.Wrapf("rate %d bps, cap %d", feeBps, types.MaxPerformanceFeeBps)
		}

		if _, err := k.crystallize(ctx, pool); err != nil {
			return err
		}
		pool.PerformanceFeeBps = feeBps
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		k.logger.Info("performance fee rate changed", "pool_id", poolID, "rate_bps", feeBps)
		return nil
	})
}

// SetFeeCollector redirects future fee shares. Shares already minted to
// the old collector stay where they are.
func (k *Keeper) SetFeeCollector(ctx sdk.Context, poolID, admin, collector string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if pool.Admin != admin {
		return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
	}
	if collector == "" {
		return types.ErrNilReceiver
	}
	pool.FeeCollector = collector
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	k.logger.Info("fee collector changed", "pool_id", poolID, "collector", collector)
	return nil
}

// TransferAdmin hands the admin role to a new address. Only the current
// admin may transfer it; the chain authority cannot reassign pools.
func (k *Keeper) TransferAdmin(ctx sdk.Context, poolID, admin, newAdmin string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if pool.Admin != admin {
		return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
	}
	if newAdmin == "" {
		return types.ErrNilReceiver
	}
	pool.Admin = newAdmin
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeAdminChanged,
		sdk.NewAttribute(types.AttributePoolID, poolID),
		sdk.NewAttribute(types.AttributeNewAdmin, newAdmin),
	))
	k.logger.Info("admin transferred", "pool_id", poolID, "new_admin", newAdmin)
	return nil
}

// Pause stops deposits and withdrawals. Valuation and queries keep
// working.
func (k *Keeper) Pause(ctx sdk.Context, poolID, admin string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if pool.Admin != admin && admin != k.authority {
		return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
	}
	pool.Status = types.PoolStatusPaused
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePaused,
		sdk.NewAttribute(types.AttributePoolID, poolID),
	))
	k.logger.Info("pool paused", "pool_id", poolID)
	return nil
}

// Unpause resumes a paused pool.
func (k *Keeper) Unpause(ctx sdk.Context, poolID, admin string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if pool.Admin != admin && admin != k.authority {
		return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
	}
	pool.Status = types.PoolStatusActive
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeUnpaused,
		sdk.NewAttribute(types.AttributePoolID, poolID),
	))
	k.logger.Info("pool unpaused", "pool_id", poolID)
	return nil
}

// EmergencyWithdraw pulls principal out of the external position back
// into pool custody and pauses the pool. Share balances are untouched:
// recovered principal stays pooled and owned by shareholders, who exit
// through Withdraw once the pool is unpaused.
func (k *Keeper) EmergencyWithdraw(ctx sdk.Context, poolID, admin string, amount types.Amount) (math.Int, error) {
	recovered := math.ZeroInt()
	err := k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if pool.Admin != admin && admin != k.authority {
			return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
		}

		total, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		invested := total.Sub(pool.IdleBalance)
		target := invested
		if !amount.All && amount.Value.LT(target) {
			target = amount.Value
		}
		if target.IsPositive() {
			res, err := k.divestThroughStrategy(ctx, pool, target, nil)
			if err != nil {
				return err
			}
			recovered = res.Recovered
		}

		pool.Status = types.PoolStatusPaused
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeEmergencyWithdraw,
			sdk.NewAttribute(types.AttributePoolID, poolID),
			sdk.NewAttribute(types.AttributeAmount, recovered.String()),
		))
		k.logger.Info("emergency withdraw executed", "pool_id", poolID, "recovered", recovered.String())
		return nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return recovered, nil
}
