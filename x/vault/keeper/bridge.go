package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/strategies"
	"github.com/openalpha/yieldvault/x/vault/types"
)

// poolCustody is the Custody capability handed to adapters. Every
// transfer goes through the bank module against the vault module
// account, and the pool's idle ledger is kept in sync so the pool
// valuation never double-counts funds mid-flight.
type poolCustody struct {
	keeper *Keeper
	pool   *types.Pool
}

var _ strategies.Custody = (*poolCustody)(nil)

func (c *poolCustody) Asset() string { return c.pool.PrincipalAsset }

func (c *poolCustody) PoolAccount() sdk.AccAddress {
	return c.keeper.accountKeeper.GetModuleAddress(types.ModuleName)
}

func (c *poolCustody) Send(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	if c.pool.IdleBalance.LT(amount) {
		return types.ErrLiquidityShortfall.Wrapf("idle %s, need %s", c.pool.IdleBalance, amount)
	}
	coins := sdk.NewCoins(sdk.NewCoin(c.pool.PrincipalAsset, amount))
	if err := c.keeper.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, to, coins); err != nil {
		return err
	}
	c.pool.IdleBalance = c.pool.IdleBalance.Sub(amount)
	return nil
}

func (c *poolCustody) Receive(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(c.pool.PrincipalAsset, amount))
	if err := c.keeper.bankKeeper.SendCoinsFromAccountToModule(ctx, from, types.ModuleName, coins); err != nil {
		return err
	}
	c.pool.IdleBalance = c.pool.IdleBalance.Add(amount)
	return nil
}

// adapterStateKey scopes adapter bookkeeping to the pool.
func (c *poolCustody) adapterStateKey(key []byte) []byte {
	k := append(AdapterStateKeyPrefix, []byte(c.pool.PoolID+"/")...)
	return append(k, key...)
}

func (c *poolCustody) StateGet(ctx sdk.Context, key []byte) []byte {
	return c.keeper.GetStore(ctx).Get(c.adapterStateKey(key))
}

func (c *poolCustody) StateSet(ctx sdk.Context, key, value []byte) {
	c.keeper.GetStore(ctx).Set(c.adapterStateKey(key), value)
}

// poolConfig exposes the pool's market binding to adapters, read-only.
type poolConfig struct {
	pool *types.Pool
}

var _ strategies.Config = poolConfig{}

func (c poolConfig) MarketOf(asset string) (string, bool) {
	if asset != c.pool.PrincipalAsset || c.pool.Market == "" {
		return "", false
	}
	return c.pool.Market, true
}

// activeStrategy resolves the pool's adapter from the registry.
func (k *Keeper) activeStrategy(pool *types.Pool) (strategies.Strategy, error) {
	s, ok := k.strategyRegistry[pool.StrategyID]
	if !ok {
		return nil, types.ErrStrategyNotFound.Wrapf("strategy %s", pool.StrategyID)
	}
	return s, nil
}

// TotalAssets returns idle custody plus the adapter's valuation of the
// external position.
func (k *Keeper) TotalAssets(ctx sdk.Context, pool *types.Pool) (math.Int, error) {
	s, err := k.activeStrategy(pool)
	if err != nil {
		return math.ZeroInt(), err
	}
	val, err := s.Valuation(ctx, &poolCustody{keeper: k, pool: pool}, poolConfig{pool: pool})
	if err != nil {
		return math.ZeroInt(), types.ErrStrategyFailed.Wrapf("valuation: %v", err)
	}
	return pool.IdleBalance.Add(val), nil
}

// investThroughStrategy pushes principal from idle custody into the
// external protocol and returns the adapter's accounting tuple.
func (k *Keeper) investThroughStrategy(ctx sdk.Context, pool *types.Pool, amountIn math.Int, auxData []byte) (strategies.InvestResult, error) {
	s, err := k.activeStrategy(pool)
	if err != nil {
		return strategies.InvestResult{}, err
	}
	res, err := s.Invest(ctx, &poolCustody{keeper: k, pool: pool}, poolConfig{pool: pool}, amountIn, auxData)
	if err != nil {
		return strategies.InvestResult{}, types.ErrStrategyFailed.Wrapf("invest: %v", err)
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeInvested,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeStrategy, pool.StrategyID),
		sdk.NewAttribute(types.AttributeAmount, amountIn.String()),
	))
	return res, nil
}

// divestThroughStrategy pulls principal from the external protocol back
// into idle custody.
func (k *Keeper) divestThroughStrategy(ctx sdk.Context, pool *types.Pool, amountOut math.Int, auxData []byte) (strategies.DivestResult, error) {
	s, err := k.activeStrategy(pool)
	if err != nil {
		return strategies.DivestResult{}, err
	}
	res, err := s.Divest(ctx, &poolCustody{keeper: k, pool: pool}, poolConfig{pool: pool}, amountOut, auxData)
	if err != nil {
		return strategies.DivestResult{}, types.ErrStrategyFailed.Wrapf("divest: %v", err)
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDivested,
		sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
		sdk.NewAttribute(types.AttributeStrategy, pool.StrategyID),
		sdk.NewAttribute(types.AttributeAmount, res.Recovered.String()),
	))
	return res, nil
}

// withAction runs fn against a cached store and commits only on success,
// so a failing adapter call can never leave partial pool state behind.
// Nested state-changing actions are rejected; an adapter has no business
// calling back into pool operations.
func (k *Keeper) withAction(ctx sdk.Context, fn func(sdk.Context) error) error {
	if k.inAction {
		return types.ErrReentrantCall
	}
	k.inAction = true
	defer func() { k.inAction = false }()

	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// SetStrategy migrates a pool to a new adapter: fees are crystallized at
// the old valuation, the position is divested, and the pool is rebound
// before reinvesting idle principal through the new adapter. Only the
// crystallization step can abort the swap; divest and reinvest failures
// are logged and skipped.
func (k *Keeper) SetStrategy(ctx sdk.Context, poolID, admin, newStrategyID string) error {
	return k.withAction(ctx, func(ctx sdk.Context) error {
		pool := k.GetPool(ctx, poolID)
		if pool == nil {
			return types.ErrPoolNotFound.Wrapf("pool %s", poolID)
		}
		if pool.Admin != admin {
			return types.ErrUnauthorized.Wrapf("admin is %s", pool.Admin)
		}
		if _, ok := k.strategyRegistry[newStrategyID]; !ok {
			return types.ErrStrategyNotFound.Wrapf("strategy %s", newStrategyID)
		}

		if _, err := k.crystallize(ctx, pool); err != nil {
			return err
		}

		// recover everything the old adapter holds. A refusal must not
		// block the swap: the position stays behind under the old
		// adapter's venue and the pool rebinds anyway, so a broken
		// adapter cannot hold the pool hostage.
		total, err := k.TotalAssets(ctx, pool)
		if err != nil {
			return err
		}
		invested := total.Sub(pool.IdleBalance)
		if invested.IsPositive() {
			divestCtx, writeDivest := ctx.CacheContext()
			attempt := *pool
			if _, derr := k.divestThroughStrategy(divestCtx, &attempt, invested, nil); derr != nil {
				k.logger.Error("divest from old strategy failed, position left behind",
					"pool_id", pool.PoolID, "strategy", pool.StrategyID, "error", derr)
			} else {
				*pool = attempt
				writeDivest()
			}
		}

		oldID := pool.StrategyID
		pool.StrategyID = newStrategyID
		pool.UpdatedAt = ctx.BlockTime().Unix()

		// push recovered principal through the new adapter. A refusal
		// leaves the principal idle rather than undoing the rebind; an
		// entry gain realized here is crystallized on the next action.
		if pool.IdleBalance.IsPositive() {
			investCtx, writeInvest := ctx.CacheContext()
			attempt := *pool
			if _, ierr := k.investThroughStrategy(investCtx, &attempt, attempt.IdleBalance, nil); ierr != nil {
				k.logger.Error("reinvest through new strategy failed, principal left idle",
					"pool_id", pool.PoolID, "strategy", newStrategyID, "error", ierr)
			} else {
				*pool = attempt
				writeInvest()
			}
		}
		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeStrategyChanged,
			sdk.NewAttribute(types.AttributePoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeOldStrategy, oldID),
			sdk.NewAttribute(types.AttributeNewStrategy, newStrategyID),
		))
		k.logger.Info("strategy changed", "pool_id", pool.PoolID, "old", oldID, "new", newStrategyID)
		return nil
	})
}
