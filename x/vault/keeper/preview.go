package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// Previews are read-only mirrors of the four actions. Each one simulates
// the pre-action crystallization so the quoted conversion uses the same
// diluted baseline the real action would, and the invest-direction
// previews route through the adapter's own quote path. Nothing here
// writes state.

// previewBaseline returns (supply, assets) as they would stand after the
// pre-action fee pass.
func (k *Keeper) previewBaseline(ctx sdk.Context, pool *types.Pool) (math.Int, math.Int, error) {
	total, err := k.TotalAssets(ctx, pool)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	c := types.CrystallizeFee(pool.TotalShares, total, pool.PerformanceFeeBps, pool.HighWaterMark)
	return pool.TotalShares.Add(c.FeeShares), total, nil
}

// PreviewDeposit quotes the shares a deposit of assets would mint.
func (k *Keeper) PreviewDeposit(ctx sdk.Context, poolID string, assets math.Int) (math.Int, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if !assets.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	supply0, assets0, err := k.previewBaseline(ctx, pool)
	if err != nil {
		return math.Int{}, err
	}

	s, err := k.activeStrategy(pool)
	if err != nil {
		return math.Int{}, err
	}
	res, err := s.PreviewInvest(ctx, &poolCustody{keeper: k, pool: pool}, poolConfig{pool: pool}, assets)
	if err != nil {
		return math.Int{}, types.ErrStrategyFailed.Wrapf("preview invest: %v", err)
	}

	settle := types.SettleEntry(res.Accounted, res.EntryGain, pool.PerformanceFeeBps, supply0, assets0)
	return settle.DepositorShares, nil
}

// PreviewMint quotes the principal a mint of shares would cost.
func (k *Keeper) PreviewMint(ctx sdk.Context, poolID string, shares math.Int) (math.Int, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if !shares.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	supply0, assets0, err := k.previewBaseline(ctx, pool)
	if err != nil {
		return math.Int{}, err
	}
	if supply0.IsZero() {
		return shares, nil
	}
	num := shares.Mul(assets0)
	required := num.Quo(supply0)
	if !num.Mod(supply0).IsZero() {
		required = required.AddRaw(1)
	}
	return required, nil
}

// PreviewWithdraw quotes the shares a withdrawal of assets would burn.
func (k *Keeper) PreviewWithdraw(ctx sdk.Context, poolID string, assets math.Int) (math.Int, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if !assets.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	supply0, assets0, err := k.previewBaseline(ctx, pool)
	if err != nil {
		return math.Int{}, err
	}
	if supply0.IsZero() {
		return assets, nil
	}
	if assets0.IsZero() {
		return math.ZeroInt(), nil
	}
	num := assets.Mul(supply0)
	shares := num.Quo(assets0)
	if !num.Mod(assets0).IsZero() {
		shares = shares.AddRaw(1)
	}
	return shares, nil
}

// PreviewRedeem quotes the principal a redemption of shares would pay.
func (k *Keeper) PreviewRedeem(ctx sdk.Context, poolID string, shares math.Int) (math.Int, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound.Wrapf("pool %s", poolID)
	}
	if !shares.IsPositive() {
		return math.Int{}, types.ErrZeroAmount
	}
	supply0, assets0, err := k.previewBaseline(ctx, pool)
	if err != nil {
		return math.Int{}, err
	}
	if supply0.IsZero() {
		return shares, nil
	}
	return shares.Mul(assets0).Quo(supply0), nil
}
