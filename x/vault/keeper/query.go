package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// QueryServer defines the vault QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns a pool by ID
func (q *QueryServer) Pool(ctx context.Context, poolID string) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	return pool, nil
}

// Pools returns all pools with offset pagination
func (q *QueryServer) Pools(ctx context.Context, offset, limit uint64) ([]*types.Pool, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allPools := q.keeper.GetAllPools(sdkCtx)

	total := uint64(len(allPools))
	if offset >= total {
		return []*types.Pool{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return allPools[offset:end], total, nil
}

// PoolByMarket returns the pool bound to a market
func (q *QueryServer) PoolByMarket(ctx context.Context, market string) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPoolByMarket(sdkCtx, market)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	return pool, nil
}

// TotalAssets returns the pool's full valuation: idle custody plus the
// adapter-priced external position.
func (q *QueryServer) TotalAssets(ctx context.Context, poolID string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound
	}
	return q.keeper.TotalAssets(sdkCtx, pool)
}

// Ratio returns the current assets-per-share ratio, Precision scaled.
func (q *QueryServer) Ratio(ctx context.Context, poolID string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound
	}
	total, err := q.keeper.TotalAssets(sdkCtx, pool)
	if err != nil {
		return math.Int{}, err
	}
	return pool.Ratio(total), nil
}

// ShareBalance returns a holder's shares in a pool
func (q *QueryServer) ShareBalance(ctx context.Context, poolID, holder string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if q.keeper.GetPool(sdkCtx, poolID) == nil {
		return math.Int{}, types.ErrPoolNotFound
	}
	return q.keeper.GetShareBalance(sdkCtx, poolID, holder), nil
}

// ShareValue returns the current principal value of a holder's shares
func (q *QueryServer) ShareValue(ctx context.Context, poolID, holder string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return math.Int{}, types.ErrPoolNotFound
	}
	total, err := q.keeper.TotalAssets(sdkCtx, pool)
	if err != nil {
		return math.Int{}, err
	}
	shares := q.keeper.GetShareBalance(sdkCtx, poolID, holder)
	return pool.ConvertToAssets(shares, total), nil
}

// ShareAllowance returns what spender may move out of owner's balance
func (q *QueryServer) ShareAllowance(ctx context.Context, poolID, owner, spender string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetShareAllowance(sdkCtx, poolID, owner, spender), nil
}

// PreviewDeposit quotes shares for a deposit
func (q *QueryServer) PreviewDeposit(ctx context.Context, poolID string, assets math.Int) (math.Int, error) {
	return q.keeper.PreviewDeposit(sdk.UnwrapSDKContext(ctx), poolID, assets)
}

// PreviewMint quotes the principal cost of a mint
func (q *QueryServer) PreviewMint(ctx context.Context, poolID string, shares math.Int) (math.Int, error) {
	return q.keeper.PreviewMint(sdk.UnwrapSDKContext(ctx), poolID, shares)
}

// PreviewWithdraw quotes the share cost of a withdrawal
func (q *QueryServer) PreviewWithdraw(ctx context.Context, poolID string, assets math.Int) (math.Int, error) {
	return q.keeper.PreviewWithdraw(sdk.UnwrapSDKContext(ctx), poolID, assets)
}

// PreviewRedeem quotes the payout of a redemption
func (q *QueryServer) PreviewRedeem(ctx context.Context, poolID string, shares math.Int) (math.Int, error) {
	return q.keeper.PreviewRedeem(sdk.UnwrapSDKContext(ctx), poolID, shares)
}

// PoolStats returns lifetime pool counters
func (q *QueryServer) PoolStats(ctx context.Context, poolID string) (*types.PoolStats, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	stats := q.keeper.GetPoolStats(sdkCtx, poolID)
	if stats == nil {
		return nil, types.ErrPoolNotFound
	}
	return stats, nil
}

// RatioHistory returns recorded share-price observations, oldest first
func (q *QueryServer) RatioHistory(ctx context.Context, poolID string, limit int) ([]*types.RatioObservation, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if q.keeper.GetPool(sdkCtx, poolID) == nil {
		return nil, types.ErrPoolNotFound
	}
	return q.keeper.GetRatioHistory(sdkCtx, poolID, limit), nil
}

// UserDepositReceipts returns a user's deposit receipts
func (q *QueryServer) UserDepositReceipts(ctx context.Context, depositor string) ([]*types.DepositReceipt, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetUserDepositReceipts(sdkCtx, depositor), nil
}

// UserWithdrawalReceipts returns a user's withdrawal receipts
func (q *QueryServer) UserWithdrawalReceipts(ctx context.Context, owner string) ([]*types.WithdrawalReceipt, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetUserWithdrawalReceipts(sdkCtx, owner), nil
}
