package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// MsgServer defines the vault MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// InitializePool handles MsgInitializePool
func (m *MsgServer) InitializePool(ctx context.Context, msg *types.MsgInitializePool) (*types.MsgInitializePoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.InitializePool(sdkCtx, msg.Creator, msg)
	if err != nil {
		return nil, err
	}
	return &types.MsgInitializePoolResponse{PoolID: pool.PoolID}, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	assets, ok := math.NewIntFromString(msg.Assets)
	if !ok {
		return nil, types.ErrZeroAmount.Wrapf("invalid asset amount %q", msg.Assets)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Deposit(sdkCtx, msg.PoolID, msg.Depositor, msg.Receiver, assets, msg.AuxData)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{
		ReceiptID: receipt.ReceiptID,
		Shares:    receipt.Shares.String(),
	}, nil
}

// Mint handles MsgMint
func (m *MsgServer) Mint(ctx context.Context, msg *types.MsgMint) (*types.MsgMintResponse, error) {
	shares, ok := math.NewIntFromString(msg.Shares)
	if !ok {
		return nil, types.ErrZeroAmount.Wrapf("invalid share amount %q", msg.Shares)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Mint(sdkCtx, msg.PoolID, msg.Depositor, msg.Receiver, shares)
	if err != nil {
		return nil, err
	}
	return &types.MsgMintResponse{
		ReceiptID: receipt.ReceiptID,
		Assets:    receipt.Assets.String(),
		Shares:    receipt.Shares.String(),
	}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	amount, err := types.ParseAmount(msg.Assets)
	if err != nil {
		return nil, types.ErrZeroAmount.Wrap(err.Error())
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Withdraw(sdkCtx, msg.PoolID, msg.Caller, msg.Owner, msg.Receiver, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{
		ReceiptID: receipt.ReceiptID,
		Assets:    receipt.Assets.String(),
		Shares:    receipt.Shares.String(),
	}, nil
}

// Redeem handles MsgRedeem
func (m *MsgServer) Redeem(ctx context.Context, msg *types.MsgRedeem) (*types.MsgRedeemResponse, error) {
	amount, err := types.ParseAmount(msg.Shares)
	if err != nil {
		return nil, types.ErrZeroAmount.Wrap(err.Error())
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Redeem(sdkCtx, msg.PoolID, msg.Caller, msg.Owner, msg.Receiver, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgRedeemResponse{
		ReceiptID: receipt.ReceiptID,
		Assets:    receipt.Assets.String(),
		Shares:    receipt.Shares.String(),
	}, nil
}

// TransferShares handles MsgTransferShares
func (m *MsgServer) TransferShares(ctx context.Context, msg *types.MsgTransferShares) (*types.MsgTransferSharesResponse, error) {
	shares, ok := math.NewIntFromString(msg.Shares)
	if !ok {
		return nil, types.ErrZeroAmount.Wrapf("invalid share amount %q", msg.Shares)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.TransferShares(sdkCtx, msg.PoolID, msg.From, msg.To, shares); err != nil {
		return nil, err
	}
	return &types.MsgTransferSharesResponse{}, nil
}

// ApproveShares handles MsgApproveShares
func (m *MsgServer) ApproveShares(ctx context.Context, msg *types.MsgApproveShares) (*types.MsgApproveSharesResponse, error) {
	shares, ok := math.NewIntFromString(msg.Shares)
	if !ok || shares.IsNegative() {
		return nil, types.ErrZeroAmount.Wrapf("invalid share amount %q", msg.Shares)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	m.keeper.SetShareAllowance(sdkCtx, msg.PoolID, msg.Owner, msg.Spender, shares)
	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSharesApproved,
		sdk.NewAttribute(types.AttributePoolID, msg.PoolID),
		sdk.NewAttribute(types.AttributeOwner, msg.Owner),
		sdk.NewAttribute(types.AttributeSpender, msg.Spender),
		sdk.NewAttribute(types.AttributeShares, shares.String()),
	))
	return &types.MsgApproveSharesResponse{}, nil
}

// SetStrategy handles MsgSetStrategy
func (m *MsgServer) SetStrategy(ctx context.Context, msg *types.MsgSetStrategy) (*types.MsgSetStrategyResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := m.keeper.GetPool(sdkCtx, msg.PoolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %s", msg.PoolID)
	}
	oldStrategy := pool.StrategyID

	if err := m.keeper.SetStrategy(sdkCtx, msg.PoolID, msg.Admin, msg.StrategyID); err != nil {
		return nil, err
	}
	return &types.MsgSetStrategyResponse{
		OldStrategy: oldStrategy,
		NewStrategy: msg.StrategyID,
	}, nil
}

// SetPerformanceFeeRate handles MsgSetPerformanceFeeRate
func (m *MsgServer) SetPerformanceFeeRate(ctx context.Context, msg *types.MsgSetPerformanceFeeRate) (*types.MsgSetPerformanceFeeRateResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetPerformanceFeeRate(sdkCtx, msg.PoolID, msg.Admin, msg.FeeRateBps); err != nil {
		return nil, err
	}
	return &types.MsgSetPerformanceFeeRateResponse{}, nil
}

// SetFeeCollector handles MsgSetFeeCollector
func (m *MsgServer) SetFeeCollector(ctx context.Context, msg *types.MsgSetFeeCollector) (*types.MsgSetFeeCollectorResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetFeeCollector(sdkCtx, msg.PoolID, msg.Admin, msg.FeeCollector); err != nil {
		return nil, err
	}
	return &types.MsgSetFeeCollectorResponse{}, nil
}

// TransferAdmin handles MsgTransferAdmin
func (m *MsgServer) TransferAdmin(ctx context.Context, msg *types.MsgTransferAdmin) (*types.MsgTransferAdminResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.TransferAdmin(sdkCtx, msg.PoolID, msg.Admin, msg.NewAdmin); err != nil {
		return nil, err
	}
	return &types.MsgTransferAdminResponse{}, nil
}

// Pause handles MsgPause
func (m *MsgServer) Pause(ctx context.Context, msg *types.MsgPause) (*types.MsgPauseResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.Pause(sdkCtx, msg.PoolID, msg.Admin); err != nil {
		return nil, err
	}
	return &types.MsgPauseResponse{}, nil
}

// Unpause handles MsgUnpause
func (m *MsgServer) Unpause(ctx context.Context, msg *types.MsgUnpause) (*types.MsgUnpauseResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.Unpause(sdkCtx, msg.PoolID, msg.Admin); err != nil {
		return nil, err
	}
	return &types.MsgUnpauseResponse{}, nil
}

// EmergencyWithdraw handles MsgEmergencyWithdraw
func (m *MsgServer) EmergencyWithdraw(ctx context.Context, msg *types.MsgEmergencyWithdraw) (*types.MsgEmergencyWithdrawResponse, error) {
	amount, err := types.ParseAmount(msg.Amount)
	if err != nil {
		return nil, types.ErrZeroAmount.Wrap(err.Error())
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	recovered, err := m.keeper.EmergencyWithdraw(sdkCtx, msg.PoolID, msg.Admin, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgEmergencyWithdrawResponse{Recovered: recovered.String()}, nil
}
