package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgInitializePool        = "initialize_pool"
	TypeMsgDeposit               = "deposit"
	TypeMsgMint                  = "mint"
	TypeMsgWithdraw              = "withdraw"
	TypeMsgRedeem                = "redeem"
	TypeMsgTransferShares        = "transfer_shares"
	TypeMsgApproveShares         = "approve_shares"
	TypeMsgSetStrategy           = "set_strategy"
	TypeMsgSetPerformanceFeeRate = "set_performance_fee_rate"
	TypeMsgSetFeeCollector       = "set_fee_collector"
	TypeMsgPause                 = "pause"
	TypeMsgUnpause               = "unpause"
	TypeMsgEmergencyWithdraw     = "emergency_withdraw"
	TypeMsgTransferAdmin         = "transfer_admin"
)

// MsgInitializePool is the one-time pool setup entry point, called by the
// external factory.
type MsgInitializePool struct {
	Creator      string `json:"creator"`
	PoolID       string `json:"pool_id"`
	Asset        string `json:"asset"`
	Market       string `json:"market"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	StrategyID   string `json:"strategy_id"`
	FeeCollector string `json:"fee_collector"`
	FeeRateBps   int64  `json:"fee_rate_bps"`
}

func (msg MsgInitializePool) Route() string { return ModuleName }
func (msg MsgInitializePool) Type() string  { return TypeMsgInitializePool }

func (msg MsgInitializePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.FeeCollector); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.Asset == "" {
		return ErrZeroAmount.Wrap("asset denom must not be empty")
	}
	if msg.FeeRateBps < 0 || msg.FeeRateBps > MaxPerformanceFeeBps {
		return ErrFeeRateTooHigh
	}
	return nil
}

func (msg MsgInitializePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

func (*MsgInitializePool) ProtoMessage() {}
func (msg *MsgInitializePool) Reset()    { *msg = MsgInitializePool{} }
func (msg MsgInitializePool) String() string {
	return fmt.Sprintf("MsgInitializePool{Creator: %s, PoolID: %s, Asset: %s}", msg.Creator, msg.PoolID, msg.Asset)
}

// MsgInitializePoolResponse is the InitializePool response.
type MsgInitializePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// MsgDeposit pulls assets from the depositor, invests them through the
// active strategy, and mints shares to the receiver. AuxData is an opaque
// blob forwarded unmodified to the adapter.
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	PoolID    string `json:"pool_id"`
	Assets    string `json:"assets"`
	Receiver  string `json:"receiver"`
	AuxData   []byte `json:"aux_data,omitempty"`
}

func (msg MsgDeposit) Route() string { return ModuleName }
func (msg MsgDeposit) Type() string  { return TypeMsgDeposit }

func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrNilReceiver
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgDeposit) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

func (*MsgDeposit) ProtoMessage() {}
func (msg *MsgDeposit) Reset()    { *msg = MsgDeposit{} }
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, PoolID: %s, Assets: %s}", msg.Depositor, msg.PoolID, msg.Assets)
}

// MsgDepositResponse is the Deposit response.
type MsgDepositResponse struct {
	ReceiptID string `json:"receipt_id"`
	Shares    string `json:"shares"`
}

// MsgMint issues an exact number of shares, pulling whatever assets
// previewMint computes.
type MsgMint struct {
	Depositor string `json:"depositor"`
	PoolID    string `json:"pool_id"`
	Shares    string `json:"shares"`
	Receiver  string `json:"receiver"`
	AuxData   []byte `json:"aux_data,omitempty"`
}

func (msg MsgMint) Route() string { return ModuleName }
func (msg MsgMint) Type() string  { return TypeMsgMint }

func (msg MsgMint) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrNilReceiver
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgMint) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

func (*MsgMint) ProtoMessage() {}
func (msg *MsgMint) Reset()    { *msg = MsgMint{} }
func (msg MsgMint) String() string {
	return fmt.Sprintf("MsgMint{Depositor: %s, PoolID: %s, Shares: %s}", msg.Depositor, msg.PoolID, msg.Shares)
}

// MsgMintResponse is the Mint response.
type MsgMintResponse struct {
	ReceiptID string `json:"receipt_id"`
	Assets    string `json:"assets"`
	Shares    string `json:"shares"`
}

// MsgWithdraw burns the shares covering an asset amount and pays the
// receiver. Assets accepts the literal "all" for the owner's whole
// position.
type MsgWithdraw struct {
	Caller   string `json:"caller"`
	PoolID   string `json:"pool_id"`
	Assets   string `json:"assets"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
	AuxData  []byte `json:"aux_data,omitempty"`
}

func (msg MsgWithdraw) Route() string { return ModuleName }
func (msg MsgWithdraw) Type() string  { return TypeMsgWithdraw }

func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrNilReceiver
	}
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if _, err := ParseAmount(msg.Assets); err != nil {
		return ErrZeroAmount.Wrap(err.Error())
	}
	return nil
}

func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

func (*MsgWithdraw) ProtoMessage() {}
func (msg *MsgWithdraw) Reset()    { *msg = MsgWithdraw{} }
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Caller: %s, PoolID: %s, Assets: %s}", msg.Caller, msg.PoolID, msg.Assets)
}

// MsgWithdrawResponse is the Withdraw response.
type MsgWithdrawResponse struct {
	ReceiptID string `json:"receipt_id"`
	Assets    string `json:"assets"`
	Shares    string `json:"shares"`
}

// MsgRedeem burns an exact number of shares and pays out their value.
// Shares accepts the literal "all" for the owner's whole balance.
type MsgRedeem struct {
	Caller   string `json:"caller"`
	PoolID   string `json:"pool_id"`
	Shares   string `json:"shares"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
	AuxData  []byte `json:"aux_data,omitempty"`
}

func (msg MsgRedeem) Route() string { return ModuleName }
func (msg MsgRedeem) Type() string  { return TypeMsgRedeem }

func (msg MsgRedeem) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrNilReceiver
	}
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if _, err := ParseAmount(msg.Shares); err != nil {
		return ErrZeroAmount.Wrap(err.Error())
	}
	return nil
}

func (msg MsgRedeem) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

func (*MsgRedeem) ProtoMessage() {}
func (msg *MsgRedeem) Reset()    { *msg = MsgRedeem{} }
func (msg MsgRedeem) String() string {
	return fmt.Sprintf("MsgRedeem{Caller: %s, PoolID: %s, Shares: %s}", msg.Caller, msg.PoolID, msg.Shares)
}

// MsgRedeemResponse is the Redeem response.
type MsgRedeemResponse struct {
	ReceiptID string `json:"receipt_id"`
	Assets    string `json:"assets"`
	Shares    string `json:"shares"`
}

// MsgTransferShares moves shares between holders.
type MsgTransferShares struct {
	From   string `json:"from"`
	PoolID string `json:"pool_id"`
	To     string `json:"to"`
	Shares string `json:"shares"`
}

func (msg MsgTransferShares) Route() string { return ModuleName }
func (msg MsgTransferShares) Type() string  { return TypeMsgTransferShares }

func (msg MsgTransferShares) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.From); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.To); err != nil {
		return ErrNilReceiver
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgTransferShares) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.From)
	return []sdk.AccAddress{addr}
}

func (*MsgTransferShares) ProtoMessage() {}
func (msg *MsgTransferShares) Reset()    { *msg = MsgTransferShares{} }
func (msg MsgTransferShares) String() string {
	return fmt.Sprintf("MsgTransferShares{From: %s, To: %s, Shares: %s}", msg.From, msg.To, msg.Shares)
}

// MsgTransferSharesResponse is the TransferShares response.
type MsgTransferSharesResponse struct{}

// MsgApproveShares grants a delegate the right to burn the approver's
// shares through withdraw/redeem.
type MsgApproveShares struct {
	Owner   string `json:"owner"`
	PoolID  string `json:"pool_id"`
	Spender string `json:"spender"`
	Shares  string `json:"shares"`
}

func (msg MsgApproveShares) Route() string { return ModuleName }
func (msg MsgApproveShares) Type() string  { return TypeMsgApproveShares }

func (msg MsgApproveShares) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Spender); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgApproveShares) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

func (*MsgApproveShares) ProtoMessage() {}
func (msg *MsgApproveShares) Reset()    { *msg = MsgApproveShares{} }
func (msg MsgApproveShares) String() string {
	return fmt.Sprintf("MsgApproveShares{Owner: %s, Spender: %s, Shares: %s}", msg.Owner, msg.Spender, msg.Shares)
}

// MsgApproveSharesResponse is the ApproveShares response.
type MsgApproveSharesResponse struct{}

// MsgSetStrategy swaps the active adapter: crystallize, divest the old
// position, install the new adapter, reinvest idle funds.
type MsgSetStrategy struct {
	Admin      string `json:"admin"`
	PoolID     string `json:"pool_id"`
	StrategyID string `json:"strategy_id"`
}

func (msg MsgSetStrategy) Route() string { return ModuleName }
func (msg MsgSetStrategy) Type() string  { return TypeMsgSetStrategy }

func (msg MsgSetStrategy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.StrategyID == "" {
		return ErrStrategyNotFound
	}
	return nil
}

func (msg MsgSetStrategy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgSetStrategy) ProtoMessage() {}
func (msg *MsgSetStrategy) Reset()    { *msg = MsgSetStrategy{} }
func (msg MsgSetStrategy) String() string {
	return fmt.Sprintf("MsgSetStrategy{Admin: %s, PoolID: %s, StrategyID: %s}", msg.Admin, msg.PoolID, msg.StrategyID)
}

// MsgSetStrategyResponse is the SetStrategy response.
type MsgSetStrategyResponse struct {
	OldStrategy string `json:"old_strategy"`
	NewStrategy string `json:"new_strategy"`
}

// MsgSetPerformanceFeeRate updates the fee rate, capped at 30%.
type MsgSetPerformanceFeeRate struct {
	Admin      string `json:"admin"`
	PoolID     string `json:"pool_id"`
	FeeRateBps int64  `json:"fee_rate_bps"`
}

func (msg MsgSetPerformanceFeeRate) Route() string { return ModuleName }
func (msg MsgSetPerformanceFeeRate) Type() string  { return TypeMsgSetPerformanceFeeRate }

func (msg MsgSetPerformanceFeeRate) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.FeeRateBps < 0 || msg.FeeRateBps > MaxPerformanceFeeBps {
		return ErrFeeRateTooHigh
	}
	return nil
}

func (msg MsgSetPerformanceFeeRate) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgSetPerformanceFeeRate) ProtoMessage() {}
func (msg *MsgSetPerformanceFeeRate) Reset()    { *msg = MsgSetPerformanceFeeRate{} }
func (msg MsgSetPerformanceFeeRate) String() string {
	return fmt.Sprintf("MsgSetPerformanceFeeRate{Admin: %s, PoolID: %s, FeeRateBps: %d}", msg.Admin, msg.PoolID, msg.FeeRateBps)
}

// MsgSetPerformanceFeeRateResponse is the SetPerformanceFeeRate response.
type MsgSetPerformanceFeeRateResponse struct{}

// MsgSetFeeCollector updates the fee-share recipient.
type MsgSetFeeCollector struct {
	Admin        string `json:"admin"`
	PoolID       string `json:"pool_id"`
	FeeCollector string `json:"fee_collector"`
}

func (msg MsgSetFeeCollector) Route() string { return ModuleName }
func (msg MsgSetFeeCollector) Type() string  { return TypeMsgSetFeeCollector }

func (msg MsgSetFeeCollector) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.FeeCollector); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgSetFeeCollector) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgSetFeeCollector) ProtoMessage() {}
func (msg *MsgSetFeeCollector) Reset()    { *msg = MsgSetFeeCollector{} }
func (msg MsgSetFeeCollector) String() string {
	return fmt.Sprintf("MsgSetFeeCollector{Admin: %s, PoolID: %s, FeeCollector: %s}", msg.Admin, msg.PoolID, msg.FeeCollector)
}

// MsgSetFeeCollectorResponse is the SetFeeCollector response.
type MsgSetFeeCollectorResponse struct{}

// MsgPause halts mutating pool actions.
type MsgPause struct {
	Admin  string `json:"admin"`
	PoolID string `json:"pool_id"`
}

func (msg MsgPause) Route() string { return ModuleName }
func (msg MsgPause) Type() string  { return TypeMsgPause }

func (msg MsgPause) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgPause) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgPause) ProtoMessage() {}
func (msg *MsgPause) Reset()    { *msg = MsgPause{} }
func (msg MsgPause) String() string {
	return fmt.Sprintf("MsgPause{Admin: %s, PoolID: %s}", msg.Admin, msg.PoolID)
}

// MsgPauseResponse is the Pause response.
type MsgPauseResponse struct{}

// MsgUnpause resumes mutating pool actions.
type MsgUnpause struct {
	Admin  string `json:"admin"`
	PoolID string `json:"pool_id"`
}

func (msg MsgUnpause) Route() string { return ModuleName }
func (msg MsgUnpause) Type() string  { return TypeMsgUnpause }

func (msg MsgUnpause) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgUnpause) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgUnpause) ProtoMessage() {}
func (msg *MsgUnpause) Reset()    { *msg = MsgUnpause{} }
func (msg MsgUnpause) String() string {
	return fmt.Sprintf("MsgUnpause{Admin: %s, PoolID: %s}", msg.Admin, msg.PoolID)
}

// MsgUnpauseResponse is the Unpause response.
type MsgUnpauseResponse struct{}

// MsgEmergencyWithdraw divests an amount from the strategy back into the
// pool's idle custody without touching share balances.
type MsgEmergencyWithdraw struct {
	Admin  string `json:"admin"`
	PoolID string `json:"pool_id"`
	Amount string `json:"amount"`
}

func (msg MsgEmergencyWithdraw) Route() string { return ModuleName }
func (msg MsgEmergencyWithdraw) Type() string  { return TypeMsgEmergencyWithdraw }

func (msg MsgEmergencyWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if _, err := ParseAmount(msg.Amount); err != nil {
		return ErrZeroAmount.Wrap(err.Error())
	}
	return nil
}

func (msg MsgEmergencyWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgEmergencyWithdraw) ProtoMessage() {}
func (msg *MsgEmergencyWithdraw) Reset()    { *msg = MsgEmergencyWithdraw{} }
func (msg MsgEmergencyWithdraw) String() string {
	return fmt.Sprintf("MsgEmergencyWithdraw{Admin: %s, PoolID: %s, Amount: %s}", msg.Admin, msg.PoolID, msg.Amount)
}

// MsgEmergencyWithdrawResponse is the EmergencyWithdraw response.
type MsgEmergencyWithdrawResponse struct {
	Recovered string `json:"recovered"`
}

// MsgTransferAdmin hands the pool admin role to a new address.
type MsgTransferAdmin struct {
	Admin    string `json:"admin"`
	PoolID   string `json:"pool_id"`
	NewAdmin string `json:"new_admin"`
}

func (msg MsgTransferAdmin) Route() string { return ModuleName }
func (msg MsgTransferAdmin) Type() string  { return TypeMsgTransferAdmin }

func (msg MsgTransferAdmin) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Admin); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewAdmin); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

func (msg MsgTransferAdmin) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{addr}
}

func (*MsgTransferAdmin) ProtoMessage() {}
func (msg *MsgTransferAdmin) Reset()    { *msg = MsgTransferAdmin{} }
func (msg MsgTransferAdmin) String() string {
	return fmt.Sprintf("MsgTransferAdmin{Admin: %s, PoolID: %s, NewAdmin: %s}", msg.Admin, msg.PoolID, msg.NewAdmin)
}

// MsgTransferAdminResponse is the TransferAdmin response.
type MsgTransferAdminResponse struct{}
