package types

// Event types emitted by the vault module
const (
	EventTypePoolInitialized   = "vault_pool_initialized"
	EventTypeDeposit           = "vault_deposit"
	EventTypeWithdraw          = "vault_withdraw"
	EventTypeFeeCrystallized   = "vault_fee_crystallized"
	EventTypeInvested          = "vault_invested"
	EventTypeDivested          = "vault_divested"
	EventTypeStrategyChanged   = "vault_strategy_changed"
	EventTypeSharesMinted      = "vault_shares_minted"
	EventTypeSharesBurned      = "vault_shares_burned"
	EventTypeSharesTransferred = "vault_shares_transferred"
	EventTypeSharesApproved    = "vault_shares_approved"
	EventTypePaused            = "vault_paused"
	EventTypeUnpaused          = "vault_unpaused"
	EventTypeEmergencyWithdraw = "vault_emergency_withdraw"
	EventTypeAdminChanged      = "vault_admin_changed"
)

// Event attribute keys
const (
	AttributePoolID      = "pool_id"
	AttributeAsset       = "asset"
	AttributeMarket      = "market"
	AttributeDepositor   = "depositor"
	AttributeReceiver    = "receiver"
	AttributeOwner       = "owner"
	AttributeAssets      = "assets"
	AttributeShares      = "shares"
	AttributeFeeShares   = "fee_shares"
	AttributeFeeRateBps  = "fee_rate_bps"
	AttributeRatioBefore = "p0"
	AttributeRatioAfter  = "p1"
	AttributeRatioDelta  = "delta_p"
	AttributeStrategy    = "strategy"
	AttributeOldStrategy = "old_strategy"
	AttributeNewStrategy = "new_strategy"
	AttributeAmount      = "amount"
	AttributeFrom        = "from"
	AttributeTo          = "to"
	AttributeSpender     = "spender"
	AttributeNewAdmin    = "new_admin"
)
