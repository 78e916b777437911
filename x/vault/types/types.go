package types

import (
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
)

// Module name and store key
const (
	ModuleName = "vault"
	StoreKey   = ModuleName
)

// Pool status
const (
	PoolStatusActive = "active"
	PoolStatusPaused = "paused"
)

// Fixed-point scale for the assets-per-share ratio. A ratio of 1.0 is
// stored as 1e18.
var Precision = math.NewIntWithDecimal(1, 18)

// Basis point arithmetic
const (
	BpsDivisor           = int64(10_000)
	MaxPerformanceFeeBps = int64(3_000) // 30% cap

	// WithdrawalToleranceBps bounds how far below the requested payout the
	// recovered balance may fall before the withdrawal is rejected instead
	// of clamped. External protocols round; 1 bp absorbs that.
	WithdrawalToleranceBps = int64(1)
)

// Pool is the central accounting entity: a shared deposit of one
// principal asset, invested through a single strategy adapter, with
// share-based ownership and a high-water-mark performance fee.
type Pool struct {
	PoolID         string `json:"pool_id"`
	PrincipalAsset string `json:"principal_asset"` // bank denom the pool accounts in
	Market         string `json:"market"`          // external market tag, registry key
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Status         string `json:"status"`

	// Administration
	Admin        string `json:"admin"`
	FeeCollector string `json:"fee_collector"`

	// Fee configuration, basis points. 0 <= rate <= MaxPerformanceFeeBps.
	PerformanceFeeBps int64 `json:"performance_fee_bps"`

	// HighWaterMark is the highest assets-per-share ratio (Precision
	// scaled) at which fees have already been taken. It never decreases;
	// losses leave it untouched so recovered value is not charged twice.
	HighWaterMark math.Int `json:"high_water_mark"`

	// Share supply. Per-holder balances live in their own store records.
	TotalShares math.Int `json:"total_shares"`

	// IdleBalance is the principal held in pool custody and not invested
	// through the strategy. Total assets = IdleBalance + strategy valuation.
	IdleBalance math.Int `json:"idle_balance"`

	// StrategyID names the active adapter in the keeper's registry.
	StrategyID string `json:"strategy_id"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewPool creates an initialized pool at the 1.0 ratio with no supply.
func NewPool(poolID, asset, market, name, symbol, admin, feeCollector, strategyID string, feeBps int64) *Pool {
	now := time.Now().Unix()
	return &Pool{
		PoolID:            poolID,
		PrincipalAsset:    asset,
		Market:            market,
		Name:              name,
		Symbol:            symbol,
		Status:            PoolStatusActive,
		Admin:             admin,
		FeeCollector:      feeCollector,
		PerformanceFeeBps: feeBps,
		HighWaterMark:     Precision,
		TotalShares:       math.ZeroInt(),
		IdleBalance:       math.ZeroInt(),
		StrategyID:        strategyID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsActive reports whether the pool accepts mutating actions.
func (p *Pool) IsActive() bool {
	return p.Status == PoolStatusActive
}

// Ratio returns the current assets-per-share ratio scaled by Precision.
// Only meaningful when TotalShares > 0.
func (p *Pool) Ratio(totalAssets math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return Precision
	}
	return totalAssets.Mul(Precision).Quo(p.TotalShares)
}

// ConvertToShares converts principal units to shares at the given total
// valuation, rounding down. An empty pool converts 1:1.
func (p *Pool) ConvertToShares(assets, totalAssets math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return assets
	}
	if totalAssets.IsZero() {
		return math.ZeroInt()
	}
	return assets.Mul(p.TotalShares).Quo(totalAssets)
}

// ConvertToSharesUp is the withdraw-direction conversion: shares required
// to cover an asset amount, rounding up so the pool is never undercharged.
func (p *Pool) ConvertToSharesUp(assets, totalAssets math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return assets
	}
	if totalAssets.IsZero() {
		return math.ZeroInt()
	}
	num := assets.Mul(p.TotalShares)
	out := num.Quo(totalAssets)
	if !num.Mod(totalAssets).IsZero() {
		out = out.AddRaw(1)
	}
	return out
}

// ConvertToAssets converts shares to principal units at the given total
// valuation, rounding down.
func (p *Pool) ConvertToAssets(shares, totalAssets math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return shares
	}
	return shares.Mul(totalAssets).Quo(p.TotalShares)
}

// ConvertToAssetsUp is the mint-direction conversion: principal required
// to be owed a share amount, rounding up so the depositor always pays
// enough.
func (p *Pool) ConvertToAssetsUp(shares, totalAssets math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return shares
	}
	num := shares.Mul(totalAssets)
	out := num.Quo(p.TotalShares)
	if !num.Mod(p.TotalShares).IsZero() {
		out = out.AddRaw(1)
	}
	return out
}

// RefreshHighWaterMark raises the mark to the given post-action ratio if
// it exceeds the stored one. Never lowers it.
func (p *Pool) RefreshHighWaterMark(ratio math.Int) {
	if ratio.GT(p.HighWaterMark) {
		p.HighWaterMark = ratio
	}
}

// DepositReceipt records a completed deposit or mint.
type DepositReceipt struct {
	ReceiptID   string   `json:"receipt_id"`
	PoolID      string   `json:"pool_id"`
	Depositor   string   `json:"depositor"`
	Receiver    string   `json:"receiver"`
	Assets      math.Int `json:"assets"`
	Shares      math.Int `json:"shares"`
	FeeShares   math.Int `json:"fee_shares"` // entry-gain fee shares, if any
	RatioAfter  math.Int `json:"ratio_after"`
	BlockHeight int64    `json:"block_height"`
	Timestamp   int64    `json:"timestamp"`
}

// NewDepositReceipt creates a deposit receipt with a fresh identifier.
func NewDepositReceipt(poolID, depositor, receiver string, assets, shares, feeShares, ratioAfter math.Int, height int64) *DepositReceipt {
	return &DepositReceipt{
		ReceiptID:   "dep-" + uuid.NewString(),
		PoolID:      poolID,
		Depositor:   depositor,
		Receiver:    receiver,
		Assets:      assets,
		Shares:      shares,
		FeeShares:   feeShares,
		RatioAfter:  ratioAfter,
		BlockHeight: height,
		Timestamp:   time.Now().Unix(),
	}
}

// WithdrawalReceipt records a completed withdraw or redeem.
type WithdrawalReceipt struct {
	ReceiptID   string   `json:"receipt_id"`
	PoolID      string   `json:"pool_id"`
	Owner       string   `json:"owner"`
	Receiver    string   `json:"receiver"`
	Assets      math.Int `json:"assets"`
	Shares      math.Int `json:"shares"`
	RatioAfter  math.Int `json:"ratio_after"`
	BlockHeight int64    `json:"block_height"`
	Timestamp   int64    `json:"timestamp"`
}

// NewWithdrawalReceipt creates a withdrawal receipt with a fresh identifier.
func NewWithdrawalReceipt(poolID, owner, receiver string, assets, shares, ratioAfter math.Int, height int64) *WithdrawalReceipt {
	return &WithdrawalReceipt{
		ReceiptID:   "wth-" + uuid.NewString(),
		PoolID:      poolID,
		Owner:       owner,
		Receiver:    receiver,
		Assets:      assets,
		Shares:      shares,
		RatioAfter:  ratioAfter,
		BlockHeight: height,
		Timestamp:   time.Now().Unix(),
	}
}

// PoolStats aggregates per-pool lifetime counters.
type PoolStats struct {
	PoolID           string   `json:"pool_id"`
	TotalValueLocked math.Int `json:"total_value_locked"`
	TotalDepositors  int64    `json:"total_depositors"`
	TotalFeeShares   math.Int `json:"total_fee_shares"`
	TotalDeposited   math.Int `json:"total_deposited"`
	TotalWithdrawn   math.Int `json:"total_withdrawn"`
	Crystallizations int64    `json:"crystallizations"`
	UpdatedAt        int64    `json:"updated_at"`
}

// NewPoolStats creates a zeroed stats record.
func NewPoolStats(poolID string) *PoolStats {
	return &PoolStats{
		PoolID:           poolID,
		TotalValueLocked: math.ZeroInt(),
		TotalFeeShares:   math.ZeroInt(),
		TotalDeposited:   math.ZeroInt(),
		TotalWithdrawn:   math.ZeroInt(),
		UpdatedAt:        time.Now().Unix(),
	}
}

// RatioObservation is one point of the assets-per-share history.
type RatioObservation struct {
	PoolID      string   `json:"pool_id"`
	Ratio       math.Int `json:"ratio"` // Precision scaled
	TotalAssets math.Int `json:"total_assets"`
	TotalShares math.Int `json:"total_shares"`
	BlockHeight int64    `json:"block_height"`
	Timestamp   int64    `json:"timestamp"`
}
