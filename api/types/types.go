package types

import (
	"context"
	"time"
)

// Pool represents a pool in the API response
type Pool struct {
	PoolID            string `json:"pool_id"`
	PrincipalAsset    string `json:"principal_asset"`
	Market            string `json:"market"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Status            string `json:"status"`
	Admin             string `json:"admin"`
	FeeCollector      string `json:"fee_collector"`
	PerformanceFeeBps int64  `json:"performance_fee_bps"`
	HighWaterMark     string `json:"high_water_mark"`
	TotalShares       string `json:"total_shares"`
	TotalAssets       string `json:"total_assets"`
	IdleBalance       string `json:"idle_balance"`
	StrategyID        string `json:"strategy_id"`
	Ratio             string `json:"ratio"`
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
}

// PoolStats represents aggregate pool statistics
type PoolStats struct {
	PoolID           string `json:"pool_id"`
	TotalValueLocked string `json:"total_value_locked"`
	TotalDepositors  int64  `json:"total_depositors"`
	TotalFeeShares   string `json:"total_fee_shares"`
	TotalDeposited   string `json:"total_deposited"`
	TotalWithdrawn   string `json:"total_withdrawn"`
	Crystallizations int64  `json:"crystallizations"`
	UpdatedAt        int64  `json:"updated_at"`
}

// RatioPoint is one sampled assets-per-share observation
type RatioPoint struct {
	Ratio       string `json:"ratio"`
	TotalAssets string `json:"total_assets"`
	TotalShares string `json:"total_shares"`
	BlockHeight int64  `json:"block_height"`
	Timestamp   int64  `json:"timestamp"`
}

// ShareBalance represents an account's position in a pool
type ShareBalance struct {
	PoolID     string `json:"pool_id"`
	Address    string `json:"address"`
	Shares     string `json:"shares"`
	ShareValue string `json:"share_value"`
}

// DepositReceipt represents a settled deposit
type DepositReceipt struct {
	ReceiptID   string `json:"receipt_id"`
	PoolID      string `json:"pool_id"`
	Depositor   string `json:"depositor"`
	Receiver    string `json:"receiver"`
	Assets      string `json:"assets"`
	Shares      string `json:"shares"`
	FeeShares   string `json:"fee_shares"`
	RatioAfter  string `json:"ratio_after"`
	BlockHeight int64  `json:"block_height"`
	Timestamp   int64  `json:"timestamp"`
}

// WithdrawalReceipt represents a settled withdrawal
type WithdrawalReceipt struct {
	ReceiptID   string `json:"receipt_id"`
	PoolID      string `json:"pool_id"`
	Owner       string `json:"owner"`
	Receiver    string `json:"receiver"`
	Assets      string `json:"assets"`
	Shares      string `json:"shares"`
	RatioAfter  string `json:"ratio_after"`
	BlockHeight int64  `json:"block_height"`
	Timestamp   int64  `json:"timestamp"`
}

// DepositRequest represents the request to deposit principal
type DepositRequest struct {
	PoolID    string `json:"pool_id"`
	Depositor string `json:"depositor"`
	Receiver  string `json:"receiver,omitempty"`
	Assets    string `json:"assets"`
}

// DepositResponse represents the response after a deposit
type DepositResponse struct {
	Receipt *DepositReceipt `json:"receipt"`
}

// WithdrawRequest represents the request to withdraw principal
type WithdrawRequest struct {
	PoolID   string `json:"pool_id"`
	Caller   string `json:"caller"`
	Owner    string `json:"owner,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Assets   string `json:"assets"` // base-10 integer or "all"
}

// WithdrawResponse represents the response after a withdrawal
type WithdrawResponse struct {
	Receipt *WithdrawalReceipt `json:"receipt"`
}

// PreviewRequest represents a conversion preview request
type PreviewRequest struct {
	PoolID string `json:"pool_id"`
	Amount string `json:"amount"`
}

// PreviewResponse represents a conversion preview result
type PreviewResponse struct {
	PoolID string `json:"pool_id"`
	Op     string `json:"op"`
	In     string `json:"in"`
	Out    string `json:"out"`
}

// PoolService defines read access to pool state
type PoolService interface {
	ListPools(ctx context.Context) ([]*Pool, error)
	GetPool(ctx context.Context, poolID string) (*Pool, error)
	GetPoolStats(ctx context.Context, poolID string) (*PoolStats, error)
	GetRatioHistory(ctx context.Context, poolID string, limit int) ([]*RatioPoint, error)
	GetRatioRange(ctx context.Context, poolID string, from, to int64) ([]*RatioPoint, error)
	GetShareBalance(ctx context.Context, poolID, address string) (*ShareBalance, error)
	Preview(ctx context.Context, op string, req *PreviewRequest) (*PreviewResponse, error)
}

// VaultService defines state-changing pool operations
type VaultService interface {
	PoolService
	Deposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error)
	GetUserDeposits(ctx context.Context, address string) ([]*DepositReceipt, error)
	GetUserWithdrawals(ctx context.Context, address string) ([]*WithdrawalReceipt, error)
}

// Helper function to get current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
