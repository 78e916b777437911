package api

import (
	"github.com/openalpha/yieldvault/api/types"
)

// Re-export types for convenience
type (
	Pool              = types.Pool
	PoolStats         = types.PoolStats
	RatioPoint        = types.RatioPoint
	ShareBalance      = types.ShareBalance
	DepositReceipt    = types.DepositReceipt
	WithdrawalReceipt = types.WithdrawalReceipt
	DepositRequest    = types.DepositRequest
	DepositResponse   = types.DepositResponse
	WithdrawRequest   = types.WithdrawRequest
	WithdrawResponse  = types.WithdrawResponse
	PreviewRequest    = types.PreviewRequest
	PreviewResponse   = types.PreviewResponse
	PoolService       = types.PoolService
	VaultService      = types.VaultService
)

// nowMillis returns current timestamp in milliseconds
func nowMillis() int64 {
	return types.NowMillis()
}
