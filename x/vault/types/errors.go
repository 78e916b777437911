package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrPoolNotFound          = errors.Register(ModuleName, 1, "pool not found")
	ErrPoolExists            = errors.Register(ModuleName, 2, "pool already initialized")
	ErrPoolPaused            = errors.Register(ModuleName, 3, "pool is paused")
	ErrZeroAmount            = errors.Register(ModuleName, 4, "amount must be positive")
	ErrNilReceiver           = errors.Register(ModuleName, 5, "receiver must not be empty")
	ErrFeeRateTooHigh        = errors.Register(ModuleName, 6, "performance fee rate above cap")
	ErrUnauthorized          = errors.Register(ModuleName, 7, "unauthorized")
	ErrInsufficientShares    = errors.Register(ModuleName, 8, "insufficient shares")
	ErrInsufficientAllowance = errors.Register(ModuleName, 9, "insufficient share allowance")
	ErrStrategyNotFound      = errors.Register(ModuleName, 10, "strategy adapter not registered")
	ErrStrategyFailed        = errors.Register(ModuleName, 11, "strategy adapter call failed")
	ErrLiquidityShortfall    = errors.Register(ModuleName, 12, "recovered balance short of payout beyond tolerance")
	ErrSlippage              = errors.Register(ModuleName, 13, "fewer shares produced than requested")
	ErrReentrantCall         = errors.Register(ModuleName, 14, "reentrant call into pool action")
	ErrMarketTaken           = errors.Register(ModuleName, 15, "asset/market pair already registered")
)
