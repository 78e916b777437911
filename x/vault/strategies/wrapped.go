package strategies

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// StakingWrapper is the black-box surface of a wrapper that converts a
// rebasing staking asset into a non-rebasing one. The wrapped balance is
// fixed; yield accrues through the wrapper's conversion rate.
type StakingWrapper interface {
	// FundingAddress is where wrapped principal is sent and unwrapped
	// principal comes from.
	FundingAddress(market string) sdk.AccAddress
	// Wrap converts principal into wrapped units credited to holder and
	// returns the wrapped amount.
	Wrap(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error)
	// Unwrap converts wrapped units back and returns the principal
	// recovered.
	Unwrap(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error)
	// WrappedBalance returns holder's wrapped units.
	WrappedBalance(ctx sdk.Context, market string, holder sdk.AccAddress) (math.Int, error)
	// ConversionRate returns the wrapped->principal rate scaled by 1e18.
	ConversionRate(ctx sdk.Context, market string) (math.Int, error)
}

// WrappedAdapter invests through a rebasing-to-non-rebasing wrapper.
// Accounted equals the amount wrapped; valuation uses the wrapper's
// native conversion rate.
type WrappedAdapter struct {
	id       string
	protocol StakingWrapper
}

var _ Strategy = (*WrappedAdapter)(nil)

// NewWrappedAdapter creates a wrapped-staking adapter.
func NewWrappedAdapter(id string, protocol StakingWrapper) *WrappedAdapter {
	return &WrappedAdapter{id: id, protocol: protocol}
}

// ID implements Strategy.
func (a *WrappedAdapter) ID() string { return a.id }

// Invest wraps amountIn. No entry gain.
func (a *WrappedAdapter) Invest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int, _ []byte) (InvestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no wrapper market for asset %s", custody.Asset())
	}
	if err := custody.Send(ctx, a.protocol.FundingAddress(market), amountIn); err != nil {
		return InvestResult{}, err
	}
	if _, err := a.protocol.Wrap(ctx, market, custody.PoolAccount(), amountIn); err != nil {
		return InvestResult{}, err
	}
	return InvestResult{Accounted: amountIn, EntryGain: math.ZeroInt()}, nil
}

// Divest unwraps enough wrapped units to recover amountOut of principal.
func (a *WrappedAdapter) Divest(ctx sdk.Context, custody Custody, cfg Config, amountOut math.Int, _ []byte) (DivestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return DivestResult{}, types.ErrStrategyFailed.Wrapf("no wrapper market for asset %s", custody.Asset())
	}
	rate, err := a.protocol.ConversionRate(ctx, market)
	if err != nil {
		return DivestResult{}, err
	}
	if !rate.IsPositive() {
		return DivestResult{}, types.ErrStrategyFailed.Wrap("wrapper conversion rate is zero")
	}

	// Wrapped units needed for amountOut of principal, rounded up.
	num := amountOut.Mul(types.Precision)
	wrapped := num.Quo(rate)
	if !num.Mod(rate).IsZero() {
		wrapped = wrapped.AddRaw(1)
	}
	held, err := a.protocol.WrappedBalance(ctx, market, custody.PoolAccount())
	if err != nil {
		return DivestResult{}, err
	}
	if wrapped.GT(held) {
		wrapped = held
	}

	recovered, err := a.protocol.Unwrap(ctx, market, custody.PoolAccount(), wrapped)
	if err != nil {
		return DivestResult{}, err
	}
	if err := custody.Receive(ctx, a.protocol.FundingAddress(market), recovered); err != nil {
		return DivestResult{}, err
	}
	return DivestResult{Recovered: recovered, ExitGain: math.ZeroInt()}, nil
}

// Valuation converts the wrapped balance at the wrapper's current rate.
func (a *WrappedAdapter) Valuation(ctx sdk.Context, custody Custody, cfg Config) (math.Int, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return math.ZeroInt(), nil
	}
	held, err := a.protocol.WrappedBalance(ctx, market, custody.PoolAccount())
	if err != nil {
		return math.ZeroInt(), err
	}
	rate, err := a.protocol.ConversionRate(ctx, market)
	if err != nil {
		return math.ZeroInt(), err
	}
	return held.Mul(rate).Quo(types.Precision), nil
}

// PreviewInvest matches Invest's accounting without executing it.
func (a *WrappedAdapter) PreviewInvest(_ sdk.Context, custody Custody, cfg Config, amountIn math.Int) (InvestResult, error) {
	if _, ok := cfg.MarketOf(custody.Asset()); !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no wrapper market for asset %s", custody.Asset())
	}
	return InvestResult{Accounted: amountIn, EntryGain: math.ZeroInt()}, nil
}
