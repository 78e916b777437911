package strategies

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// LendingMarket is the black-box surface of an interest-bearing lending
// protocol. Supplied principal is represented by a receipt position that
// grows in value via the protocol's own exchange rate.
type LendingMarket interface {
	// FundingAddress is where supplied principal is sent and redeemed
	// principal comes from.
	FundingAddress(market string) sdk.AccAddress
	// Supply credits a receipt position to holder for the amount sent.
	Supply(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) error
	// Redeem burns receipt value and returns the principal recovered.
	Redeem(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error)
	// PositionValue values holder's receipt position in principal units
	// at the protocol's current exchange rate.
	PositionValue(ctx sdk.Context, market string, holder sdk.AccAddress) (math.Int, error)
}

// LendingAdapter invests through an interest-bearing lending market.
// Accounted always equals the amount supplied; yield accrues in the
// receipt position and shows up through Valuation.
type LendingAdapter struct {
	id       string
	protocol LendingMarket
}

var _ Strategy = (*LendingAdapter)(nil)

// NewLendingAdapter creates a lending adapter backed by the given market.
func NewLendingAdapter(id string, protocol LendingMarket) *LendingAdapter {
	return &LendingAdapter{id: id, protocol: protocol}
}

// ID implements Strategy.
func (a *LendingAdapter) ID() string { return a.id }

// Invest supplies amountIn to the lending market. No entry gain: the
// receipt value at supply time equals the principal supplied.
func (a *LendingAdapter) Invest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int, _ []byte) (InvestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no lending market for asset %s", custody.Asset())
	}
	if err := custody.Send(ctx, a.protocol.FundingAddress(market), amountIn); err != nil {
		return InvestResult{}, err
	}
	if err := a.protocol.Supply(ctx, market, custody.PoolAccount(), amountIn); err != nil {
		return InvestResult{}, err
	}
	return InvestResult{Accounted: amountIn, EntryGain: math.ZeroInt()}, nil
}

// Divest redeems up to amountOut of principal back into pool custody.
func (a *LendingAdapter) Divest(ctx sdk.Context, custody Custody, cfg Config, amountOut math.Int, _ []byte) (DivestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return DivestResult{}, types.ErrStrategyFailed.Wrapf("no lending market for asset %s", custody.Asset())
	}
	recovered, err := a.protocol.Redeem(ctx, market, custody.PoolAccount(), amountOut)
	if err != nil {
		return DivestResult{}, err
	}
	if err := custody.Receive(ctx, a.protocol.FundingAddress(market), recovered); err != nil {
		return DivestResult{}, err
	}
	return DivestResult{Recovered: recovered, ExitGain: math.ZeroInt()}, nil
}

// Valuation reads the receipt position at the protocol's exchange rate.
func (a *LendingAdapter) Valuation(ctx sdk.Context, custody Custody, cfg Config) (math.Int, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return math.ZeroInt(), nil
	}
	return a.protocol.PositionValue(ctx, market, custody.PoolAccount())
}

// PreviewInvest matches Invest's accounting without executing it.
func (a *LendingAdapter) PreviewInvest(_ sdk.Context, custody Custody, cfg Config, amountIn math.Int) (InvestResult, error) {
	if _, ok := cfg.MarketOf(custody.Asset()); !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no lending market for asset %s", custody.Asset())
	}
	return InvestResult{Accounted: amountIn, EntryGain: math.ZeroInt()}, nil
}
