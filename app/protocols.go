package app

import (
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"

	"github.com/openalpha/yieldvault/x/vault/strategies"
	vaulttypes "github.com/openalpha/yieldvault/x/vault/types"
)

// Module accounts backing the simulated yield venues. Each holds the
// principal supplied to it and mints accrued yield, so recoveries are
// always funded.
const (
	lendingProtocolName = "lendingpool"
	wrapperProtocolName = "stakewrap"
	billProtocolName    = "billdesk"
)

// Simulator yield parameters.
const (
	// lending interest per block, in parts per 1e9 of principal
	lendingRatePerBlockE9 = 100

	// per-block increment of the wrapper conversion rate (1e18 scale)
	wrapperRatePerBlock = 100_000_000_000

	// purchase discount and pre-maturity mark haircut for bills, in bps
	billDiscountBps    = 200
	billMarkHaircutBps = 100

	// bill term from purchase to maturity, in seconds
	billTermSeconds = 7 * 24 * 3600
)

// marketDenom extracts the principal denom from a market identifier of
// the form "venue/denom".
func marketDenom(market string) string {
	if i := strings.LastIndexByte(market, '/'); i >= 0 {
		return market[i+1:]
	}
	return market
}

func positionKey(market string, holder sdk.AccAddress) string {
	return market + "/" + holder.String()
}

// ============ Lending ============

type lendingPosition struct {
	principal math.Int
	accruedAt int64
}

// lendingSimulator implements strategies.LendingMarket for local and
// development networks. Supplied principal sits in the protocol module
// account and accrues interest at a fixed per-block rate; interest is
// minted when the position is folded forward. Positions live in memory,
// so they reset on restart.
type lendingSimulator struct {
	bank      bankkeeper.BaseKeeper
	positions map[string]*lendingPosition
}

var _ strategies.LendingMarket = (*lendingSimulator)(nil)

func newLendingSimulator(bank bankkeeper.BaseKeeper) *lendingSimulator {
	return &lendingSimulator{
		bank:      bank,
		positions: make(map[string]*lendingPosition),
	}
}

func (s *lendingSimulator) FundingAddress(string) sdk.AccAddress {
	return authtypes.NewModuleAddress(lendingProtocolName)
}

func (s *lendingSimulator) position(market string, holder sdk.AccAddress, height int64) *lendingPosition {
	key := positionKey(market, holder)
	p, ok := s.positions[key]
	if !ok {
		p = &lendingPosition{principal: math.ZeroInt(), accruedAt: height}
		s.positions[key] = p
	}
	return p
}

func pendingInterest(principal math.Int, blocks int64) math.Int {
	if blocks <= 0 || !principal.IsPositive() {
		return math.ZeroInt()
	}
	return principal.Mul(math.NewInt(lendingRatePerBlockE9 * blocks)).Quo(math.NewInt(1_000_000_000))
}

// accrue folds pending interest into the principal and mints it to the
// protocol account so redemption is funded.
func (s *lendingSimulator) accrue(ctx sdk.Context, market string, p *lendingPosition) error {
	interest := pendingInterest(p.principal, ctx.BlockHeight()-p.accruedAt)
	p.accruedAt = ctx.BlockHeight()
	if !interest.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(marketDenom(market), interest))
	if err := s.bank.MintCoins(ctx, lendingProtocolName, coins); err != nil {
		return err
	}
	p.principal = p.principal.Add(interest)
	return nil
}

func (s *lendingSimulator) Supply(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) error {
	p := s.position(market, holder, ctx.BlockHeight())
	if err := s.accrue(ctx, market, p); err != nil {
		return err
	}
	p.principal = p.principal.Add(amount)
	return nil
}

func (s *lendingSimulator) Redeem(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error) {
	p := s.position(market, holder, ctx.BlockHeight())
	if err := s.accrue(ctx, market, p); err != nil {
		return math.ZeroInt(), err
	}
	recovered := amount
	if recovered.GT(p.principal) {
		recovered = p.principal
	}
	p.principal = p.principal.Sub(recovered)
	return recovered, nil
}

func (s *lendingSimulator) PositionValue(ctx sdk.Context, market string, holder sdk.AccAddress) (math.Int, error) {
	p := s.position(market, holder, ctx.BlockHeight())
	return p.principal.Add(pendingInterest(p.principal, ctx.BlockHeight()-p.accruedAt)), nil
}

// ============ Wrapped staking ============

type wrapperPosition struct {
	wrapped  math.Int
	supplied math.Int
}

// wrapperSimulator implements strategies.StakingWrapper. The conversion
// rate grows linearly with block height; the spread between the rate at
// wrap time and at unwrap time is the staking yield, minted on unwrap.
type wrapperSimulator struct {
	bank      bankkeeper.BaseKeeper
	positions map[string]*wrapperPosition
}

var _ strategies.StakingWrapper = (*wrapperSimulator)(nil)

func newWrapperSimulator(bank bankkeeper.BaseKeeper) *wrapperSimulator {
	return &wrapperSimulator{
		bank:      bank,
		positions: make(map[string]*wrapperPosition),
	}
}

func (s *wrapperSimulator) FundingAddress(string) sdk.AccAddress {
	return authtypes.NewModuleAddress(wrapperProtocolName)
}

func (s *wrapperSimulator) position(market string, holder sdk.AccAddress) *wrapperPosition {
	key := positionKey(market, holder)
	p, ok := s.positions[key]
	if !ok {
		p = &wrapperPosition{wrapped: math.ZeroInt(), supplied: math.ZeroInt()}
		s.positions[key] = p
	}
	return p
}

func (s *wrapperSimulator) ConversionRate(ctx sdk.Context, _ string) (math.Int, error) {
	perBlock := math.NewInt(wrapperRatePerBlock)
	return vaulttypes.Precision.Add(perBlock.Mul(math.NewInt(ctx.BlockHeight()))), nil
}

func (s *wrapperSimulator) Wrap(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error) {
	rate, err := s.ConversionRate(ctx, market)
	if err != nil {
		return math.ZeroInt(), err
	}
	wrapped := amount.Mul(vaulttypes.Precision).Quo(rate)
	p := s.position(market, holder)
	p.wrapped = p.wrapped.Add(wrapped)
	p.supplied = p.supplied.Add(amount)
	return wrapped, nil
}

func (s *wrapperSimulator) Unwrap(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error) {
	p := s.position(market, holder)
	if amount.GT(p.wrapped) {
		amount = p.wrapped
	}
	if !amount.IsPositive() {
		return math.ZeroInt(), nil
	}
	rate, err := s.ConversionRate(ctx, market)
	if err != nil {
		return math.ZeroInt(), err
	}
	principal := amount.Mul(rate).Quo(vaulttypes.Precision)

	// the share of the original deposit this unwrap returns; anything
	// above it is accrued staking yield
	cost := p.supplied.Mul(amount).Quo(p.wrapped)
	if principal.GT(cost) {
		yield := principal.Sub(cost)
		coins := sdk.NewCoins(sdk.NewCoin(marketDenom(market), yield))
		if err := s.bank.MintCoins(ctx, wrapperProtocolName, coins); err != nil {
			return math.ZeroInt(), err
		}
	}
	p.wrapped = p.wrapped.Sub(amount)
	p.supplied = p.supplied.Sub(cost)
	return principal, nil
}

func (s *wrapperSimulator) WrappedBalance(ctx sdk.Context, market string, holder sdk.AccAddress) (math.Int, error) {
	return s.position(market, holder).wrapped, nil
}

// ============ Discount bills ============

type billPosition struct {
	face math.Int
	cost math.Int
}

// billSimulator implements strategies.BillDesk and BillRateSource.
// Bills are sold at a fixed discount to face and redeemed at par; the
// discount is minted when the position is sold back.
type billSimulator struct {
	bank      bankkeeper.BaseKeeper
	positions map[string]*billPosition
}

var (
	_ strategies.BillDesk       = (*billSimulator)(nil)
	_ strategies.BillRateSource = (*billSimulator)(nil)
)

func newBillSimulator(bank bankkeeper.BaseKeeper) *billSimulator {
	return &billSimulator{
		bank:      bank,
		positions: make(map[string]*billPosition),
	}
}

func (s *billSimulator) FundingAddress(string) sdk.AccAddress {
	return authtypes.NewModuleAddress(billProtocolName)
}

func (s *billSimulator) position(market string, holder sdk.AccAddress) *billPosition {
	key := positionKey(market, holder)
	p, ok := s.positions[key]
	if !ok {
		p = &billPosition{face: math.ZeroInt(), cost: math.ZeroInt()}
		s.positions[key] = p
	}
	return p
}

func (s *billSimulator) Quote(ctx sdk.Context, _ string, amountIn math.Int) (math.Int, int64, error) {
	face := amountIn.Mul(math.NewInt(10000)).Quo(math.NewInt(10000 - billDiscountBps))
	return face, ctx.BlockTime().Unix() + billTermSeconds, nil
}

func (s *billSimulator) Buy(ctx sdk.Context, market string, holder sdk.AccAddress, amountIn math.Int) (math.Int, int64, error) {
	face, maturity, err := s.Quote(ctx, market, amountIn)
	if err != nil {
		return math.ZeroInt(), 0, err
	}
	p := s.position(market, holder)
	p.face = p.face.Add(face)
	p.cost = p.cost.Add(amountIn)
	return face, maturity, nil
}

func (s *billSimulator) Sell(ctx sdk.Context, market string, holder sdk.AccAddress, face math.Int) (math.Int, error) {
	p := s.position(market, holder)
	if face.GT(p.face) {
		face = p.face
	}
	if !face.IsPositive() {
		return math.ZeroInt(), nil
	}

	// redeem at par; the spread over the purchase cost is minted
	cost := p.cost.Mul(face).Quo(p.face)
	if face.GT(cost) {
		coins := sdk.NewCoins(sdk.NewCoin(marketDenom(market), face.Sub(cost)))
		if err := s.bank.MintCoins(ctx, billProtocolName, coins); err != nil {
			return math.ZeroInt(), err
		}
	}
	p.face = p.face.Sub(face)
	p.cost = p.cost.Sub(cost)
	return face, nil
}

// MarkPrice values an unmatured bill at face less a flat haircut.
func (s *billSimulator) MarkPrice(ctx sdk.Context, _ string, face math.Int, maturity int64) (math.Int, error) {
	if ctx.BlockTime().Unix() >= maturity {
		return face, nil
	}
	return face.Mul(math.NewInt(10000 - billMarkHaircutBps)).Quo(math.NewInt(10000)), nil
}
