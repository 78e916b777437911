package keeper

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// TestInitializePool tests pool creation and the exactly-once market
// binding
func TestInitializePool(t *testing.T) {
	e := setupKeeper()
	pool := e.initPool(2000)

	if pool.Admin != e.admin {
		t.Errorf("admin = %s, want %s", pool.Admin, e.admin)
	}
	if e.k.GetPoolByMarket(e.ctx, "lend/uusdc") == nil {
		t.Error("market index not written")
	}
	if e.k.GetPoolStats(e.ctx, "vault-usdc") == nil {
		t.Error("stats record not created")
	}

	// same pool ID
	_, err := e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		PoolID: "vault-usdc", Asset: testDenom, Market: "other/uusdc",
		StrategyID: "lend", FeeCollector: e.collector,
	})
	if !types.ErrPoolExists.Is(err) {
		t.Errorf("expected ErrPoolExists, got %v", err)
	}

	// same market, different pool
	_, err = e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		PoolID: "vault-usdc-2", Asset: testDenom, Market: "lend/uusdc",
		StrategyID: "lend", FeeCollector: e.collector,
	})
	if !types.ErrMarketTaken.Is(err) {
		t.Errorf("expected ErrMarketTaken, got %v", err)
	}

	// fee above cap
	_, err = e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		PoolID: "vault-usdc-3", Asset: testDenom, Market: "third/uusdc",
		StrategyID: "lend", FeeCollector: e.collector,
		FeeRateBps: types.MaxPerformanceFeeBps + 1,
	})
	if !types.ErrFeeRateTooHigh.Is(err) {
		t.Errorf("expected ErrFeeRateTooHigh, got %v", err)
	}

	// unregistered strategy
	_, err = e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		PoolID: "vault-usdc-4", Asset: testDenom, Market: "fourth/uusdc",
		StrategyID: "nope", FeeCollector: e.collector,
	})
	if !types.ErrStrategyNotFound.Is(err) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

// TestSetStrategyMigratesPosition tests the full swap: crystallize,
// divest old, rebind, reinvest through the new adapter
func TestSetStrategyMigratesPosition(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)
	second := newTestStrategy("lend2")
	e.k.RegisterStrategy(second)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100)

	if err := e.k.SetStrategy(e.ctx, "vault-usdc", e.admin, "lend2"); err != nil {
		t.Fatalf("set strategy: %v", err)
	}

	pool := e.pool()
	if pool.StrategyID != "lend2" {
		t.Errorf("strategy = %s, want lend2", pool.StrategyID)
	}
	// pending gain was charged before migration
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.collector); !got.Equal(math.NewInt(18)) {
		t.Errorf("collector shares = %s, want 18", got.String())
	}
	// old position emptied, value reinvested through the new adapter
	if !e.strat.invested.IsZero() {
		t.Errorf("old strategy position = %s, want 0", e.strat.invested.String())
	}
	if !second.invested.Equal(math.NewInt(1100)) {
		t.Errorf("new strategy position = %s, want 1100", second.invested.String())
	}
	if !pool.IdleBalance.IsZero() {
		t.Errorf("idle balance = %s, want 0", pool.IdleBalance.String())
	}
}

// TestSetStrategyDivestFailureStillRebinds tests that a refusing old
// adapter cannot hold the pool hostage: the swap completes and the
// stranded position is simply left behind
func TestSetStrategyDivestFailureStillRebinds(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)
	second := newTestStrategy("lend2")
	e.k.RegisterStrategy(second)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.failDivest = true

	if err := e.k.SetStrategy(e.ctx, "vault-usdc", e.admin, "lend2"); err != nil {
		t.Fatalf("set strategy: %v", err)
	}

	pool := e.pool()
	if pool.StrategyID != "lend2" {
		t.Errorf("strategy = %s, want lend2", pool.StrategyID)
	}
	// the old position is untouched, nothing was pulled or reinvested
	if !e.strat.invested.Equal(math.NewInt(1000)) {
		t.Errorf("old strategy position = %s, want 1000", e.strat.invested.String())
	}
	if !second.invested.IsZero() {
		t.Errorf("new strategy position = %s, want 0", second.invested.String())
	}
	if !pool.IdleBalance.IsZero() {
		t.Errorf("idle balance = %s, want 0", pool.IdleBalance.String())
	}
}

// TestSetStrategyInvestFailureLeavesFundsIdle tests that a refusing new
// adapter keeps the rebind and parks the recovered principal in custody
func TestSetStrategyInvestFailureLeavesFundsIdle(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)
	second := newTestStrategy("lend2")
	second.failInvest = true
	e.k.RegisterStrategy(second)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := e.k.SetStrategy(e.ctx, "vault-usdc", e.admin, "lend2"); err != nil {
		t.Fatalf("set strategy: %v", err)
	}

	pool := e.pool()
	if pool.StrategyID != "lend2" {
		t.Errorf("strategy = %s, want lend2", pool.StrategyID)
	}
	if !pool.IdleBalance.Equal(math.NewInt(1000)) {
		t.Errorf("idle balance = %s, want 1000", pool.IdleBalance.String())
	}
	if !second.invested.IsZero() {
		t.Errorf("new strategy position = %s, want 0", second.invested.String())
	}

	// idle principal is still fully withdrawable
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountAll()); err != nil {
		t.Errorf("withdraw after failed reinvest: %v", err)
	}
}

// TestSetStrategyAuthorization tests admin and registry checks
func TestSetStrategyAuthorization(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if err := e.k.SetStrategy(e.ctx, "vault-usdc", e.bob, "lend"); !types.ErrUnauthorized.Is(err) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := e.k.SetStrategy(e.ctx, "vault-usdc", e.admin, "nope"); !types.ErrStrategyNotFound.Is(err) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

// TestSetPerformanceFeeRateCrystallizesFirst tests that pending gains
// are charged at the outgoing rate before the new one applies
func TestSetPerformanceFeeRateCrystallizesFirst(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100)

	if err := e.k.SetPerformanceFeeRate(e.ctx, "vault-usdc", e.admin, 500); err != nil {
		t.Fatalf("set rate: %v", err)
	}

	// 18 shares at the old 20% rate, not 4 at the new 5%
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.collector); !got.Equal(math.NewInt(18)) {
		t.Errorf("collector shares = %s, want 18", got.String())
	}
	if e.pool().PerformanceFeeBps != 500 {
		t.Errorf("rate = %d, want 500", e.pool().PerformanceFeeBps)
	}

	if err := e.k.SetPerformanceFeeRate(e.ctx, "vault-usdc", e.admin, types.MaxPerformanceFeeBps+1); !types.ErrFeeRateTooHigh.Is(err) {
		t.Errorf("expected ErrFeeRateTooHigh, got %v", err)
	}
}

// TestSetFeeCollector tests collector redirection
func TestSetFeeCollector(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if err := e.k.SetFeeCollector(e.ctx, "vault-usdc", e.admin, e.bob); err != nil {
		t.Fatalf("set collector: %v", err)
	}
	if e.pool().FeeCollector != e.bob {
		t.Errorf("collector = %s, want %s", e.pool().FeeCollector, e.bob)
	}
	if err := e.k.SetFeeCollector(e.ctx, "vault-usdc", e.bob, e.alice); !types.ErrUnauthorized.Is(err) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTransferAdmin(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if err := e.k.TransferAdmin(e.ctx, "vault-usdc", e.bob, e.alice); !types.ErrUnauthorized.Is(err) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := e.k.TransferAdmin(e.ctx, "vault-usdc", e.admin, e.bob); err != nil {
		t.Fatalf("transfer admin: %v", err)
	}
	if e.pool().Admin != e.bob {
		t.Errorf("admin = %s, want %s", e.pool().Admin, e.bob)
	}

	// the old admin loses the role entirely
	if err := e.k.Pause(e.ctx, "vault-usdc", e.admin); !types.ErrUnauthorized.Is(err) {
		t.Errorf("expected old admin rejected, got %v", err)
	}
	if err := e.k.Pause(e.ctx, "vault-usdc", e.bob); err != nil {
		t.Errorf("new admin pause: %v", err)
	}
}

// TestEmergencyWithdraw tests the full divest-and-pause path
func TestEmergencyWithdraw(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	recovered, err := e.k.EmergencyWithdraw(e.ctx, "vault-usdc", e.admin, types.AmountAll())
	if err != nil {
		t.Fatalf("emergency withdraw: %v", err)
	}
	if !recovered.Equal(math.NewInt(1000)) {
		t.Errorf("recovered = %s, want 1000", recovered.String())
	}

	pool := e.pool()
	if pool.Status != types.PoolStatusPaused {
		t.Errorf("status = %s, want paused", pool.Status)
	}
	// principal back in pool custody, claims untouched
	if !pool.IdleBalance.Equal(math.NewInt(1000)) {
		t.Errorf("idle balance = %s, want 1000", pool.IdleBalance.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.alice); !got.Equal(math.NewInt(1000)) {
		t.Errorf("alice shares = %s, want 1000", got.String())
	}

	// holders exit through the normal path once unpaused
	if err := e.k.Unpause(e.ctx, "vault-usdc", e.admin); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountAll()); err != nil {
		t.Errorf("withdraw after emergency: %v", err)
	}
}

// TestEndBlockerRecordsRatioHistory tests the sampling hook
func TestEndBlockerRecordsRatioHistory(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100)

	ctx := e.ctx.WithBlockHeight(RatioObservationInterval)
	if err := e.k.EndBlocker(ctx); err != nil {
		t.Fatalf("end blocker: %v", err)
	}

	history := e.k.GetRatioHistory(e.ctx, "vault-usdc", 0)
	if len(history) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(history))
	}
	expected := math.NewInt(1100).Mul(types.Precision).Quo(math.NewInt(1000))
	if !history[0].Ratio.Equal(expected) {
		t.Errorf("observed ratio = %s, want %s", history[0].Ratio.String(), expected.String())
	}

	// off-interval heights record nothing
	if err := e.k.EndBlocker(e.ctx.WithBlockHeight(RatioObservationInterval + 1)); err != nil {
		t.Fatalf("end blocker: %v", err)
	}
	if got := len(e.k.GetRatioHistory(e.ctx, "vault-usdc", 0)); got != 1 {
		t.Errorf("expected still 1 observation, got %d", got)
	}
}
