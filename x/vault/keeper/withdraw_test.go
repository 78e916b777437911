package keeper

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// TestWithdrawExactDivestsShortfall tests that idle custody is topped up
// from the strategy and the payout reaches the receiver
func TestWithdrawExactDivestsShortfall(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	before := e.bank.balanceOf(e.alice)

	receipt, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(400)))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !receipt.Assets.Equal(math.NewInt(400)) {
		t.Errorf("payout = %s, want 400", receipt.Assets.String())
	}
	if !receipt.Shares.Equal(math.NewInt(400)) {
		t.Errorf("shares burned = %s, want 400", receipt.Shares.String())
	}
	if got := e.bank.balanceOf(e.alice).Sub(before); !got.Equal(math.NewInt(400)) {
		t.Errorf("receiver credited %s, want 400", got.String())
	}
	if !e.strat.invested.Equal(math.NewInt(600)) {
		t.Errorf("strategy position = %s, want 600", e.strat.invested.String())
	}
}

// TestWithdrawAllDrainsBalance tests the "all" sentinel
func TestWithdrawAllDrainsBalance(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	receipt, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountAll())
	if err != nil {
		t.Fatalf("withdraw all: %v", err)
	}
	if !receipt.Shares.Equal(math.NewInt(1000)) {
		t.Errorf("shares burned = %s, want 1000", receipt.Shares.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.alice); !got.IsZero() {
		t.Errorf("remaining balance = %s, want 0", got.String())
	}
	if !e.pool().TotalShares.IsZero() {
		t.Errorf("total shares = %s, want 0", e.pool().TotalShares.String())
	}
}

// TestWithdrawRoundsSharesUp tests that a payout not dividing evenly
// never undercharges the pool
func TestWithdrawRoundsSharesUp(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100) // ratio 1.1

	receipt, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(107)))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// ceil(107 * 1000 / 1100) = 98
	if !receipt.Shares.Equal(math.NewInt(98)) {
		t.Errorf("shares burned = %s, want 98", receipt.Shares.String())
	}
}

// TestRedeemPaysFloorValue tests the share-exact exit
func TestRedeemPaysFloorValue(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100)

	receipt, err := e.k.Redeem(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(97)))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	// floor(97 * 1100 / 1000) = 106
	if !receipt.Assets.Equal(math.NewInt(106)) {
		t.Errorf("payout = %s, want 106", receipt.Assets.String())
	}
	if !receipt.Shares.Equal(math.NewInt(97)) {
		t.Errorf("shares burned = %s, want 97", receipt.Shares.String())
	}
}

// TestWithdrawToleratesAdapterRounding tests the shortfall tolerance: a
// divest one unit short of a large payout passes, the same shortfall on
// a payout too small for the tolerance fails
func TestWithdrawToleratesAdapterRounding(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(50000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.shortBy = math.NewInt(1)

	receipt, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(20000)))
	if err != nil {
		t.Fatalf("withdraw within tolerance: %v", err)
	}
	// one basis point of 20000 is 2; a deficit of 1 passes
	if !receipt.Assets.Equal(math.NewInt(19999)) {
		t.Errorf("payout = %s, want 19999", receipt.Assets.String())
	}

	// one basis point of 400 floors to 0; the same deficit now fails
	_, err = e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(400)))
	if err == nil {
		t.Fatal("expected shortfall beyond tolerance to fail")
	}
	if !types.ErrLiquidityShortfall.Is(err) {
		t.Errorf("expected ErrLiquidityShortfall, got %v", err)
	}
}

// TestWithdrawInsufficientShares tests overdrawn exits
func TestWithdrawInsufficientShares(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(100), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	_, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(500)))
	if err == nil {
		t.Fatal("expected error")
	}
	if !types.ErrInsufficientShares.Is(err) {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
}

// TestDelegatedWithdrawRequiresAllowance tests the approval path
func TestDelegatedWithdrawRequiresAllowance(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// bob acting on alice's shares without approval
	_, err := e.k.Withdraw(e.ctx, "vault-usdc", e.bob, e.alice, e.bob, types.AmountExact(math.NewInt(300)))
	if err == nil {
		t.Fatal("expected allowance failure")
	}
	if !types.ErrInsufficientAllowance.Is(err) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}

	e.k.SetShareAllowance(e.ctx, "vault-usdc", e.alice, e.bob, math.NewInt(300))
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.bob, e.alice, e.bob, types.AmountExact(math.NewInt(300))); err != nil {
		t.Fatalf("approved withdraw: %v", err)
	}
	if got := e.k.GetShareAllowance(e.ctx, "vault-usdc", e.alice, e.bob); !got.IsZero() {
		t.Errorf("allowance = %s, want 0 after spend", got.String())
	}
}

// TestTransferShares tests in-pool share movement
func TestTransferShares(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := e.k.TransferShares(e.ctx, "vault-usdc", e.alice, e.bob, math.NewInt(250)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.alice); !got.Equal(math.NewInt(750)) {
		t.Errorf("alice balance = %s, want 750", got.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.bob); !got.Equal(math.NewInt(250)) {
		t.Errorf("bob balance = %s, want 250", got.String())
	}
	// supply untouched
	if !e.pool().TotalShares.Equal(math.NewInt(1000)) {
		t.Errorf("total shares = %s, want 1000", e.pool().TotalShares.String())
	}

	if err := e.k.TransferShares(e.ctx, "vault-usdc", e.bob, e.alice, math.NewInt(999)); err == nil {
		t.Error("expected overdraw to fail")
	}
}

// TestPausedPoolBlocksActions tests the pause gate on both directions
func TestPausedPoolBlocksActions(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := e.k.Pause(e.ctx, "vault-usdc", e.admin); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.bob, e.bob, math.NewInt(100), nil); !types.ErrPoolPaused.Is(err) {
		t.Errorf("expected ErrPoolPaused on deposit, got %v", err)
	}
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountAll()); !types.ErrPoolPaused.Is(err) {
		t.Errorf("expected ErrPoolPaused on withdraw, got %v", err)
	}

	if err := e.k.Unpause(e.ctx, "vault-usdc", e.admin); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountAll()); err != nil {
		t.Errorf("withdraw after unpause: %v", err)
	}
}

// TestShareSupplyEventsEmitted tests the issuance and burn notifications
func TestShareSupplyEventsEmitted(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := e.k.Withdraw(e.ctx, "vault-usdc", e.alice, e.alice, e.alice, types.AmountExact(math.NewInt(400))); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	var minted, burned bool
	for _, ev := range e.ctx.EventManager().Events() {
		switch ev.Type {
		case types.EventTypeSharesMinted:
			minted = true
		case types.EventTypeSharesBurned:
			burned = true
		}
	}
	if !minted {
		t.Error("no share issuance event emitted")
	}
	if !burned {
		t.Error("no share burn event emitted")
	}
}
