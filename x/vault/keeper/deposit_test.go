package keeper

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/yieldvault/x/vault/strategies"
	"github.com/openalpha/yieldvault/x/vault/types"
)

// TestFirstDepositMintsOneToOne tests the empty-pool 1:1 share issue
func TestFirstDepositMintsOneToOne(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	receipt, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !receipt.Shares.Equal(math.NewInt(1000)) {
		t.Errorf("expected 1000 shares, got %s", receipt.Shares.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.alice); !got.Equal(math.NewInt(1000)) {
		t.Errorf("share balance = %s, want 1000", got.String())
	}

	pool := e.pool()
	if !pool.TotalShares.Equal(math.NewInt(1000)) {
		t.Errorf("total shares = %s, want 1000", pool.TotalShares.String())
	}
	// all principal moved through the strategy
	if !pool.IdleBalance.IsZero() {
		t.Errorf("idle balance = %s, want 0", pool.IdleBalance.String())
	}
	if !e.strat.invested.Equal(math.NewInt(1000)) {
		t.Errorf("strategy position = %s, want 1000", e.strat.invested.String())
	}
	if got := e.bank.balanceOf(e.strat.addr.String()); !got.Equal(math.NewInt(1000)) {
		t.Errorf("protocol balance = %s, want 1000", got.String())
	}
}

// TestDepositAfterYieldCrystallizesFee tests the pre-deposit fee pass:
// a 10% gain at a 20% rate mints 18 fee shares before the newcomer's
// conversion baseline is read
func TestDepositAfterYieldCrystallizesFee(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	e.strat.addYield(100)

	receipt, err := e.k.Deposit(e.ctx, "vault-usdc", e.bob, e.bob, math.NewInt(1100), nil)
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}

	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.collector); !got.Equal(math.NewInt(18)) {
		t.Errorf("collector shares = %s, want 18", got.String())
	}
	// bob converts at the diluted baseline: floor(1100 * 1018 / 1100)
	if !receipt.Shares.Equal(math.NewInt(1018)) {
		t.Errorf("bob shares = %s, want 1018", receipt.Shares.String())
	}

	pool := e.pool()
	if !pool.TotalShares.Equal(math.NewInt(2036)) {
		t.Errorf("total shares = %s, want 2036", pool.TotalShares.String())
	}
	// mark moved to the post-dilution ratio
	expectedMark := math.NewInt(1100).Mul(types.Precision).Quo(math.NewInt(1018))
	if !pool.HighWaterMark.Equal(expectedMark) {
		t.Errorf("high water mark = %s, want %s", pool.HighWaterMark.String(), expectedMark.String())
	}
}

// TestPreviewDepositMatchesExecution tests the quote/execute agreement
// with a pending fee charge in between
func TestPreviewDepositMatchesExecution(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100)

	quoted, err := e.k.PreviewDeposit(e.ctx, "vault-usdc", math.NewInt(1100))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	receipt, err := e.k.Deposit(e.ctx, "vault-usdc", e.bob, e.bob, math.NewInt(1100), nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !quoted.Equal(receipt.Shares) {
		t.Errorf("preview %s disagrees with execution %s", quoted.String(), receipt.Shares.String())
	}
}

// TestDepositEntryGainSkimsFee tests the instant-profit channel: an
// adapter booking face value above principal has the gain's fee share
// minted to the collector in the same action
func TestDepositEntryGainSkimsFee(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)
	e.strat.gainBps = 800 // accounted = 108% of principal

	// seed a 1:1 baseline with no gain
	e.strat.gainBps = 0
	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	e.strat.gainBps = 800

	receipt, err := e.k.Deposit(e.ctx, "vault-usdc", e.bob, e.bob, math.NewInt(100), nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// accounted 108, gain 8, fee floor(8*0.2) = 1, net 107 at 1:1
	if !receipt.Shares.Equal(math.NewInt(107)) {
		t.Errorf("bob shares = %s, want 107", receipt.Shares.String())
	}
	if !receipt.FeeShares.Equal(math.NewInt(1)) {
		t.Errorf("entry fee shares = %s, want 1", receipt.FeeShares.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.collector); !got.Equal(math.NewInt(1)) {
		t.Errorf("collector shares = %s, want 1", got.String())
	}
}

// TestMintChargesRoundedUpPrincipal tests the share-exact entry
func TestMintChargesRoundedUpPrincipal(t *testing.T) {
	e := setupKeeper()
	e.initPool(0)

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e.strat.addYield(100) // ratio now 1.1

	quoted, err := e.k.PreviewMint(e.ctx, "vault-usdc", math.NewInt(97))
	if err != nil {
		t.Fatalf("preview mint: %v", err)
	}
	// ceil(97 * 1100 / 1000) = 107
	if !quoted.Equal(math.NewInt(107)) {
		t.Errorf("preview mint = %s, want 107", quoted.String())
	}

	receipt, err := e.k.Mint(e.ctx, "vault-usdc", e.bob, e.bob, math.NewInt(97))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !receipt.Assets.Equal(quoted) {
		t.Errorf("charged %s, quoted %s", receipt.Assets.String(), quoted.String())
	}
	if receipt.Shares.LT(math.NewInt(97)) {
		t.Errorf("minted %s shares, requested 97", receipt.Shares.String())
	}
}

// TestDepositRejectsInvalidInputs tests the guard clauses
func TestDepositRejectsInvalidInputs(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	if _, err := e.k.Deposit(e.ctx, "nope", e.alice, e.alice, math.NewInt(100), nil); err == nil {
		t.Error("expected error for unknown pool")
	}
	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.ZeroInt(), nil); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, "", math.NewInt(100), nil); err == nil {
		t.Error("expected error for empty receiver")
	}
}

// TestDepositFailedInvestLeavesStateUntouched tests action atomicity: a
// refusing adapter must not leave partial pool state behind
func TestDepositFailedInvestLeavesStateUntouched(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)
	e.strat.failInvest = true

	if _, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil); err == nil {
		t.Fatal("expected deposit to fail")
	}

	pool := e.pool()
	if !pool.TotalShares.IsZero() {
		t.Errorf("total shares = %s, want 0 after failed deposit", pool.TotalShares.String())
	}
	if !pool.IdleBalance.IsZero() {
		t.Errorf("idle balance = %s, want 0 after failed deposit", pool.IdleBalance.String())
	}
	if got := e.k.GetShareBalance(e.ctx, "vault-usdc", e.alice); !got.IsZero() {
		t.Errorf("share balance = %s, want 0 after failed deposit", got.String())
	}
}

// TestFailedDepositRollsBackBillBook tests that a deposit failing after
// the adapter already bought bills leaves no trace in pool valuation:
// the maturity book lives in pool state and reverts with the action
func TestFailedDepositRollsBackBillBook(t *testing.T) {
	e := setupKeeper()
	e.k.RegisterStrategy(strategies.NewDiscountAdapter("bills", testBillDesk{}, testBillRates{bps: 10200}))
	if _, err := e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		Creator:      e.admin,
		PoolID:       "vault-bills",
		Asset:        testDenom,
		Market:       "bills/uusdc",
		Name:         "Bill Vault",
		Symbol:       "bUSDC",
		StrategyID:   "bills",
		FeeCollector: e.collector,
		FeeRateBps:   0,
	}); err != nil {
		t.Fatalf("init pool: %v", err)
	}

	if _, err := e.k.Deposit(e.ctx, "vault-bills", e.alice, e.alice, math.NewInt(200), nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// 200 buys 204 face, marked at 102% pre-maturity
	before, err := e.k.TotalAssets(e.ctx, e.k.GetPool(e.ctx, "vault-bills"))
	if err != nil {
		t.Fatalf("total assets: %v", err)
	}
	if !before.Equal(math.NewInt(208)) {
		t.Fatalf("total assets = %s, want 208", before.String())
	}

	// 1 unit converts to zero shares at the premium ratio; the action
	// fails after the bill purchase already went through
	if _, err := e.k.Deposit(e.ctx, "vault-bills", e.alice, e.alice, math.NewInt(1), nil); err == nil {
		t.Fatal("expected dust deposit to fail")
	}
	after, err := e.k.TotalAssets(e.ctx, e.k.GetPool(e.ctx, "vault-bills"))
	if err != nil {
		t.Fatalf("total assets: %v", err)
	}
	if !after.Equal(before) {
		t.Errorf("total assets = %s after failed deposit, want %s", after.String(), before.String())
	}
}

// TestReentrantActionRejected tests the in-flight guard
func TestReentrantActionRejected(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	e.k.inAction = true
	_, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil)
	if err == nil {
		t.Fatal("expected reentrant call to be rejected")
	}
	if !types.ErrReentrantCall.Is(err) {
		t.Errorf("expected ErrReentrantCall, got %v", err)
	}
}

// TestDepositReceiptRecorded tests receipt persistence and the user index
func TestDepositReceiptRecorded(t *testing.T) {
	e := setupKeeper()
	e.initPool(2000)

	receipt, err := e.k.Deposit(e.ctx, "vault-usdc", e.alice, e.alice, math.NewInt(1000), nil)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	stored := e.k.GetDepositReceipt(e.ctx, receipt.ReceiptID)
	if stored == nil {
		t.Fatal("receipt not stored")
	}
	if !stored.Assets.Equal(math.NewInt(1000)) {
		t.Errorf("stored assets = %s, want 1000", stored.Assets.String())
	}

	mine := e.k.GetUserDepositReceipts(e.ctx, e.alice)
	if len(mine) != 1 || mine[0].ReceiptID != receipt.ReceiptID {
		t.Errorf("user index returned %d receipts", len(mine))
	}
}
