package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/strategies"
	"github.com/openalpha/yieldvault/x/vault/types"
)

const testDenom = "uusdc"

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "--------------------")[:20]).String()
}

// fakeAccounts resolves module names to fixed addresses
type fakeAccounts struct{}

func (fakeAccounts) GetModuleAddress(name string) sdk.AccAddress {
	return sdk.AccAddress([]byte(name + "-module-account-----")[:20])
}

// fakeBank is an in-memory coin ledger. It does not enforce balance
// sufficiency; the keeper's own accounting is what is under test.
type fakeBank struct {
	accounts fakeAccounts
	balances map[string]map[string]math.Int
}

func newFakeBank() *fakeBank {
	return &fakeBank{balances: make(map[string]map[string]math.Int)}
}

func (b *fakeBank) adjust(addr, denom string, delta math.Int) {
	if b.balances[addr] == nil {
		b.balances[addr] = make(map[string]math.Int)
	}
	cur, ok := b.balances[addr][denom]
	if !ok {
		cur = math.ZeroInt()
	}
	b.balances[addr][denom] = cur.Add(delta)
}

func (b *fakeBank) move(from, to string, amt sdk.Coins) {
	for _, c := range amt {
		b.adjust(from, c.Denom, c.Amount.Neg())
		b.adjust(to, c.Denom, c.Amount)
	}
}

func (b *fakeBank) SendCoinsFromAccountToModule(_ context.Context, sender sdk.AccAddress, module string, amt sdk.Coins) error {
	b.move(sender.String(), b.accounts.GetModuleAddress(module).String(), amt)
	return nil
}

func (b *fakeBank) SendCoinsFromModuleToAccount(_ context.Context, module string, recipient sdk.AccAddress, amt sdk.Coins) error {
	b.move(b.accounts.GetModuleAddress(module).String(), recipient.String(), amt)
	return nil
}

func (b *fakeBank) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	cur, ok := b.balances[addr.String()][denom]
	if !ok {
		cur = math.ZeroInt()
	}
	return sdk.NewCoin(denom, cur)
}

func (b *fakeBank) balanceOf(addr string) math.Int {
	cur, ok := b.balances[addr][testDenom]
	if !ok {
		return math.ZeroInt()
	}
	return cur
}

// testStrategy is a controllable adapter: gainBps books an instant
// markup on invest, yield is added out of band, shortBy makes divests
// come back short, and the fail flags refuse calls outright.
type testStrategy struct {
	id         string
	addr       sdk.AccAddress
	invested   math.Int
	gainBps    int64
	shortBy    math.Int
	failInvest bool
	failDivest bool
}

func newTestStrategy(id string) *testStrategy {
	return &testStrategy{
		id:       id,
		addr:     sdk.AccAddress([]byte(id + "-protocol-----------")[:20]),
		invested: math.ZeroInt(),
		shortBy:  math.ZeroInt(),
	}
}

func (s *testStrategy) ID() string { return s.id }

func (s *testStrategy) accounted(amountIn math.Int) math.Int {
	return amountIn.MulRaw(types.BpsDivisor + s.gainBps).QuoRaw(types.BpsDivisor)
}

func (s *testStrategy) Invest(ctx sdk.Context, custody strategies.Custody, _ strategies.Config, amountIn math.Int, _ []byte) (strategies.InvestResult, error) {
	if s.failInvest {
		return strategies.InvestResult{}, errors.New("invest refused")
	}
	if err := custody.Send(ctx, s.addr, amountIn); err != nil {
		return strategies.InvestResult{}, err
	}
	accounted := s.accounted(amountIn)
	s.invested = s.invested.Add(accounted)
	return strategies.InvestResult{Accounted: accounted, EntryGain: accounted.Sub(amountIn)}, nil
}

func (s *testStrategy) Divest(ctx sdk.Context, custody strategies.Custody, _ strategies.Config, amountOut math.Int, _ []byte) (strategies.DivestResult, error) {
	if s.failDivest {
		return strategies.DivestResult{}, errors.New("divest refused")
	}
	out := amountOut
	if out.GT(s.invested) {
		out = s.invested
	}
	out = out.Sub(s.shortBy)
	if out.IsNegative() {
		out = math.ZeroInt()
	}
	if err := custody.Receive(ctx, s.addr, out); err != nil {
		return strategies.DivestResult{}, err
	}
	s.invested = s.invested.Sub(out)
	return strategies.DivestResult{Recovered: out, ExitGain: math.ZeroInt()}, nil
}

func (s *testStrategy) Valuation(_ sdk.Context, _ strategies.Custody, _ strategies.Config) (math.Int, error) {
	return s.invested, nil
}

func (s *testStrategy) PreviewInvest(_ sdk.Context, _ strategies.Custody, _ strategies.Config, amountIn math.Int) (strategies.InvestResult, error) {
	accounted := s.accounted(amountIn)
	return strategies.InvestResult{Accounted: accounted, EntryGain: accounted.Sub(amountIn)}, nil
}

// addYield simulates value accrual inside the external protocol
func (s *testStrategy) addYield(n int64) {
	s.invested = s.invested.Add(math.NewInt(n))
}

// testBillDesk sells bills at a 2% instant discount and buys back at par
type testBillDesk struct{}

func (testBillDesk) FundingAddress(string) sdk.AccAddress {
	return sdk.AccAddress([]byte("bill-desk-----------")[:20])
}

func (testBillDesk) Quote(_ sdk.Context, _ string, amountIn math.Int) (math.Int, int64, error) {
	return amountIn.MulRaw(10200).QuoRaw(10000), 5000, nil
}

func (d testBillDesk) Buy(ctx sdk.Context, market string, _ sdk.AccAddress, amountIn math.Int) (math.Int, int64, error) {
	return d.Quote(ctx, market, amountIn)
}

func (testBillDesk) Sell(_ sdk.Context, _ string, _ sdk.AccAddress, face math.Int) (math.Int, error) {
	return face, nil
}

// testBillRates marks unmatured bills at bps of face
type testBillRates struct{ bps int64 }

func (r testBillRates) MarkPrice(_ sdk.Context, _ string, face math.Int, _ int64) (math.Int, error) {
	return face.MulRaw(r.bps).QuoRaw(10000), nil
}

type testEnv struct {
	ctx   sdk.Context
	k     *Keeper
	bank  *fakeBank
	strat *testStrategy

	admin     string
	collector string
	alice     string
	bob       string
}

func setupKeeper() *testEnv {
	key := storetypes.NewKVStoreKey(types.ModuleName)
	tkey := storetypes.NewTransientStoreKey("transient_test")
	ctx := testutil.DefaultContext(key, tkey)

	bank := newFakeBank()
	k := NewKeeper(nil, key, bank, fakeAccounts{}, testAddr("authority"), log.NewNopLogger())
	strat := newTestStrategy("lend")
	k.RegisterStrategy(strat)

	return &testEnv{
		ctx:       ctx,
		k:         k,
		bank:      bank,
		strat:     strat,
		admin:     testAddr("admin"),
		collector: testAddr("collector"),
		alice:     testAddr("alice"),
		bob:       testAddr("bob"),
	}
}

func (e *testEnv) initPool(feeBps int64) *types.Pool {
	pool, err := e.k.InitializePool(e.ctx, e.admin, &types.MsgInitializePool{
		Creator:      e.admin,
		PoolID:       "vault-usdc",
		Asset:        testDenom,
		Market:       "lend/uusdc",
		Name:         "USDC Vault",
		Symbol:       "vUSDC",
		StrategyID:   "lend",
		FeeCollector: e.collector,
		FeeRateBps:   feeBps,
	})
	if err != nil {
		panic(err)
	}
	return pool
}

func (e *testEnv) pool() *types.Pool {
	return e.k.GetPool(e.ctx, "vault-usdc")
}
