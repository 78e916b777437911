package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/api/types"
	"github.com/openalpha/yieldvault/x/vault/keeper"
	"github.com/openalpha/yieldvault/x/vault/strategies"
	vaulttypes "github.com/openalpha/yieldvault/x/vault/types"
)

const (
	keeperPoolID = "pool-1"
	keeperDenom  = "uusdc"
	keeperMarket = "lending/uusdc"
)

// KeeperService implements VaultService by running a real vault keeper
// over an in-memory store with a simulated lending market. Deposits are
// auto-funded so the service works as a standalone sandbox.
type KeeperService struct {
	keeper *keeper.Keeper
	bank   *memBank
	ctx    sdk.Context
	height int64
	mu     sync.Mutex
}

// memAccounts resolves module names to fixed addresses
type memAccounts struct{}

func (memAccounts) GetModuleAddress(name string) sdk.AccAddress {
	return sdk.AccAddress([]byte(name + "-module-account-----")[:20])
}

// memBank is an in-memory coin ledger backing the keeper's transfers.
// Balances go negative rather than erroring; the sandbox funds deposits
// before settling them so users never see a shortfall.
type memBank struct {
	accounts memAccounts
	balances map[string]math.Int
	mu       sync.Mutex
}

func newMemBank() *memBank {
	return &memBank{balances: make(map[string]math.Int)}
}

func (b *memBank) adjust(addr string, delta math.Int) {
	cur, ok := b.balances[addr]
	if !ok {
		cur = math.ZeroInt()
	}
	b.balances[addr] = cur.Add(delta)
}

func (b *memBank) fund(addr sdk.AccAddress, amount math.Int) {
	b.mu.Lock()
	b.adjust(addr.String(), amount)
	b.mu.Unlock()
}

func (b *memBank) SendCoinsFromAccountToModule(_ context.Context, sender sdk.AccAddress, module string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range amt {
		b.adjust(sender.String(), c.Amount.Neg())
		b.adjust(b.accounts.GetModuleAddress(module).String(), c.Amount)
	}
	return nil
}

func (b *memBank) SendCoinsFromModuleToAccount(_ context.Context, module string, recipient sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range amt {
		b.adjust(b.accounts.GetModuleAddress(module).String(), c.Amount.Neg())
		b.adjust(recipient.String(), c.Amount)
	}
	return nil
}

func (b *memBank) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.balances[addr.String()]
	if !ok {
		cur = math.ZeroInt()
	}
	return sdk.NewCoin(denom, cur)
}

// simLendingMarket is a principal-preserving lending protocol stand-in.
// Positions accrue 1 basis point of interest per block touched.
type simLendingMarket struct {
	positions map[string]*simLendingPosition
	mu        sync.Mutex
}

type simLendingPosition struct {
	principal math.Int
	accruedAt int64
}

func newSimLendingMarket() *simLendingMarket {
	return &simLendingMarket{positions: make(map[string]*simLendingPosition)}
}

func (m *simLendingMarket) key(market string, holder sdk.AccAddress) string {
	return market + "/" + holder.String()
}

func (m *simLendingMarket) FundingAddress(string) sdk.AccAddress {
	return sdk.AccAddress([]byte("sim-lending-protocol")[:20])
}

func (m *simLendingMarket) accrued(p *simLendingPosition, height int64) math.Int {
	blocks := height - p.accruedAt
	if blocks <= 0 || p.principal.IsZero() {
		return math.ZeroInt()
	}
	return p.principal.MulRaw(blocks).QuoRaw(10000)
}

func (m *simLendingMarket) touch(p *simLendingPosition, height int64) {
	p.principal = p.principal.Add(m.accrued(p, height))
	p.accruedAt = height
}

func (m *simLendingMarket) Supply(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[m.key(market, holder)]
	if !ok {
		p = &simLendingPosition{principal: math.ZeroInt(), accruedAt: ctx.BlockHeight()}
		m.positions[m.key(market, holder)] = p
	}
	m.touch(p, ctx.BlockHeight())
	p.principal = p.principal.Add(amount)
	return nil
}

func (m *simLendingMarket) Redeem(ctx sdk.Context, market string, holder sdk.AccAddress, amount math.Int) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[m.key(market, holder)]
	if !ok {
		return math.ZeroInt(), fmt.Errorf("no position in %s", market)
	}
	m.touch(p, ctx.BlockHeight())
	if amount.GT(p.principal) {
		amount = p.principal
	}
	p.principal = p.principal.Sub(amount)
	return amount, nil
}

func (m *simLendingMarket) PositionValue(ctx sdk.Context, market string, holder sdk.AccAddress) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[m.key(market, holder)]
	if !ok {
		return math.ZeroInt(), nil
	}
	return p.principal.Add(m.accrued(p, ctx.BlockHeight())), nil
}

// NewKeeperService creates a KeeperService with an in-memory vault keeper
// and one pre-initialized pool
func NewKeeperService(logger log.Logger) (*KeeperService, error) {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	storeKey := storetypes.NewKVStoreKey(vaulttypes.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, logger, storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: 1,
	}, false, logger)

	bank := newMemBank()
	admin := sdk.AccAddress([]byte("sandbox-admin-------")[:20]).String()
	collector := sdk.AccAddress([]byte("sandbox-collector---")[:20]).String()

	k := keeper.NewKeeper(cdc, storeKey, bank, memAccounts{}, admin, logger)

	market := newSimLendingMarket()
	k.RegisterStrategy(strategies.NewLendingAdapter("lending", market))

	if _, err := k.InitializePool(ctx, admin, &vaulttypes.MsgInitializePool{
		Creator:      admin,
		PoolID:       keeperPoolID,
		Asset:        keeperDenom,
		Market:       keeperMarket,
		Name:         "USDC Yield Pool",
		Symbol:       "yvUSDC",
		StrategyID:   "lending",
		FeeCollector: collector,
		FeeRateBps:   1000,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize pool: %w", err)
	}

	return &KeeperService{
		keeper: k,
		bank:   bank,
		ctx:    ctx,
		height: 1,
	}, nil
}

// advance moves the sandbox one block forward so strategy interest accrues
// and receipts get distinct heights
func (s *KeeperService) advance() sdk.Context {
	s.height++
	s.ctx = s.ctx.WithBlockHeight(s.height).WithBlockTime(time.Now())
	return s.ctx
}

// ============ Conversions ============

func (s *KeeperService) poolToAPI(ctx sdk.Context, pool *vaulttypes.Pool) *types.Pool {
	totalAssets, err := s.keeper.TotalAssets(ctx, pool)
	if err != nil {
		totalAssets = pool.IdleBalance
	}
	return &types.Pool{
		PoolID:            pool.PoolID,
		PrincipalAsset:    pool.PrincipalAsset,
		Market:            pool.Market,
		Name:              pool.Name,
		Symbol:            pool.Symbol,
		Status:            pool.Status,
		Admin:             pool.Admin,
		FeeCollector:      pool.FeeCollector,
		PerformanceFeeBps: pool.PerformanceFeeBps,
		HighWaterMark:     pool.HighWaterMark.String(),
		TotalShares:       pool.TotalShares.String(),
		TotalAssets:       totalAssets.String(),
		IdleBalance:       pool.IdleBalance.String(),
		StrategyID:        pool.StrategyID,
		Ratio:             pool.Ratio(totalAssets).String(),
		CreatedAt:         pool.CreatedAt * 1000,
		UpdatedAt:         types.NowMillis(),
	}
}

func depositReceiptToAPI(r *vaulttypes.DepositReceipt) *types.DepositReceipt {
	return &types.DepositReceipt{
		ReceiptID:   r.ReceiptID,
		PoolID:      r.PoolID,
		Depositor:   r.Depositor,
		Receiver:    r.Receiver,
		Assets:      r.Assets.String(),
		Shares:      r.Shares.String(),
		FeeShares:   r.FeeShares.String(),
		RatioAfter:  r.RatioAfter.String(),
		BlockHeight: r.BlockHeight,
		Timestamp:   r.Timestamp * 1000,
	}
}

func withdrawalReceiptToAPI(r *vaulttypes.WithdrawalReceipt) *types.WithdrawalReceipt {
	return &types.WithdrawalReceipt{
		ReceiptID:   r.ReceiptID,
		PoolID:      r.PoolID,
		Owner:       r.Owner,
		Receiver:    r.Receiver,
		Assets:      r.Assets.String(),
		Shares:      r.Shares.String(),
		RatioAfter:  r.RatioAfter.String(),
		BlockHeight: r.BlockHeight,
		Timestamp:   r.Timestamp * 1000,
	}
}

// ============ PoolService Implementation ============

func (s *KeeperService) ListPools(ctx context.Context) ([]*types.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools := s.keeper.GetAllPools(s.ctx)
	out := make([]*types.Pool, 0, len(pools))
	for _, pool := range pools {
		out = append(out, s.poolToAPI(s.ctx, pool))
	}
	return out, nil
}

func (s *KeeperService) GetPool(ctx context.Context, poolID string) (*types.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.keeper.GetPool(s.ctx, poolID)
	if pool == nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	return s.poolToAPI(s.ctx, pool), nil
}

func (s *KeeperService) GetPoolStats(ctx context.Context, poolID string) (*types.PoolStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keeper.GetPool(s.ctx, poolID) == nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	stats := s.keeper.GetPoolStats(s.ctx, poolID)
	return &types.PoolStats{
		PoolID:           stats.PoolID,
		TotalValueLocked: stats.TotalValueLocked.String(),
		TotalDepositors:  stats.TotalDepositors,
		TotalFeeShares:   stats.TotalFeeShares.String(),
		TotalDeposited:   stats.TotalDeposited.String(),
		TotalWithdrawn:   stats.TotalWithdrawn.String(),
		Crystallizations: stats.Crystallizations,
		UpdatedAt:        stats.UpdatedAt * 1000,
	}, nil
}

func (s *KeeperService) GetRatioHistory(ctx context.Context, poolID string, limit int) ([]*types.RatioPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keeper.GetPool(s.ctx, poolID) == nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	observations := s.keeper.GetRatioHistory(s.ctx, poolID, limit)
	out := make([]*types.RatioPoint, 0, len(observations))
	for _, obs := range observations {
		out = append(out, &types.RatioPoint{
			Ratio:       obs.Ratio.String(),
			TotalAssets: obs.TotalAssets.String(),
			TotalShares: obs.TotalShares.String(),
			BlockHeight: obs.BlockHeight,
			Timestamp:   obs.Timestamp * 1000,
		})
	}
	return out, nil
}

// GetRatioRange filters the stored history by millisecond timestamps.
func (s *KeeperService) GetRatioRange(ctx context.Context, poolID string, from, to int64) ([]*types.RatioPoint, error) {
	points, err := s.GetRatioHistory(ctx, poolID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*types.RatioPoint, 0, len(points))
	for _, p := range points {
		if p.Timestamp >= from && p.Timestamp <= to {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *KeeperService) GetShareBalance(ctx context.Context, poolID, address string) (*types.ShareBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.keeper.GetPool(s.ctx, poolID)
	if pool == nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}

	shares := s.keeper.GetShareBalance(s.ctx, poolID, address)
	totalAssets, err := s.keeper.TotalAssets(s.ctx, pool)
	if err != nil {
		totalAssets = pool.IdleBalance
	}
	return &types.ShareBalance{
		PoolID:     poolID,
		Address:    address,
		Shares:     shares.String(),
		ShareValue: pool.ConvertToAssets(shares, totalAssets).String(),
	}, nil
}

func (s *KeeperService) Preview(ctx context.Context, op string, req *types.PreviewRequest) (*types.PreviewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || amount.IsNegative() {
		return nil, fmt.Errorf("invalid amount: %s", req.Amount)
	}

	var out math.Int
	var err error
	switch op {
	case "deposit":
		out, err = s.keeper.PreviewDeposit(s.ctx, req.PoolID, amount)
	case "mint":
		out, err = s.keeper.PreviewMint(s.ctx, req.PoolID, amount)
	case "withdraw":
		out, err = s.keeper.PreviewWithdraw(s.ctx, req.PoolID, amount)
	case "redeem":
		out, err = s.keeper.PreviewRedeem(s.ctx, req.PoolID, amount)
	default:
		return nil, fmt.Errorf("unknown preview operation: %s", op)
	}
	if err != nil {
		return nil, err
	}

	return &types.PreviewResponse{
		PoolID: req.PoolID,
		Op:     op,
		In:     amount.String(),
		Out:    out.String(),
	}, nil
}

// ============ VaultService Implementation ============

func (s *KeeperService) Deposit(ctx context.Context, req *types.DepositRequest) (*types.DepositResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	depositor, err := sdk.AccAddressFromBech32(req.Depositor)
	if err != nil {
		// Sandbox accepts arbitrary identifiers and derives an address
		depositor = sdk.AccAddress([]byte(req.Depositor + "--------------------")[:20])
	}
	assets, ok := math.NewIntFromString(req.Assets)
	if !ok || !assets.IsPositive() {
		return nil, fmt.Errorf("invalid assets: %s", req.Assets)
	}

	receiver := req.Receiver
	if receiver == "" {
		receiver = depositor.String()
	}

	// Faucet: the sandbox funds the principal being deposited
	s.bank.fund(depositor, assets)

	sctx := s.advance()
	receipt, err := s.keeper.Deposit(sctx, req.PoolID, depositor.String(), receiver, assets, nil)
	if err != nil {
		return nil, err
	}
	return &types.DepositResponse{Receipt: depositReceiptToAPI(receipt)}, nil
}

func (s *KeeperService) Withdraw(ctx context.Context, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := sdk.AccAddressFromBech32(req.Caller)
	if err != nil {
		caller = sdk.AccAddress([]byte(req.Caller + "--------------------")[:20])
	}

	owner := req.Owner
	if owner == "" {
		owner = caller.String()
	}
	receiver := req.Receiver
	if receiver == "" {
		receiver = owner
	}

	amount, err := vaulttypes.ParseAmount(req.Assets)
	if err != nil {
		return nil, err
	}

	sctx := s.advance()
	receipt, err := s.keeper.Withdraw(sctx, req.PoolID, caller.String(), owner, receiver, amount)
	if err != nil {
		return nil, err
	}
	return &types.WithdrawResponse{Receipt: withdrawalReceiptToAPI(receipt)}, nil
}

func (s *KeeperService) GetUserDeposits(ctx context.Context, address string) ([]*types.DepositReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipts := s.keeper.GetUserDepositReceipts(s.ctx, address)
	out := make([]*types.DepositReceipt, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, depositReceiptToAPI(r))
	}
	return out, nil
}

func (s *KeeperService) GetUserWithdrawals(ctx context.Context, address string) ([]*types.WithdrawalReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipts := s.keeper.GetUserWithdrawalReceipts(s.ctx, address)
	out := make([]*types.WithdrawalReceipt, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, withdrawalReceiptToAPI(r))
	}
	return out, nil
}

// ============ Helper Methods ============

// GetKeeper returns the underlying keeper for direct access in tests
func (s *KeeperService) GetKeeper() *keeper.Keeper {
	return s.keeper
}

// GetContext returns the SDK context
func (s *KeeperService) GetContext() sdk.Context {
	return s.ctx
}
