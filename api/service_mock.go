package api

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"cosmossdk.io/math"

	"github.com/openalpha/yieldvault/api/types"
)

// MockService implements VaultService with in-memory share accounting
type MockService struct {
	pools       map[string]*mockPool
	balances    map[string]math.Int // poolID:address -> shares
	deposits    map[string][]*types.DepositReceipt
	withdrawals map[string][]*types.WithdrawalReceipt
	history     map[string]*ratioTimeline
	mu          sync.RWMutex
	receiptSeq  int64
}

type mockPool struct {
	info        *types.Pool
	totalShares math.Int
	totalAssets math.Int
	deposited   math.Int
	withdrawn   math.Int
	depositors  map[string]bool
}

var mockPrecision = math.NewIntWithDecimal(1, 18)

// NewMockService creates a new mock service
func NewMockService() *MockService {
	ms := &MockService{
		pools:       make(map[string]*mockPool),
		balances:    make(map[string]math.Int),
		deposits:    make(map[string][]*types.DepositReceipt),
		withdrawals: make(map[string][]*types.WithdrawalReceipt),
		history:     make(map[string]*ratioTimeline),
	}
	ms.initMockData()
	return ms
}

// initMockData seeds one empty pool
// NOTE: No hardcoded demo balances - positions come from real requests
func (ms *MockService) initMockData() {
	now := types.NowMillis()
	ms.pools["pool-1"] = &mockPool{
		info: &types.Pool{
			PoolID:            "pool-1",
			PrincipalAsset:    "uusdc",
			Market:            "lending/uusdc",
			Name:              "USDC Yield Pool",
			Symbol:            "yvUSDC",
			Status:            "active",
			Admin:             "mock-admin",
			FeeCollector:      "mock-collector",
			PerformanceFeeBps: 1000,
			HighWaterMark:     mockPrecision.String(),
			StrategyID:        "lending",
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		totalShares: math.ZeroInt(),
		totalAssets: math.ZeroInt(),
		deposited:   math.ZeroInt(),
		withdrawn:   math.ZeroInt(),
		depositors:  make(map[string]bool),
	}
}

func (ms *MockService) getPool(poolID string) (*mockPool, error) {
	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	return pool, nil
}

func (p *mockPool) ratio() math.Int {
	if p.totalShares.IsZero() {
		return mockPrecision
	}
	return p.totalAssets.Mul(mockPrecision).Quo(p.totalShares)
}

// toShares converts assets into shares, rounding down
func (p *mockPool) toShares(assets math.Int) math.Int {
	if p.totalShares.IsZero() || p.totalAssets.IsZero() {
		return assets
	}
	return assets.Mul(p.totalShares).Quo(p.totalAssets)
}

// toSharesUp converts assets into shares, rounding up
func (p *mockPool) toSharesUp(assets math.Int) math.Int {
	if p.totalShares.IsZero() || p.totalAssets.IsZero() {
		return assets
	}
	num := assets.Mul(p.totalShares)
	return num.Add(p.totalAssets.SubRaw(1)).Quo(p.totalAssets)
}

// toAssets converts shares into assets, rounding down
func (p *mockPool) toAssets(shares math.Int) math.Int {
	if p.totalShares.IsZero() {
		return shares
	}
	return shares.Mul(p.totalAssets).Quo(p.totalShares)
}

// toAssetsUp converts shares into assets, rounding up
func (p *mockPool) toAssetsUp(shares math.Int) math.Int {
	if p.totalShares.IsZero() {
		return shares
	}
	num := shares.Mul(p.totalAssets)
	return num.Add(p.totalShares.SubRaw(1)).Quo(p.totalShares)
}

func (p *mockPool) snapshot() *types.Pool {
	info := *p.info
	info.TotalShares = p.totalShares.String()
	info.TotalAssets = p.totalAssets.String()
	info.IdleBalance = p.totalAssets.String()
	info.Ratio = p.ratio().String()
	return &info
}

// ============ PoolService Implementation ============

func (ms *MockService) ListPools(ctx context.Context) ([]*types.Pool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pools := make([]*types.Pool, 0, len(ms.pools))
	for _, pool := range ms.pools {
		pools = append(pools, pool.snapshot())
	}
	return pools, nil
}

func (ms *MockService) GetPool(ctx context.Context, poolID string) (*types.Pool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, err := ms.getPool(poolID)
	if err != nil {
		return nil, err
	}
	return pool.snapshot(), nil
}

func (ms *MockService) GetPoolStats(ctx context.Context, poolID string) (*types.PoolStats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, err := ms.getPool(poolID)
	if err != nil {
		return nil, err
	}
	return &types.PoolStats{
		PoolID:           poolID,
		TotalValueLocked: pool.totalAssets.String(),
		TotalDepositors:  int64(len(pool.depositors)),
		TotalFeeShares:   "0",
		TotalDeposited:   pool.deposited.String(),
		TotalWithdrawn:   pool.withdrawn.String(),
		UpdatedAt:        types.NowMillis(),
	}, nil
}

func (ms *MockService) GetRatioHistory(ctx context.Context, poolID string, limit int) ([]*types.RatioPoint, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if _, err := ms.getPool(poolID); err != nil {
		return nil, err
	}

	tl := ms.history[poolID]
	if tl == nil {
		return nil, nil
	}
	return tl.Latest(limit), nil
}

func (ms *MockService) GetRatioRange(ctx context.Context, poolID string, from, to int64) ([]*types.RatioPoint, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if _, err := ms.getPool(poolID); err != nil {
		return nil, err
	}

	tl := ms.history[poolID]
	if tl == nil {
		return nil, nil
	}
	return tl.Between(from, to), nil
}

func (ms *MockService) GetShareBalance(ctx context.Context, poolID, address string) (*types.ShareBalance, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, err := ms.getPool(poolID)
	if err != nil {
		return nil, err
	}

	shares, ok := ms.balances[poolID+":"+address]
	if !ok {
		shares = math.ZeroInt()
	}
	return &types.ShareBalance{
		PoolID:     poolID,
		Address:    address,
		Shares:     shares.String(),
		ShareValue: pool.toAssets(shares).String(),
	}, nil
}

func (ms *MockService) Preview(ctx context.Context, op string, req *types.PreviewRequest) (*types.PreviewResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, err := ms.getPool(req.PoolID)
	if err != nil {
		return nil, err
	}

	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || amount.IsNegative() {
		return nil, fmt.Errorf("invalid amount: %s", req.Amount)
	}

	var out math.Int
	switch op {
	case "deposit":
		out = pool.toShares(amount)
	case "mint":
		out = pool.toAssetsUp(amount)
	case "withdraw":
		out = pool.toSharesUp(amount)
	case "redeem":
		out = pool.toAssets(amount)
	default:
		return nil, fmt.Errorf("unknown preview operation: %s", op)
	}

	return &types.PreviewResponse{
		PoolID: req.PoolID,
		Op:     op,
		In:     amount.String(),
		Out:    out.String(),
	}, nil
}

// ============ VaultService Implementation ============

func (ms *MockService) Deposit(ctx context.Context, req *types.DepositRequest) (*types.DepositResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, err := ms.getPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if pool.info.Status != "active" {
		return nil, fmt.Errorf("pool is %s", pool.info.Status)
	}

	assets, ok := math.NewIntFromString(req.Assets)
	if !ok || !assets.IsPositive() {
		return nil, fmt.Errorf("invalid assets: %s", req.Assets)
	}

	receiver := req.Receiver
	if receiver == "" {
		receiver = req.Depositor
	}

	shares := pool.toShares(assets)
	if shares.IsZero() {
		return nil, fmt.Errorf("deposit too small: would mint zero shares")
	}

	pool.totalAssets = pool.totalAssets.Add(assets)
	pool.totalShares = pool.totalShares.Add(shares)
	pool.deposited = pool.deposited.Add(assets)
	pool.depositors[receiver] = true
	pool.info.UpdatedAt = types.NowMillis()

	key := req.PoolID + ":" + receiver
	balance, found := ms.balances[key]
	if !found {
		balance = math.ZeroInt()
	}
	ms.balances[key] = balance.Add(shares)

	ms.recordRatio(req.PoolID, pool)

	seq := atomic.AddInt64(&ms.receiptSeq, 1)
	receipt := &types.DepositReceipt{
		ReceiptID:  fmt.Sprintf("dep-%d", seq),
		PoolID:     req.PoolID,
		Depositor:  req.Depositor,
		Receiver:   receiver,
		Assets:     assets.String(),
		Shares:     shares.String(),
		FeeShares:  "0",
		RatioAfter: pool.ratio().String(),
		Timestamp:  types.NowMillis(),
	}
	ms.deposits[receiver] = append(ms.deposits[receiver], receipt)

	return &types.DepositResponse{Receipt: receipt}, nil
}

func (ms *MockService) Withdraw(ctx context.Context, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, err := ms.getPool(req.PoolID)
	if err != nil {
		return nil, err
	}

	owner := req.Owner
	if owner == "" {
		owner = req.Caller
	}
	if owner != req.Caller {
		return nil, fmt.Errorf("allowance spending is not supported in mock mode")
	}

	key := req.PoolID + ":" + owner
	balance, found := ms.balances[key]
	if !found {
		balance = math.ZeroInt()
	}

	var assets, shares math.Int
	if req.Assets == "all" {
		shares = balance
		assets = pool.toAssets(shares)
	} else {
		amount, ok := math.NewIntFromString(req.Assets)
		if !ok || !amount.IsPositive() {
			return nil, fmt.Errorf("invalid assets: %s", req.Assets)
		}
		assets = amount
		shares = pool.toSharesUp(assets)
	}

	if shares.GT(balance) {
		return nil, fmt.Errorf("insufficient shares: have %s, need %s", balance, shares)
	}
	if assets.GT(pool.totalAssets) {
		return nil, fmt.Errorf("insufficient pool assets")
	}

	pool.totalAssets = pool.totalAssets.Sub(assets)
	pool.totalShares = pool.totalShares.Sub(shares)
	pool.withdrawn = pool.withdrawn.Add(assets)
	pool.info.UpdatedAt = types.NowMillis()
	ms.balances[key] = balance.Sub(shares)

	ms.recordRatio(req.PoolID, pool)

	receiver := req.Receiver
	if receiver == "" {
		receiver = owner
	}

	seq := atomic.AddInt64(&ms.receiptSeq, 1)
	receipt := &types.WithdrawalReceipt{
		ReceiptID:  fmt.Sprintf("wd-%d", seq),
		PoolID:     req.PoolID,
		Owner:      owner,
		Receiver:   receiver,
		Assets:     assets.String(),
		Shares:     shares.String(),
		RatioAfter: pool.ratio().String(),
		Timestamp:  types.NowMillis(),
	}
	ms.withdrawals[owner] = append(ms.withdrawals[owner], receipt)

	return &types.WithdrawResponse{Receipt: receipt}, nil
}

func (ms *MockService) GetUserDeposits(ctx context.Context, address string) ([]*types.DepositReceipt, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	receipts := ms.deposits[address]
	out := make([]*types.DepositReceipt, len(receipts))
	copy(out, receipts)
	return out, nil
}

func (ms *MockService) GetUserWithdrawals(ctx context.Context, address string) ([]*types.WithdrawalReceipt, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	receipts := ms.withdrawals[address]
	out := make([]*types.WithdrawalReceipt, len(receipts))
	copy(out, receipts)
	return out, nil
}

// recordRatio appends a ratio observation to the pool's timeline
func (ms *MockService) recordRatio(poolID string, pool *mockPool) {
	tl := ms.history[poolID]
	if tl == nil {
		tl = newRatioTimeline()
		ms.history[poolID] = tl
	}
	tl.Record(&types.RatioPoint{
		Ratio:       pool.ratio().String(),
		TotalAssets: pool.totalAssets.String(),
		TotalShares: pool.totalShares.String(),
		Timestamp:   types.NowMillis(),
	})
}
