package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/yieldvault/x/vault/strategies"
	"github.com/openalpha/yieldvault/x/vault/types"
)

// Store key prefixes
var (
	PoolKeyPrefix              = []byte{0x01}
	ShareBalanceKeyPrefix      = []byte{0x02}
	ShareAllowanceKeyPrefix    = []byte{0x03}
	DepositReceiptKeyPrefix    = []byte{0x04}
	WithdrawalReceiptKeyPrefix = []byte{0x05}
	PoolStatsKeyPrefix         = []byte{0x06}
	RatioHistoryKeyPrefix      = []byte{0x07}
	UserDepositsKeyPrefix      = []byte{0x08}
	UserWithdrawalsKeyPrefix   = []byte{0x09}
	PoolByMarketKeyPrefix      = []byte{0x0A}
	AdapterStateKeyPrefix      = []byte{0x0B}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// AccountKeeper defines the expected interface for the auth module
type AccountKeeper interface {
	GetModuleAddress(name string) sdk.AccAddress
}

// Keeper manages the vault module state
type Keeper struct {
	cdc           codec.BinaryCodec
	storeKey      storetypes.StoreKey
	bankKeeper    BankKeeper
	accountKeeper AccountKeeper
	logger        log.Logger
	authority     string

	// registered strategy adapters by ID
	strategyRegistry map[string]strategies.Strategy

	// set while a state-changing pool action is in flight; adapters
	// calling back into the keeper fail with ErrReentrantCall
	inAction bool
}

// NewKeeper creates a new vault keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	accountKeeper AccountKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:              cdc,
		storeKey:         storeKey,
		bankKeeper:       bankKeeper,
		accountKeeper:    accountKeeper,
		authority:        authority,
		logger:           logger.With("module", "x/vault"),
		strategyRegistry: make(map[string]strategies.Strategy),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// RegisterStrategy makes a strategy adapter available to pools.
// Registration happens at wiring time, before the chain starts.
func (k *Keeper) RegisterStrategy(s strategies.Strategy) {
	k.strategyRegistry[s.ID()] = s
}

// GetStrategy returns the registered adapter with the given ID.
func (k *Keeper) GetStrategy(id string) (strategies.Strategy, bool) {
	s, ok := k.strategyRegistry[id]
	return s, ok
}

// ============ Pool Operations ============

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(pool.PoolID)...)
	bz, _ := json.Marshal(pool)
	store.Set(key, bz)
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(poolID)...)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// GetAllPools returns all pools
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// GetPoolByMarket returns the pool bound to a market, if any.
func (k *Keeper) GetPoolByMarket(ctx sdk.Context, market string) *types.Pool {
	store := k.GetStore(ctx)
	key := append(PoolByMarketKeyPrefix, []byte(market)...)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	return k.GetPool(ctx, string(bz))
}

func (k *Keeper) setPoolMarketIndex(ctx sdk.Context, market, poolID string) {
	store := k.GetStore(ctx)
	key := append(PoolByMarketKeyPrefix, []byte(market)...)
	store.Set(key, []byte(poolID))
}

// ============ Receipt Operations ============

// SetDepositReceipt saves a deposit receipt
func (k *Keeper) SetDepositReceipt(ctx sdk.Context, receipt *types.DepositReceipt) {
	store := k.GetStore(ctx)
	key := append(DepositReceiptKeyPrefix, []byte(receipt.ReceiptID)...)
	bz, _ := json.Marshal(receipt)
	store.Set(key, bz)

	userKey := append(UserDepositsKeyPrefix, []byte(receipt.Depositor+"/"+receipt.ReceiptID)...)
	store.Set(userKey, []byte(receipt.ReceiptID))
}

// GetDepositReceipt retrieves a deposit receipt
func (k *Keeper) GetDepositReceipt(ctx sdk.Context, receiptID string) *types.DepositReceipt {
	store := k.GetStore(ctx)
	bz := store.Get(append(DepositReceiptKeyPrefix, []byte(receiptID)...))
	if bz == nil {
		return nil
	}
	var receipt types.DepositReceipt
	if err := json.Unmarshal(bz, &receipt); err != nil {
		return nil
	}
	return &receipt
}

// GetUserDepositReceipts returns all deposit receipts for a user
func (k *Keeper) GetUserDepositReceipts(ctx sdk.Context, depositor string) []*types.DepositReceipt {
	store := k.GetStore(ctx)
	prefix := append(UserDepositsKeyPrefix, []byte(depositor+"/")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var receipts []*types.DepositReceipt
	for ; iterator.Valid(); iterator.Next() {
		if r := k.GetDepositReceipt(ctx, string(iterator.Value())); r != nil {
			receipts = append(receipts, r)
		}
	}
	return receipts
}

// SetWithdrawalReceipt saves a withdrawal receipt
func (k *Keeper) SetWithdrawalReceipt(ctx sdk.Context, receipt *types.WithdrawalReceipt) {
	store := k.GetStore(ctx)
	key := append(WithdrawalReceiptKeyPrefix, []byte(receipt.ReceiptID)...)
	bz, _ := json.Marshal(receipt)
	store.Set(key, bz)

	userKey := append(UserWithdrawalsKeyPrefix, []byte(receipt.Owner+"/"+receipt.ReceiptID)...)
	store.Set(userKey, []byte(receipt.ReceiptID))
}

// GetWithdrawalReceipt retrieves a withdrawal receipt
func (k *Keeper) GetWithdrawalReceipt(ctx sdk.Context, receiptID string) *types.WithdrawalReceipt {
	store := k.GetStore(ctx)
	bz := store.Get(append(WithdrawalReceiptKeyPrefix, []byte(receiptID)...))
	if bz == nil {
		return nil
	}
	var receipt types.WithdrawalReceipt
	if err := json.Unmarshal(bz, &receipt); err != nil {
		return nil
	}
	return &receipt
}

// GetUserWithdrawalReceipts returns all withdrawal receipts for a user
func (k *Keeper) GetUserWithdrawalReceipts(ctx sdk.Context, owner string) []*types.WithdrawalReceipt {
	store := k.GetStore(ctx)
	prefix := append(UserWithdrawalsKeyPrefix, []byte(owner+"/")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var receipts []*types.WithdrawalReceipt
	for ; iterator.Valid(); iterator.Next() {
		if r := k.GetWithdrawalReceipt(ctx, string(iterator.Value())); r != nil {
			receipts = append(receipts, r)
		}
	}
	return receipts
}

// ============ Stats Operations ============

// SetPoolStats saves pool statistics
func (k *Keeper) SetPoolStats(ctx sdk.Context, stats *types.PoolStats) {
	store := k.GetStore(ctx)
	key := append(PoolStatsKeyPrefix, []byte(stats.PoolID)...)
	bz, _ := json.Marshal(stats)
	store.Set(key, bz)
}

// GetPoolStats retrieves pool statistics
func (k *Keeper) GetPoolStats(ctx sdk.Context, poolID string) *types.PoolStats {
	store := k.GetStore(ctx)
	bz := store.Get(append(PoolStatsKeyPrefix, []byte(poolID)...))
	if bz == nil {
		return nil
	}
	var stats types.PoolStats
	if err := json.Unmarshal(bz, &stats); err != nil {
		return nil
	}
	return &stats
}

// ============ Ratio History ============

// AppendRatioObservation records a share-price observation at a height
func (k *Keeper) AppendRatioObservation(ctx sdk.Context, obs *types.RatioObservation) {
	store := k.GetStore(ctx)
	heightBz := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBz, uint64(obs.BlockHeight))
	key := append(append(RatioHistoryKeyPrefix, []byte(obs.PoolID+"/")...), heightBz...)
	bz, _ := json.Marshal(obs)
	store.Set(key, bz)
}

// GetRatioHistory returns up to limit observations for a pool, oldest first
func (k *Keeper) GetRatioHistory(ctx sdk.Context, poolID string, limit int) []*types.RatioObservation {
	store := k.GetStore(ctx)
	prefix := append(RatioHistoryKeyPrefix, []byte(poolID+"/")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var out []*types.RatioObservation
	for ; iterator.Valid(); iterator.Next() {
		var obs types.RatioObservation
		if err := json.Unmarshal(iterator.Value(), &obs); err != nil {
			continue
		}
		out = append(out, &obs)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
