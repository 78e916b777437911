package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// VaultClient provides direct gRPC access to a yieldvault node.
// Batch depositors and fee collectors use it to submit signed
// transactions without CLI overhead.
type VaultClient struct {
	conn         *grpc.ClientConn
	txClient     txtypes.ServiceClient
	authClient   authtypes.QueryClient
	cdc          codec.Codec
	chainID      string
	keyring      keyring.Keyring
	accountCache sync.Map
	mu           sync.RWMutex
}

// NewVaultClient dials a node's gRPC endpoint
func NewVaultClient(grpcAddr, chainID string, cdc codec.Codec, kr keyring.Keyring) (*VaultClient, error) {
	conn, err := grpc.Dial(
		grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(1024*1024*10)), // 10MB
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gRPC: %w", err)
	}

	return &VaultClient{
		conn:       conn,
		txClient:   txtypes.NewServiceClient(conn),
		authClient: authtypes.NewQueryClient(conn),
		cdc:        cdc,
		chainID:    chainID,
		keyring:    kr,
	}, nil
}

// AccountInfo caches account sequence for faster tx building
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	LastUpdated   time.Time
}

// BroadcastTx broadcasts a signed transaction
func (c *VaultClient) BroadcastTx(ctx context.Context, txBytes []byte, mode txtypes.BroadcastMode) (*sdk.TxResponse, error) {
	res, err := c.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	return res.TxResponse, nil
}

// BroadcastTxSync broadcasts and waits for CheckTx result
func (c *VaultClient) BroadcastTxSync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_SYNC)
}

// BroadcastTxAsync broadcasts without waiting for CheckTx
func (c *VaultClient) BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_ASYNC)
}

// GetAccountInfo fetches or returns cached account info. The cache keeps
// sequence numbers warm so a depositor can submit several transactions
// per block without re-querying the node.
func (c *VaultClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		if time.Since(info.LastUpdated) < 100*time.Millisecond {
			return info, nil
		}
	}

	res, err := c.authClient.Account(ctx, &authtypes.QueryAccountRequest{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var acc authtypes.AccountI
	if err := c.cdc.UnpackAny(res.Account, &acc); err != nil {
		return nil, fmt.Errorf("failed to unpack account: %w", err)
	}

	info := &AccountInfo{
		Address:       address,
		AccountNumber: acc.GetAccountNumber(),
		Sequence:      acc.GetSequence(),
		LastUpdated:   time.Now(),
	}

	c.accountCache.Store(address, info)
	return info, nil
}

// IncrementSequence atomically increments the cached sequence
func (c *VaultClient) IncrementSequence(address string) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		c.mu.Lock()
		info.Sequence++
		c.mu.Unlock()
	}
}

// SeedAccountInfo primes the cache, used when the caller already knows
// the account state (for example right after a successful broadcast)
func (c *VaultClient) SeedAccountInfo(info *AccountInfo) {
	info.LastUpdated = time.Now()
	c.accountCache.Store(info.Address, info)
}

// BatchBroadcast sends multiple transactions in parallel. Useful for
// settling a queue of deposits in one block.
func (c *VaultClient) BatchBroadcast(ctx context.Context, txBytesSlice [][]byte) ([]*sdk.TxResponse, error) {
	results := make([]*sdk.TxResponse, len(txBytesSlice))
	errors := make([]error, len(txBytesSlice))
	var wg sync.WaitGroup

	for i, txBytes := range txBytesSlice {
		wg.Add(1)
		go func(idx int, tb []byte) {
			defer wg.Done()
			res, err := c.BroadcastTxAsync(ctx, tb)
			results[idx] = res
			errors[idx] = err
		}(i, txBytes)
	}

	wg.Wait()

	for _, err := range errors {
		if err != nil {
			return results, fmt.Errorf("batch broadcast had errors: %w", err)
		}
	}

	return results, nil
}

// Close closes the gRPC connection
func (c *VaultClient) Close() error {
	return c.conn.Close()
}
