package api

import (
	"context"
	"testing"

	"github.com/openalpha/yieldvault/api/types"
)

func TestMockDepositMintsShares(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	resp, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "1000000",
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if resp.Receipt.Shares != "1000000" {
		t.Fatalf("first deposit should mint 1:1, got %s shares", resp.Receipt.Shares)
	}

	balance, err := ms.GetShareBalance(ctx, "pool-1", "alice")
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Shares != "1000000" {
		t.Fatalf("expected 1000000 shares, got %s", balance.Shares)
	}

	pool, err := ms.GetPool(ctx, "pool-1")
	if err != nil {
		t.Fatalf("pool query failed: %v", err)
	}
	if pool.TotalAssets != "1000000" || pool.TotalShares != "1000000" {
		t.Fatalf("pool totals wrong: assets=%s shares=%s", pool.TotalAssets, pool.TotalShares)
	}
}

func TestMockDepositToReceiver(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	_, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Receiver:  "bob",
		Assets:    "500",
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	bob, _ := ms.GetShareBalance(ctx, "pool-1", "bob")
	if bob.Shares != "500" {
		t.Fatalf("receiver should hold the shares, got %s", bob.Shares)
	}
	alice, _ := ms.GetShareBalance(ctx, "pool-1", "alice")
	if alice.Shares != "0" {
		t.Fatalf("depositor should hold no shares, got %s", alice.Shares)
	}
}

func TestMockWithdrawAll(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "2500",
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	resp, err := ms.Withdraw(ctx, &types.WithdrawRequest{
		PoolID: "pool-1",
		Caller: "alice",
		Assets: "all",
	})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if resp.Receipt.Assets != "2500" {
		t.Fatalf("expected full 2500 back, got %s", resp.Receipt.Assets)
	}

	balance, _ := ms.GetShareBalance(ctx, "pool-1", "alice")
	if balance.Shares != "0" {
		t.Fatalf("expected zero shares after full withdrawal, got %s", balance.Shares)
	}
}

func TestMockWithdrawInsufficientShares(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "100",
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	_, err := ms.Withdraw(ctx, &types.WithdrawRequest{
		PoolID: "pool-1",
		Caller: "alice",
		Assets: "500",
	})
	if err == nil {
		t.Fatal("expected insufficient shares error")
	}
}

func TestMockPreviewMatchesDeposit(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "3000",
	}); err != nil {
		t.Fatalf("seed deposit failed: %v", err)
	}

	preview, err := ms.Preview(ctx, "deposit", &types.PreviewRequest{PoolID: "pool-1", Amount: "900"})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	resp, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "bob",
		Assets:    "900",
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if resp.Receipt.Shares != preview.Out {
		t.Fatalf("preview promised %s shares, deposit minted %s", preview.Out, resp.Receipt.Shares)
	}
}

func TestMockReceiptsRecorded(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "1000",
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := ms.Withdraw(ctx, &types.WithdrawRequest{
		PoolID: "pool-1",
		Caller: "alice",
		Assets: "400",
	}); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	deposits, _ := ms.GetUserDeposits(ctx, "alice")
	if len(deposits) != 1 {
		t.Fatalf("expected 1 deposit receipt, got %d", len(deposits))
	}
	withdrawals, _ := ms.GetUserWithdrawals(ctx, "alice")
	if len(withdrawals) != 1 {
		t.Fatalf("expected 1 withdrawal receipt, got %d", len(withdrawals))
	}

	stats, _ := ms.GetPoolStats(ctx, "pool-1")
	if stats.TotalDeposited != "1000" || stats.TotalWithdrawn != "400" {
		t.Fatalf("stats wrong: deposited=%s withdrawn=%s", stats.TotalDeposited, stats.TotalWithdrawn)
	}

	history, _ := ms.GetRatioHistory(ctx, "pool-1", 10)
	if len(history) != 2 {
		t.Fatalf("expected 2 ratio observations, got %d", len(history))
	}
}

func TestMockUnknownPool(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	if _, err := ms.GetPool(ctx, "nope"); err == nil {
		t.Fatal("expected error for unknown pool")
	}
	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "nope",
		Depositor: "alice",
		Assets:    "1",
	}); err == nil {
		t.Fatal("expected error for unknown pool")
	}
}
