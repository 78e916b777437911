package types

import (
	"strings"
	"testing"

	"cosmossdk.io/math"
)

// TestNewPoolDefaults tests pool creation with default values
func TestNewPoolDefaults(t *testing.T) {
	pool := NewPool("vault-usdc", "uusdc", "lend/uusdc", "USDC Vault", "vUSDC",
		"cosmos1admin", "cosmos1collector", "lend", 1000)

	if pool.PoolID != "vault-usdc" {
		t.Errorf("expected pool ID vault-usdc, got %s", pool.PoolID)
	}
	if pool.Status != PoolStatusActive {
		t.Errorf("expected active status, got %s", pool.Status)
	}
	if !pool.HighWaterMark.Equal(Precision) {
		t.Errorf("expected high water mark 1.0, got %s", pool.HighWaterMark.String())
	}
	if !pool.TotalShares.IsZero() {
		t.Errorf("expected zero supply, got %s", pool.TotalShares.String())
	}
	if !pool.IdleBalance.IsZero() {
		t.Errorf("expected zero idle balance, got %s", pool.IdleBalance.String())
	}
	if !pool.IsActive() {
		t.Error("expected new pool to be active")
	}
}

// TestRatio tests the assets-per-share ratio
func TestRatio(t *testing.T) {
	pool := &Pool{TotalShares: math.NewInt(1000)}

	ratio := pool.Ratio(math.NewInt(1100))
	expected := Precision.MulRaw(11).QuoRaw(10)
	if !ratio.Equal(expected) {
		t.Errorf("expected ratio %s, got %s", expected.String(), ratio.String())
	}

	// empty pool reports 1.0
	empty := &Pool{TotalShares: math.ZeroInt()}
	if !empty.Ratio(math.ZeroInt()).Equal(Precision) {
		t.Errorf("expected empty pool ratio 1.0, got %s", empty.Ratio(math.ZeroInt()).String())
	}
}

// TestConversionRounding tests the rounding direction of each converter
func TestConversionRounding(t *testing.T) {
	pool := &Pool{TotalShares: math.NewInt(1000)}
	total := math.NewInt(1100)

	// deposit direction floors: 107 assets -> floor(107*1000/1100) = 97
	if got := pool.ConvertToShares(math.NewInt(107), total); !got.Equal(math.NewInt(97)) {
		t.Errorf("ConvertToShares = %s, want 97", got.String())
	}
	// withdraw direction ceils: covering 107 assets needs 98 shares
	if got := pool.ConvertToSharesUp(math.NewInt(107), total); !got.Equal(math.NewInt(98)) {
		t.Errorf("ConvertToSharesUp = %s, want 98", got.String())
	}
	// redeem direction floors: 97 shares -> floor(97*1100/1000) = 106
	if got := pool.ConvertToAssets(math.NewInt(97), total); !got.Equal(math.NewInt(106)) {
		t.Errorf("ConvertToAssets = %s, want 106", got.String())
	}
	// mint direction ceils: 97 shares cost ceil(97*1100/1000) = 107
	if got := pool.ConvertToAssetsUp(math.NewInt(97), total); !got.Equal(math.NewInt(107)) {
		t.Errorf("ConvertToAssetsUp = %s, want 107", got.String())
	}

	// exact divisions agree in both directions
	if got := pool.ConvertToSharesUp(math.NewInt(110), total); !got.Equal(math.NewInt(100)) {
		t.Errorf("exact ConvertToSharesUp = %s, want 100", got.String())
	}
}

// TestConversionEmptyPool tests the 1:1 empty-pool fallback
func TestConversionEmptyPool(t *testing.T) {
	pool := &Pool{TotalShares: math.ZeroInt()}
	if got := pool.ConvertToShares(math.NewInt(500), math.ZeroInt()); !got.Equal(math.NewInt(500)) {
		t.Errorf("empty pool ConvertToShares = %s, want 500", got.String())
	}
	if got := pool.ConvertToAssetsUp(math.NewInt(500), math.ZeroInt()); !got.Equal(math.NewInt(500)) {
		t.Errorf("empty pool ConvertToAssetsUp = %s, want 500", got.String())
	}
}

// TestRefreshHighWaterMark tests that the mark only ratchets upward
func TestRefreshHighWaterMark(t *testing.T) {
	pool := &Pool{HighWaterMark: Precision}

	higher := Precision.MulRaw(12).QuoRaw(10)
	pool.RefreshHighWaterMark(higher)
	if !pool.HighWaterMark.Equal(higher) {
		t.Errorf("expected mark raised to %s, got %s", higher.String(), pool.HighWaterMark.String())
	}

	pool.RefreshHighWaterMark(Precision)
	if !pool.HighWaterMark.Equal(higher) {
		t.Errorf("mark must never decrease, got %s", pool.HighWaterMark.String())
	}
}

// TestParseAmount tests the wire form of request quantities
func TestParseAmount(t *testing.T) {
	all, err := ParseAmount("all")
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if !all.All {
		t.Error("expected All variant")
	}
	if all.String() != "all" {
		t.Errorf("round trip = %s, want all", all.String())
	}

	exact, err := ParseAmount("12345")
	if err != nil {
		t.Fatalf("parse exact: %v", err)
	}
	if exact.All || !exact.Value.Equal(math.NewInt(12345)) {
		t.Errorf("expected exact 12345, got %s", exact.String())
	}

	if _, err := ParseAmount("12x45"); err == nil {
		t.Error("expected error for malformed amount")
	}
	if _, err := ParseAmount(""); err == nil {
		t.Error("expected error for empty amount")
	}
}

// TestAmountIsZero tests the zero check against both variants
func TestAmountIsZero(t *testing.T) {
	if AmountAll().IsZero() {
		t.Error("all is never zero")
	}
	if !AmountExact(math.ZeroInt()).IsZero() {
		t.Error("exact zero must report zero")
	}
	if AmountExact(math.NewInt(1)).IsZero() {
		t.Error("exact one must not report zero")
	}
}

// TestReceiptIdentifiers tests receipt ID prefixes and uniqueness
func TestReceiptIdentifiers(t *testing.T) {
	d1 := NewDepositReceipt("vault-usdc", "cosmos1a", "cosmos1b",
		math.NewInt(100), math.NewInt(100), math.ZeroInt(), Precision, 1)
	d2 := NewDepositReceipt("vault-usdc", "cosmos1a", "cosmos1b",
		math.NewInt(100), math.NewInt(100), math.ZeroInt(), Precision, 1)

	if !strings.HasPrefix(d1.ReceiptID, "dep-") {
		t.Errorf("expected dep- prefix, got %s", d1.ReceiptID)
	}
	if d1.ReceiptID == d2.ReceiptID {
		t.Error("receipt IDs must be unique")
	}

	w := NewWithdrawalReceipt("vault-usdc", "cosmos1a", "cosmos1b",
		math.NewInt(100), math.NewInt(100), Precision, 1)
	if !strings.HasPrefix(w.ReceiptID, "wth-") {
		t.Errorf("expected wth- prefix, got %s", w.ReceiptID)
	}
}
