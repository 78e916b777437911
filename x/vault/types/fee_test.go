package types

import (
	"testing"

	"cosmossdk.io/math"
)

// TestCrystallizeFeeChargesOnGain tests the closed-form fee share mint
// on a 10% gain at a 20% rate
func TestCrystallizeFeeChargesOnGain(t *testing.T) {
	supply := math.NewInt(1000)
	assets := math.NewInt(1100)
	mark := Precision // 1.0

	c := CrystallizeFee(supply, assets, 2000, mark)

	if !c.Charged() {
		t.Fatal("expected a fee charge on a 10% gain")
	}
	// x = floor(1000 * 2000 * 0.1e18 / (1.1e18*10000 - 2000*0.1e18)) = 18
	if !c.FeeShares.Equal(math.NewInt(18)) {
		t.Errorf("expected 18 fee shares, got %s", c.FeeShares.String())
	}

	// new mark is the post-dilution ratio, not the observed one
	expectedMark := assets.Mul(Precision).Quo(supply.Add(c.FeeShares))
	if !c.NewMark.Equal(expectedMark) {
		t.Errorf("expected new mark %s, got %s", expectedMark.String(), c.NewMark.String())
	}
	if c.NewMark.GTE(c.P1) {
		t.Errorf("post-dilution mark %s should sit below observed ratio %s", c.NewMark.String(), c.P1.String())
	}
	if c.NewMark.LTE(c.P0) {
		t.Errorf("new mark %s should exceed prior mark %s after a charge", c.NewMark.String(), c.P0.String())
	}
}

// TestCrystallizeFeeNoDoubleCharge tests that re-running at the same
// valuation after the mint charges nothing
func TestCrystallizeFeeNoDoubleCharge(t *testing.T) {
	supply := math.NewInt(1000)
	assets := math.NewInt(1100)

	first := CrystallizeFee(supply, assets, 2000, Precision)
	if !first.Charged() {
		t.Fatal("expected first pass to charge")
	}

	dilutedSupply := supply.Add(first.FeeShares)
	second := CrystallizeFee(dilutedSupply, assets, 2000, first.NewMark)
	if second.Charged() {
		t.Errorf("expected no second charge at unchanged valuation, got %s fee shares", second.FeeShares.String())
	}
}

// TestCrystallizeFeeSkipsLossAndFlat tests that losses and flat periods
// charge nothing and leave the mark alone
func TestCrystallizeFeeSkipsLossAndFlat(t *testing.T) {
	testCases := []struct {
		name   string
		assets int64
	}{
		{"loss", 900},
		{"flat", 1000},
	}
	for _, tc := range testCases {
		c := CrystallizeFee(math.NewInt(1000), math.NewInt(tc.assets), 2000, Precision)
		if c.Charged() {
			t.Errorf("%s: expected no charge, got %s fee shares", tc.name, c.FeeShares.String())
		}
		if !c.NewMark.Equal(Precision) {
			t.Errorf("%s: expected mark unchanged, got %s", tc.name, c.NewMark.String())
		}
	}
}

// TestCrystallizeFeeRecoveryBelowMark tests that a loss followed by a
// partial recovery still under the mark charges nothing
func TestCrystallizeFeeRecoveryBelowMark(t *testing.T) {
	// mark set at 1.2 by an earlier charge; pool recovered to 1.1
	mark := Precision.MulRaw(12).QuoRaw(10)
	c := CrystallizeFee(math.NewInt(1000), math.NewInt(1100), 2000, mark)
	if c.Charged() {
		t.Errorf("recovered value below the mark must not be charged, got %s fee shares", c.FeeShares.String())
	}
}

// TestCrystallizeFeeZeroSupplyAndRate tests the degenerate inputs
func TestCrystallizeFeeZeroSupplyAndRate(t *testing.T) {
	if c := CrystallizeFee(math.ZeroInt(), math.NewInt(1000), 2000, Precision); c.Charged() {
		t.Error("zero supply must not charge")
	}
	if c := CrystallizeFee(math.NewInt(1000), math.NewInt(1100), 0, Precision); c.Charged() {
		t.Error("zero rate must not charge")
	}
}

// TestCrystallizeFeeTinyGainFloorsToZero tests that a gain worth less
// than one fee share charges nothing and keeps the mark so the gain
// accumulates
func TestCrystallizeFeeTinyGainFloorsToZero(t *testing.T) {
	// 1 unit of gain on 10000 at 1 bps floors to zero fee shares
	c := CrystallizeFee(math.NewInt(10000), math.NewInt(10001), 1, Precision)
	if c.Charged() {
		t.Errorf("expected floored fee, got %s shares", c.FeeShares.String())
	}
	if !c.NewMark.Equal(Precision) {
		t.Errorf("mark must stay for sub-share gains, got %s", c.NewMark.String())
	}
}

// TestCrystallizeFeeMarkMonotonic tests that repeated gain/charge cycles
// never lower the mark
func TestCrystallizeFeeMarkMonotonic(t *testing.T) {
	supply := math.NewInt(1000)
	mark := Precision
	assets := math.NewInt(1000)

	for i := 0; i < 10; i++ {
		assets = assets.Add(math.NewInt(57)) // arbitrary growth
		c := CrystallizeFee(supply, assets, 1500, mark)
		if c.NewMark.LT(mark) {
			t.Fatalf("cycle %d: mark decreased from %s to %s", i, mark.String(), c.NewMark.String())
		}
		supply = supply.Add(c.FeeShares)
		mark = c.NewMark
	}
}

// TestEntryGainFeeFloors tests bps flooring on entry gains
func TestEntryGainFeeFloors(t *testing.T) {
	testCases := []struct {
		gain     int64
		feeBps   int64
		expected int64
	}{
		{8, 2000, 1}, // 1.6 floors to 1
		{100, 2000, 20},
		{4, 2000, 0}, // 0.8 floors to 0
		{0, 2000, 0},
		{100, 0, 0},
		{-5, 2000, 0},
	}
	for _, tc := range testCases {
		got := EntryGainFee(math.NewInt(tc.gain), tc.feeBps)
		if !got.Equal(math.NewInt(tc.expected)) {
			t.Errorf("EntryGainFee(%d, %d) = %s, want %d", tc.gain, tc.feeBps, got.String(), tc.expected)
		}
	}
}

// TestSettleEntryFirstDeposit tests the 1:1 fallback on an empty pool
func TestSettleEntryFirstDeposit(t *testing.T) {
	s := SettleEntry(math.NewInt(1000), math.ZeroInt(), 2000, math.ZeroInt(), math.ZeroInt())
	if !s.DepositorShares.Equal(math.NewInt(1000)) {
		t.Errorf("expected 1000 depositor shares, got %s", s.DepositorShares.String())
	}
	if !s.FeeShares.IsZero() {
		t.Errorf("expected no fee shares without gain, got %s", s.FeeShares.String())
	}
}

// TestSettleEntryWithGain tests the entry-gain channel: accounted 108
// with 8 of instant gain at 20% skims 1 and credits 107
func TestSettleEntryWithGain(t *testing.T) {
	supply0 := math.NewInt(1000)
	assets0 := math.NewInt(1000) // 1:1 baseline

	s := SettleEntry(math.NewInt(108), math.NewInt(8), 2000, supply0, assets0)
	if !s.FeeOnEntry.Equal(math.NewInt(1)) {
		t.Errorf("expected 1 unit skimmed, got %s", s.FeeOnEntry.String())
	}
	if !s.FeeShares.Equal(math.NewInt(1)) {
		t.Errorf("expected 1 fee share, got %s", s.FeeShares.String())
	}
	if !s.DepositorShares.Equal(math.NewInt(107)) {
		t.Errorf("expected 107 depositor shares, got %s", s.DepositorShares.String())
	}
}

// TestSettleEntryAtPremiumRatio tests conversion at a non-1:1 baseline
func TestSettleEntryAtPremiumRatio(t *testing.T) {
	// 1018 shares over 1100 assets, plain deposit of 1100
	s := SettleEntry(math.NewInt(1100), math.ZeroInt(), 2000, math.NewInt(1018), math.NewInt(1100))
	if !s.DepositorShares.Equal(math.NewInt(1018)) {
		t.Errorf("expected 1018 shares, got %s", s.DepositorShares.String())
	}
}

// TestSettleEntryZeroAssetsGuard tests the supply-without-value guard
func TestSettleEntryZeroAssetsGuard(t *testing.T) {
	s := SettleEntry(math.NewInt(100), math.ZeroInt(), 2000, math.NewInt(1000), math.ZeroInt())
	if !s.DepositorShares.IsZero() {
		t.Errorf("expected zero shares against a worthless supply, got %s", s.DepositorShares.String())
	}
}
