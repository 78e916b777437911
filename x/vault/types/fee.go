package types

import (
	"cosmossdk.io/math"
)

// Crystallization is the outcome of running the high-water-mark fee
// algorithm against a pool valuation.
type Crystallization struct {
	P0        math.Int // prior high-water mark (Precision scaled)
	P1        math.Int // observed ratio before fee dilution
	DeltaP    math.Int // P1 - P0
	FeeShares math.Int // shares to mint to the fee collector
	NewMark   math.Int // high-water mark after dilution
}

// Charged reports whether any fee shares are due.
func (c Crystallization) Charged() bool {
	return !c.FeeShares.IsZero()
}

// CrystallizeFee runs the ΔAPS performance-fee algorithm: given supply,
// total assets, a fee rate in basis points and the prior high-water mark,
// it returns the fee shares to mint and the refreshed mark.
//
// Fee shares x solve x * P1' = feeRate * ΔP * S, where P1' is the ratio
// after x dilutes the supply; closed form:
//
//	x = floor( S * f * ΔP / (P1 * BpsDivisor - f * ΔP) )
//
// so the fee is assessed on the pre-mint supply but the collector's
// claim is measured after its own dilution. The new mark is the post-mint
// ratio A * Precision / (S + x), not P1.
//
// No fee is charged when supply or rate is zero, when the observed ratio
// does not exceed the mark (loss or flat period), or when the closed-form
// denominator degenerates to zero or below.
func CrystallizeFee(supply, assets math.Int, feeBps int64, mark math.Int) Crystallization {
	none := Crystallization{P0: mark, P1: mark, DeltaP: math.ZeroInt(), FeeShares: math.ZeroInt(), NewMark: mark}
	if supply.IsZero() || feeBps == 0 {
		return none
	}

	p1 := assets.Mul(Precision).Quo(supply)
	if p1.LTE(mark) {
		none.P1 = p1
		return none
	}

	deltaP := p1.Sub(mark)
	fee := math.NewInt(feeBps)
	den := p1.MulRaw(BpsDivisor).Sub(fee.Mul(deltaP))
	if !den.IsPositive() {
		// Degenerate only at extreme rates/ratios; benign, skip the fee.
		none.P1 = p1
		return none
	}

	feeShares := supply.Mul(fee).Mul(deltaP).Quo(den)
	if feeShares.IsZero() {
		none.P1 = p1
		return none
	}

	newMark := assets.Mul(Precision).Quo(supply.Add(feeShares))
	return Crystallization{
		P0:        mark,
		P1:        p1,
		DeltaP:    deltaP,
		FeeShares: feeShares,
		NewMark:   newMark,
	}
}

// EntryGainFee computes the performance fee taken out of a profit the
// adapter reports as realized at the instant of investment. Floored.
func EntryGainFee(gain math.Int, feeBps int64) math.Int {
	if !gain.IsPositive() || feeBps == 0 {
		return math.ZeroInt()
	}
	return gain.MulRaw(feeBps).QuoRaw(BpsDivisor)
}

// EntrySettlement is the share issuance resulting from one adapter
// investment, computed against the post-crystallization baseline.
type EntrySettlement struct {
	FeeOnEntry      math.Int // principal units skimmed from the entry gain
	FeeShares       math.Int // fee collector's shares for FeeOnEntry
	DepositorShares math.Int // receiver's shares for the net accounted value
}

// SettleEntry converts an adapter accounting tuple into shares at the
// baseline (supply0, assets0) snapshotted after pre-action
// crystallization and before the investment. On the pool's first-ever
// deposit the baseline is empty and both conversions are 1:1.
func SettleEntry(accounted, entryGain math.Int, feeBps int64, supply0, assets0 math.Int) EntrySettlement {
	feeOnEntry := EntryGainFee(entryGain, feeBps)
	net := accounted.Sub(feeOnEntry)

	if supply0.IsZero() {
		return EntrySettlement{FeeOnEntry: feeOnEntry, FeeShares: feeOnEntry, DepositorShares: net}
	}
	if assets0.IsZero() {
		// Supply without value: nothing sensible to convert against.
		return EntrySettlement{FeeOnEntry: feeOnEntry, FeeShares: math.ZeroInt(), DepositorShares: math.ZeroInt()}
	}
	return EntrySettlement{
		FeeOnEntry:      feeOnEntry,
		FeeShares:       feeOnEntry.Mul(supply0).Quo(assets0),
		DepositorShares: net.Mul(supply0).Quo(assets0),
	}
}
