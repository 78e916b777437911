// Package strategies defines the accounting contract every yield-source
// adapter implements, plus the concrete adapters shipped with the chain.
//
// Adapters are stateless with respect to pool funds: every transfer they
// initiate goes through the Custody capability handed to them per call,
// so external-protocol positions always belong to the pool's own
// account. Pool-owned adapter configuration (which external market backs
// which asset) is read through the Config accessor rather than any
// out-of-band state, and durable adapter bookkeeping goes through
// Custody's state accessors rather than adapter memory, so it commits
// and reverts with the ledger.
package strategies

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// InvestResult is the accounting tuple an adapter reports for an
// investment. Accounted is the redeemable value the pool books, normally
// equal to the amount invested; discount instruments book their face
// value instead. EntryGain = max(Accounted - amountIn, 0).
type InvestResult struct {
	Accounted math.Int
	EntryGain math.Int
}

// DivestResult is the accounting tuple for a divestment. Recovered is
// what actually came back into pool custody; ExitGain is any profit
// realized instantly on exit (zero for most adapters).
type DivestResult struct {
	Recovered math.Int
	ExitGain  math.Int
}

// Custody is the pool's asset-custody capability. Adapters move funds
// exclusively through it, which attributes every external-protocol
// transfer to the pool's account rather than the adapter's.
type Custody interface {
	// Asset returns the denom the pool accounts in.
	Asset() string
	// PoolAccount returns the address owning the external positions.
	PoolAccount() sdk.AccAddress
	// Send moves principal out of pool custody.
	Send(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error
	// Receive moves principal into pool custody.
	Receive(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error
	// StateGet reads pool-owned adapter state recorded under key, or nil.
	StateGet(ctx sdk.Context, key []byte) []byte
	// StateSet writes pool-owned adapter state under key. The state
	// lives in the pool's own ledger store, so it commits and reverts
	// together with the action that wrote it.
	StateSet(ctx sdk.Context, key, value []byte)
}

// Config is the read-only view of pool-owned adapter configuration.
type Config interface {
	// MarketOf resolves an asset denom to the external market identifier
	// the active adapter should use.
	MarketOf(asset string) (string, bool)
}

// Strategy is the four-capability adapter contract. Invest and Divest
// mutate external positions through Custody; Valuation and PreviewInvest
// are read-only.
type Strategy interface {
	// ID names the adapter in the keeper's registry.
	ID() string

	// Invest places amountIn of the custody asset into the external
	// protocol and reports the accounting tuple.
	Invest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int, auxData []byte) (InvestResult, error)

	// Divest recovers up to amountOut of principal from the external
	// protocol into pool custody.
	Divest(ctx sdk.Context, custody Custody, cfg Config, amountOut math.Int, auxData []byte) (DivestResult, error)

	// Valuation estimates the pool's external position in principal
	// units, using the protocol's own exchange-rate mechanism.
	Valuation(ctx sdk.Context, custody Custody, cfg Config) (math.Int, error)

	// PreviewInvest simulates Invest without executing it. Previews stay
	// consistent with execution because both paths share the protocol's
	// quoting mechanism.
	PreviewInvest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int) (InvestResult, error)
}
