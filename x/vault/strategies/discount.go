package strategies

import (
	"encoding/json"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/huandu/skiplist"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// BillDesk is the black-box surface of a fixed-maturity discount
// instrument venue: principal buys a bill worth its face value at
// maturity, the discount being the instant profit.
type BillDesk interface {
	// FundingAddress is where purchase principal is sent and sale
	// proceeds come from.
	FundingAddress(market string) sdk.AccAddress
	// Quote prices a purchase without executing it.
	Quote(ctx sdk.Context, market string, amountIn math.Int) (face math.Int, maturity int64, err error)
	// Buy spends amountIn and credits a bill position to holder.
	Buy(ctx sdk.Context, market string, holder sdk.AccAddress, amountIn math.Int) (face math.Int, maturity int64, err error)
	// Sell liquidates face units of holder's bill position and returns
	// the principal recovered.
	Sell(ctx sdk.Context, market string, holder sdk.AccAddress, face math.Int) (math.Int, error)
}

// BillRateSource marks unmatured bills to market. It may be unavailable;
// valuation then falls back to face value.
type BillRateSource interface {
	MarkPrice(ctx sdk.Context, market string, face math.Int, maturity int64) (math.Int, error)
}

// DiscountAdapter invests through fixed-maturity discount bills.
// Accounted is the face value acquired, which exceeds the principal
// spent; the difference is reported as an entry gain so the fee engine
// can crystallize it immediately.
//
// The adapter keeps a book of face amounts per maturity so divestments
// liquidate the earliest maturities first. The book is pool-owned state
// reached through Custody, loaded into a maturity-ordered skiplist per
// call, so it commits and reverts together with the action mutating it.
type DiscountAdapter struct {
	id       string
	protocol BillDesk
	rates    BillRateSource // optional
}

var _ Strategy = (*DiscountAdapter)(nil)

// NewDiscountAdapter creates a discount-bill adapter. rates may be nil;
// unmatured bills are then valued at face.
func NewDiscountAdapter(id string, protocol BillDesk, rates BillRateSource) *DiscountAdapter {
	return &DiscountAdapter{id: id, protocol: protocol, rates: rates}
}

// ID implements Strategy.
func (a *DiscountAdapter) ID() string { return a.id }

// billHolding is one book entry in the persisted form.
type billHolding struct {
	Maturity int64    `json:"maturity"`
	Face     math.Int `json:"face"`
}

func billBookKey(market string) []byte {
	return []byte("bills/" + market)
}

func (a *DiscountAdapter) loadBook(ctx sdk.Context, custody Custody, market string) *skiplist.SkipList {
	b := skiplist.New(skiplist.Int64)
	raw := custody.StateGet(ctx, billBookKey(market))
	if len(raw) == 0 {
		return b
	}
	var holdings []billHolding
	if err := json.Unmarshal(raw, &holdings); err != nil {
		return b
	}
	for _, h := range holdings {
		b.Set(h.Maturity, h.Face)
	}
	return b
}

func (a *DiscountAdapter) saveBook(ctx sdk.Context, custody Custody, market string, b *skiplist.SkipList) {
	holdings := make([]billHolding, 0, b.Len())
	for el := b.Front(); el != nil; el = el.Next() {
		holdings = append(holdings, billHolding{Maturity: el.Key().(int64), Face: el.Value.(math.Int)})
	}
	raw, err := json.Marshal(holdings)
	if err != nil {
		return
	}
	custody.StateSet(ctx, billBookKey(market), raw)
}

func addHolding(b *skiplist.SkipList, maturity int64, face math.Int) {
	if el := b.Get(maturity); el != nil {
		b.Set(maturity, el.Value.(math.Int).Add(face))
		return
	}
	b.Set(maturity, face)
}

// Invest buys bills with amountIn. EntryGain is the captured discount.
func (a *DiscountAdapter) Invest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int, _ []byte) (InvestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no bill market for asset %s", custody.Asset())
	}
	if err := custody.Send(ctx, a.protocol.FundingAddress(market), amountIn); err != nil {
		return InvestResult{}, err
	}
	face, maturity, err := a.protocol.Buy(ctx, market, custody.PoolAccount(), amountIn)
	if err != nil {
		return InvestResult{}, err
	}
	b := a.loadBook(ctx, custody, market)
	addHolding(b, maturity, face)
	a.saveBook(ctx, custody, market, b)

	gain := math.ZeroInt()
	if face.GT(amountIn) {
		gain = face.Sub(amountIn)
	}
	return InvestResult{Accounted: face, EntryGain: gain}, nil
}

// Divest sells bills earliest-maturity first until amountOut of
// principal is recovered or the book is empty.
func (a *DiscountAdapter) Divest(ctx sdk.Context, custody Custody, cfg Config, amountOut math.Int, _ []byte) (DivestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return DivestResult{}, types.ErrStrategyFailed.Wrapf("no bill market for asset %s", custody.Asset())
	}
	b := a.loadBook(ctx, custody, market)

	recovered := math.ZeroInt()
	for recovered.LT(amountOut) {
		el := b.Front()
		if el == nil {
			break
		}
		maturity := el.Key().(int64)
		face := el.Value.(math.Int)

		need := amountOut.Sub(recovered)
		sell := face
		if sell.GT(need) {
			sell = need
		}

		got, err := a.protocol.Sell(ctx, market, custody.PoolAccount(), sell)
		if err != nil {
			return DivestResult{}, err
		}
		recovered = recovered.Add(got)

		remaining := face.Sub(sell)
		if remaining.IsPositive() {
			b.Set(maturity, remaining)
		} else {
			b.Remove(maturity)
		}
	}

	if err := custody.Receive(ctx, a.protocol.FundingAddress(market), recovered); err != nil {
		return DivestResult{}, err
	}
	a.saveBook(ctx, custody, market, b)
	return DivestResult{Recovered: recovered, ExitGain: math.ZeroInt()}, nil
}

// Valuation prices the book: face value at or past maturity, otherwise
// the rate source's mark with a fallback to face when it is unavailable.
func (a *DiscountAdapter) Valuation(ctx sdk.Context, custody Custody, cfg Config) (math.Int, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return math.ZeroInt(), nil
	}
	b := a.loadBook(ctx, custody, market)
	now := ctx.BlockTime().Unix()

	total := math.ZeroInt()
	for el := b.Front(); el != nil; el = el.Next() {
		maturity := el.Key().(int64)
		face := el.Value.(math.Int)

		if now >= maturity || a.rates == nil {
			total = total.Add(face)
			continue
		}
		mark, err := a.rates.MarkPrice(ctx, market, face, maturity)
		if err != nil {
			total = total.Add(face)
			continue
		}
		total = total.Add(mark)
	}
	return total, nil
}

// PreviewInvest quotes the purchase without executing it.
func (a *DiscountAdapter) PreviewInvest(ctx sdk.Context, custody Custody, cfg Config, amountIn math.Int) (InvestResult, error) {
	market, ok := cfg.MarketOf(custody.Asset())
	if !ok {
		return InvestResult{}, types.ErrStrategyFailed.Wrapf("no bill market for asset %s", custody.Asset())
	}
	face, _, err := a.protocol.Quote(ctx, market, amountIn)
	if err != nil {
		return InvestResult{}, err
	}
	gain := math.ZeroInt()
	if face.GT(amountIn) {
		gain = face.Sub(amountIn)
	}
	return InvestResult{Accounted: face, EntryGain: gain}, nil
}
