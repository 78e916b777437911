package api

import (
	"context"
	"testing"

	"github.com/openalpha/yieldvault/api/types"
)

func tlPoint(ts int64, ratio string) *types.RatioPoint {
	return &types.RatioPoint{Ratio: ratio, Timestamp: ts}
}

func TestTimelineLatestOrder(t *testing.T) {
	tl := newRatioTimeline()
	tl.Record(tlPoint(100, "1.0"))
	tl.Record(tlPoint(200, "1.1"))
	tl.Record(tlPoint(300, "1.2"))

	got := tl.Latest(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[0].Timestamp != 200 || got[1].Timestamp != 300 {
		t.Errorf("expected oldest-first [200 300], got [%d %d]", got[0].Timestamp, got[1].Timestamp)
	}

	all := tl.Latest(0)
	if len(all) != 3 {
		t.Errorf("limit 0 should return all, got %d", len(all))
	}
}

func TestTimelineBetween(t *testing.T) {
	tl := newRatioTimeline()
	for ts := int64(10); ts <= 50; ts += 10 {
		tl.Record(tlPoint(ts, "1.0"))
	}

	got := tl.Between(20, 40)
	if len(got) != 3 {
		t.Fatalf("expected 3 points in [20,40], got %d", len(got))
	}
	if got[0].Timestamp != 20 || got[2].Timestamp != 40 {
		t.Errorf("range bounds should be inclusive, got [%d..%d]", got[0].Timestamp, got[len(got)-1].Timestamp)
	}

	if pts := tl.Between(60, 70); len(pts) != 0 {
		t.Errorf("expected empty range, got %d points", len(pts))
	}
	if pts := tl.Between(40, 20); pts != nil {
		t.Errorf("inverted range should be nil, got %d points", len(pts))
	}
}

func TestTimelineEqualTimestamps(t *testing.T) {
	tl := newRatioTimeline()
	tl.Record(tlPoint(100, "1.0"))
	tl.Record(tlPoint(100, "1.1"))

	if tl.Len() != 2 {
		t.Fatalf("equal timestamps must not collapse, len=%d", tl.Len())
	}
	got := tl.Between(100, 100)
	if len(got) != 2 {
		t.Fatalf("expected both points at ts=100, got %d", len(got))
	}
	if got[0].Ratio != "1.0" || got[1].Ratio != "1.1" {
		t.Errorf("insertion order lost: [%s %s]", got[0].Ratio, got[1].Ratio)
	}
}

func TestTimelineEviction(t *testing.T) {
	tl := newRatioTimeline()
	for i := 0; i < maxTimelinePoints+5; i++ {
		tl.Record(tlPoint(int64(i), "1.0"))
	}
	if tl.Len() != maxTimelinePoints {
		t.Fatalf("expected cap at %d, got %d", maxTimelinePoints, tl.Len())
	}
	oldest := tl.Latest(0)[0]
	if oldest.Timestamp != 5 {
		t.Errorf("oldest surviving point should be ts=5, got %d", oldest.Timestamp)
	}
}

func TestMockRatioRange(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	before := types.NowMillis() - 1
	if _, err := ms.Deposit(ctx, &types.DepositRequest{
		PoolID:    "pool-1",
		Depositor: "alice",
		Assets:    "1000000",
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	after := types.NowMillis() + 1

	got, err := ms.GetRatioRange(ctx, "pool-1", before, after)
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(got))
	}

	if _, err := ms.GetRatioRange(ctx, "nope", before, after); err == nil {
		t.Error("expected error for unknown pool")
	}
}
