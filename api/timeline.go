package api

import (
	"math"

	"github.com/google/btree"

	"github.com/openalpha/yieldvault/api/types"
)

// maxTimelinePoints bounds per-pool memory for the in-memory ratio timeline.
const maxTimelinePoints = 1000

type timelineItem struct {
	point *types.RatioPoint
	seq   uint64 // insertion order, tiebreak for equal timestamps
}

func timelineLess(a, b timelineItem) bool {
	if a.point.Timestamp != b.point.Timestamp {
		return a.point.Timestamp < b.point.Timestamp
	}
	return a.seq < b.seq
}

// ratioTimeline keeps ratio observations ordered by timestamp so the
// history endpoint can answer both latest-N and time-range queries.
// Callers are expected to hold their own lock; the timeline itself is
// not synchronized.
type ratioTimeline struct {
	tree *btree.BTreeG[timelineItem]
	seq  uint64
}

func newRatioTimeline() *ratioTimeline {
	return &ratioTimeline{tree: btree.NewG(8, timelineLess)}
}

// Record appends one observation, evicting the oldest past the cap.
func (tl *ratioTimeline) Record(p *types.RatioPoint) {
	tl.seq++
	tl.tree.ReplaceOrInsert(timelineItem{point: p, seq: tl.seq})
	for tl.tree.Len() > maxTimelinePoints {
		tl.tree.DeleteMin()
	}
}

// Latest returns up to n most recent observations, oldest first.
// n <= 0 returns everything.
func (tl *ratioTimeline) Latest(n int) []*types.RatioPoint {
	if n <= 0 || n > tl.tree.Len() {
		n = tl.tree.Len()
	}
	out := make([]*types.RatioPoint, 0, n)
	tl.tree.Descend(func(it timelineItem) bool {
		if len(out) == n {
			return false
		}
		out = append(out, it.point)
		return true
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Between returns observations with from <= Timestamp <= to, oldest first.
func (tl *ratioTimeline) Between(from, to int64) []*types.RatioPoint {
	if to < from {
		return nil
	}
	var out []*types.RatioPoint
	ge := timelineItem{point: &types.RatioPoint{Timestamp: from}}
	lt := timelineItem{point: &types.RatioPoint{Timestamp: to}, seq: math.MaxUint64}
	tl.tree.AscendRange(ge, lt, func(it timelineItem) bool {
		out = append(out, it.point)
		return true
	})
	return out
}

func (tl *ratioTimeline) Len() int {
	return tl.tree.Len()
}
