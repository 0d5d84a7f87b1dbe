package classic

import (
	"bytes"

	"github.com/google/btree"

	"elementstore/graph"
)

// rangeItem orders KeyRange values by Start for the coalescing tree below.
type rangeItem struct {
	r graph.KeyRange
}

func lessRangeItem(a, b rangeItem) bool {
	return bytes.Compare(a.r.Start, b.r.Start) < 0
}

// CoalesceRanges merges overlapping or directly-adjacent half-open ranges
// into the smallest equivalent set, ascending by Start. Used wherever a
// seed (or a batch of seeds) can produce multiple candidate ranges that
// turn out to abut — fewer ranges means fewer store-side scans.
func CoalesceRanges(ranges []graph.KeyRange) []graph.KeyRange {
	if len(ranges) <= 1 {
		return ranges
	}
	tree := btree.NewG[rangeItem](32, lessRangeItem)
	for _, r := range ranges {
		tree.ReplaceOrInsert(rangeItem{r: r})
	}

	var merged []graph.KeyRange
	var current graph.KeyRange
	has := false
	tree.Ascend(func(item rangeItem) bool {
		r := item.r
		if !has {
			current = r
			has = true
			return true
		}
		if bytes.Compare(r.Start, current.End) <= 0 {
			if bytes.Compare(r.End, current.End) > 0 {
				current.End = r.End
			}
			return true
		}
		merged = append(merged, current)
		current = r
		return true
	})
	if has {
		merged = append(merged, current)
	}
	return merged
}
