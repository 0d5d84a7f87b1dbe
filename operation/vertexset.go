package operation

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// VertexSet is a compact membership set over vertex identifiers, backed by
// a roaring bitmap over interned integer ids. GetElementsWithinSet and
// GetElementsBetweenSets both need to test, for every edge touching a seed
// vertex, whether its other endpoint also belongs to a (possibly large)
// vertex set — a roaring bitmap keeps that test and the set itself compact
// when the set holds many vertices.
type VertexSet struct {
	ids    map[string]uint32
	bitmap *roaring.Bitmap
}

func NewVertexSet(vertices []string) *VertexSet {
	vs := &VertexSet{ids: make(map[string]uint32, len(vertices)), bitmap: roaring.New()}
	for _, v := range vertices {
		vs.add(v)
	}
	return vs
}

func (vs *VertexSet) add(v string) {
	if _, ok := vs.ids[v]; ok {
		return
	}
	id := uint32(len(vs.ids))
	vs.ids[v] = id
	vs.bitmap.Add(id)
}

// Contains reports whether v belongs to the set.
func (vs *VertexSet) Contains(v string) bool {
	id, ok := vs.ids[v]
	if !ok {
		return false
	}
	return vs.bitmap.Contains(id)
}

// Len returns the number of distinct vertices in the set.
func (vs *VertexSet) Len() int {
	return len(vs.ids)
}
