package classic

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
)

// RangeFactory is the classic C3 implementation. Entity and edge ranges for
// an EntitySeed are coalesced via CoalesceRanges before returning: the
// entity range [row, row‖0xFF) contains the edge range
// [row‖0x00, row‖0x00‖0xFF), so when both are requested they merge into
// the one entity range.
type RangeFactory struct{}

var _ keypkg.RangeFactory = RangeFactory{}

func (RangeFactory) Ranges(schema *graph.Schema, seed graph.Seed, includeEntities bool, includeEdges graph.IncludeEdges, inOut graph.IncludeIncomingOutgoing) ([]graph.KeyRange, error) {
	switch {
	case seed.IsEntity():
		ranges, err := entitySeedRanges(seed.Entity, includeEntities, includeEdges)
		if err != nil {
			return nil, err
		}
		return CoalesceRanges(ranges), nil
	case seed.IsEdge():
		return edgeSeedRanges(seed.EdgeSource, seed.EdgeDestination, seed.EdgeDirected)
	case seed.IsRange():
		return rangeSeedRanges(seed.RangeLo, seed.RangeHi)
	default:
		return nil, graphstoreerr.Operation("seed has no set kind")
	}
}

func entitySeedRanges(vertex string, includeEntities bool, includeEdges graph.IncludeEdges) ([]graph.KeyRange, error) {
	var ranges []graph.KeyRange

	if includeEntities {
		row, err := entityRow(vertex)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, pointRange(row))
	}

	if includeEdges != graph.IncludeEdgesNone {
		vb, err := encodeVertex(vertex)
		if err != nil {
			return nil, err
		}
		start := append(append([]byte{}, vb...), delim)
		end := append(append([]byte{}, start...), 0xFF)
		ranges = append(ranges, graph.KeyRange{Start: start, End: end})
	}

	return ranges, nil
}

func edgeSeedRanges(source, destination string, directed bool) ([]graph.KeyRange, error) {
	row, err := edgeRow(source, destination)
	if err != nil {
		return nil, err
	}
	return []graph.KeyRange{pointRange(row)}, nil
}

func rangeSeedRanges(lo, hi string) ([]graph.KeyRange, error) {
	loB, err := encodeVertex(lo)
	if err != nil {
		return nil, err
	}
	hiB, err := encodeVertex(hi)
	if err != nil {
		return nil, err
	}
	end := append(append([]byte{}, hiB...), 0xFF)
	return []graph.KeyRange{{Start: loB, End: end}}, nil
}

// pointRange covers exactly the keys whose row equals row. The store's sort
// key is row ‖ 0x00 ‖ colFamily ‖ 0x00 ‖ ... (store.encodeSortKey), so every
// real stored key for this row continues past row with a 0x00 delimiter and
// more bytes; an upper bound of row‖0x00 would be less than every such
// continuation and wrongly exclude all of them. 0xFF dominates any
// continuation byte at that position, matching the prefix-range convention
// used for the edge/range-seed bounds above.
func pointRange(row []byte) graph.KeyRange {
	end := append(append([]byte{}, row...), 0xFF)
	return graph.KeyRange{Start: row, End: end}
}
