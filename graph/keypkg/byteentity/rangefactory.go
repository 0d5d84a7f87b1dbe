package byteentity

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
)

// RangeFactory is the byteentity C3 implementation (spec §4.2). Direction
// filtering (inOut) is not applied here — it narrows candidate rows after
// the scan, in graph/iterator's DirectionStage, since dual-keying already
// means a single prefix range covers every edge touching a seed vertex
// regardless of which row-form happened to store it.
type RangeFactory struct{}

var _ keypkg.RangeFactory = RangeFactory{}

func (RangeFactory) Ranges(schema *graph.Schema, seed graph.Seed, includeEntities bool, includeEdges graph.IncludeEdges, inOut graph.IncludeIncomingOutgoing) ([]graph.KeyRange, error) {
	switch {
	case seed.IsEntity():
		return entitySeedRanges(seed.Entity, includeEntities, includeEdges)
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
	marker := markerUndirected
	if directed {
		marker = markerDirectedSourceFirst
	}
	row, err := edgeRow(source, destination, marker)
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
