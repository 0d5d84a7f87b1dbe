// Package retriever implements the single-pass, finite element retrieval
// unit (spec §5, "Retriever", C5): it turns a list of seeds into ranges via
// a key package's RangeFactory, scans them through the store and decodes
// raw entries back into elements via the ElementConverter. Scanning and
// decoding are not lazy: Get drains every seed's scan before it returns.
// The Source it returns pulls those decoded rows, one at a time, through a
// single iterator stack the IteratorFactory builds.
// Edges are deduplicated across seeds, since two seeds that are both
// endpoints of the same edge each see one of its two dual-keyed row forms;
// repeated cells of the one row form that first yielded an edge are kept,
// so aggregation still merges them.
package retriever

import (
	"bytes"
	"context"

	"elementstore/graph"
	"elementstore/graph/iterator"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
	"elementstore/store"
)

// Options carries the knobs a Retriever needs beyond schema+view: what to
// include and, for edge-oriented seeds, which directions.
type Options struct {
	IncludeEntities  bool
	IncludeEdges     graph.IncludeEdges
	InOut            graph.IncludeIncomingOutgoing
	StoreValidation  bool
	StoreAggregation bool
}

// Retriever binds one schema, one key package and one store together.
type Retriever struct {
	schema  *graph.Schema
	keypkg  keypkg.KeyPackage
	scanner store.Scanner
}

func New(schema *graph.Schema, kp keypkg.KeyPackage, scanner store.Scanner) *Retriever {
	return &Retriever{schema: schema, keypkg: kp, scanner: scanner}
}

// Get retrieves the elements touching every seed, applying view and
// installing the direction filter on every call, whatever the seed kinds.
func (r *Retriever) Get(ctx context.Context, seeds []graph.Seed, view *graph.View, opts Options) (iterator.Source, error) {
	if view == nil {
		view = graph.NewView()
	}
	converter := r.keypkg.ElementConverter()
	rangeFactory := r.keypkg.RangeFactory()
	iterFactory := r.keypkg.IteratorFactory()

	dedup := make(map[string]edgeClaim)
	var allRows []iterator.Row

	for scan, seed := range seeds {
		ranges, err := rangeFactory.Ranges(r.schema, seed, opts.IncludeEntities, opts.IncludeEdges, opts.InOut)
		if err != nil {
			return nil, err
		}
		if len(ranges) == 0 {
			continue
		}
		rawSource, err := r.scanner.Scan(ctx, ranges)
		if err != nil {
			return nil, graphstoreerr.WrapStore(err, "scanning seed ranges")
		}
		rows, err := drainAndDecode(rawSource, converter, r.schema, seed, scan, dedup)
		if err != nil {
			return nil, err
		}
		allRows = append(allRows, rows...)
	}

	stageOpts := iterator.Options{
		StoreValidation:  opts.StoreValidation,
		StoreAggregation: opts.StoreAggregation,
		InstallDirection: true,
		IncludeEntities:  opts.IncludeEntities,
		IncludeEdges:     opts.IncludeEdges,
		InOut:            opts.InOut,
	}
	stack, err := iterFactory.Build(r.schema, view, stageOpts)
	if err != nil {
		return nil, err
	}
	return iterator.Chain(iterator.NewSliceSource(allRows), stack), nil
}

// edgeClaim records which seed scan and which physical row first yielded an
// edge; later cells of that same row in that same scan are further versions
// of the edge, anything else is a duplicate.
type edgeClaim struct {
	scan int
	row  string
}

func drainAndDecode(raw store.RawSource, converter keypkg.ElementConverter, schema *graph.Schema, seed graph.Seed, scan int, dedup map[string]edgeClaim) ([]iterator.Row, error) {
	defer raw.Close()
	var rows []iterator.Row
	for {
		entry, err := raw.Next()
		if err == store.ErrDone {
			return rows, nil
		}
		if err != nil {
			return nil, graphstoreerr.WrapStore(err, "reading scan results")
		}
		elem, err := converter.FromKeyValue(entry.Key, entry.Value, anchorVertex(seed))
		if err != nil {
			// a single malformed element is skipped, not fatal (spec §7,
			// CodecError handling).
			continue
		}
		row := rowFromElement(schema, entry.Key, elem, seed)
		if row.IsEdge {
			key := edgeDedupKey(row.GroupName, elem.(*graph.Edge), entry.Key)
			claim := edgeClaim{scan: scan, row: string(entry.Key.Row)}
			if first, seen := dedup[key]; seen && first != claim {
				continue
			}
			dedup[key] = claim
		}
		rows = append(rows, row)
	}
}

func anchorVertex(seed graph.Seed) string {
	if seed.IsEntity() {
		return seed.Entity
	}
	return ""
}

func rowFromElement(schema *graph.Schema, key graph.Key, elem graph.Element, seed graph.Seed) iterator.Row {
	switch e := elem.(type) {
	case *graph.Entity:
		return iterator.Row{Key: key, GroupName: e.Group(), IsEdge: false, Properties: e.Properties(), Vertex: e.Vertex}
	case *graph.Edge:
		return iterator.Row{
			Key: key, GroupName: e.Group(), IsEdge: true, Marker: deriveMarker(seed, e), Properties: e.Properties(),
			Source: e.Source, Destination: e.Destination, Directed: e.Directed,
		}
	default:
		return iterator.Row{Key: key}
	}
}

// deriveMarker reconstructs the direction marker DirectionStage needs from
// the decoded edge and the seed vertex that anchored this scan, rather than
// from a raw key byte — every key-package layout already guarantees a
// seed's edge scan only returns rows where the seed vertex is the row's
// first endpoint, so comparing the seed vertex to the decoded edge's
// Source/Destination recovers exactly which physical row form this was.
func deriveMarker(seed graph.Seed, e *graph.Edge) byte {
	if !e.Directed {
		return iterator.MarkerUndirected
	}
	if !seed.IsEntity() {
		return iterator.MarkerDirectedSourceFirst
	}
	if seed.Entity == e.Source {
		return iterator.MarkerDirectedSourceFirst
	}
	return iterator.MarkerDirectedDestFirst
}

func edgeDedupKey(group string, e *graph.Edge, key graph.Key) string {
	a, b := e.Source, e.Destination
	if a > b {
		a, b = b, a
	}
	var buf bytes.Buffer
	buf.WriteString(group)
	buf.WriteByte(0)
	buf.WriteString(a)
	buf.WriteByte(0)
	buf.WriteString(b)
	buf.WriteByte(0)
	if e.Directed {
		buf.WriteByte(1)
	}
	buf.WriteByte(0)
	buf.Write(key.ColQualifier)
	return buf.String()
}
