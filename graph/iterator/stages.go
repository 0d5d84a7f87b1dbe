package iterator

import (
	"bytes"

	"elementstore/graph"
)

// funcSource adapts a next-function to Source; used by stages that need
// custom per-row state (e.g. the aggregation iterator's pending buffer).
type funcSource struct {
	next  func() (Row, error)
	close func() error
}

func (f *funcSource) Next() (Row, error) { return f.next() }
func (f *funcSource) Close() error {
	if f.close != nil {
		return f.close()
	}
	return nil
}

// GroupSelectionStage drops rows whose group is not selected by the view
// at all (spec §3: "Groups absent from the view are excluded from
// results"). An unrestricted view (one declaring no groups at all) selects
// every group instead of none — the no-view default every operation handler
// passes when a request names no view. It always runs first, ahead of the
// seven named stages.
func GroupSelectionStage(view *graph.View) Iterator {
	unrestricted := view.IsUnrestricted()
	return Func(func(src Source) Source {
		return &funcSource{
			next: func() (Row, error) {
				for {
					row, err := src.Next()
					if err != nil {
						return Row{}, err
					}
					if unrestricted {
						return row, nil
					}
					kind := graph.EntityKind
					if row.IsEdge {
						kind = graph.EdgeKind
					}
					if _, ok := view.GroupView(kind, row.GroupName); ok {
						return row, nil
					}
				}
			},
			close: src.Close,
		}
	})
}

// ValidationStage (spec §4.3 stage 1) drops rows whose schema-declared
// validators reject the decoded properties. Installed when the store
// advertises STORE_VALIDATION.
func ValidationStage(schema *graph.Schema) Iterator {
	return Func(func(src Source) Source {
		return &funcSource{
			next: func() (Row, error) {
				for {
					row, err := src.Next()
					if err != nil {
						return Row{}, err
					}
					group, ok := schema.Group(row.GroupName)
					if !ok {
						continue
					}
					if rowPassesValidation(group, row.Properties) {
						return row, nil
					}
				}
			},
			close: src.Close,
		}
	})
}

func rowPassesValidation(group *graph.GroupSchema, props *graph.Properties) bool {
	for _, name := range props.Names() {
		def, ok := group.Property(name)
		if !ok || def.Validator == nil {
			continue
		}
		v, _ := props.Get(name)
		if err := def.Validator.Validate(v); err != nil {
			return false
		}
	}
	return true
}

// aggregationKey returns the tuple spec §3 invariant 3 names: (row,
// colFamily, colQualifier, colVisibility).
func aggregationKey(k graph.Key) string {
	var buf bytes.Buffer
	buf.Write(k.Row)
	buf.WriteByte(0)
	buf.Write(k.ColFamily)
	buf.WriteByte(0)
	buf.Write(k.ColQualifier)
	buf.WriteByte(0)
	buf.Write(k.ColVisibility)
	return buf.String()
}

// AggregationStage (spec §4.3 stage 2) collapses rows sharing the full
// aggregation key by applying each non-group-by property's aggregator.
// Installed when the store advertises AGGREGATION. Assumes the upstream
// source yields rows in key order so rows sharing an aggregation key are
// contiguous (true of a single-range scan; spec invariant 4 is what lets
// callers coalesce ranges without breaking this assumption).
func AggregationStage(schema *graph.Schema) Iterator {
	return Func(func(src Source) Source {
		var pending *Row
		var pendingKey string
		done := false
		return &funcSource{
			next: func() (Row, error) {
				if done {
					return Row{}, ErrDone
				}
				for {
					row, err := src.Next()
					if err == ErrDone {
						done = true
						if pending != nil {
							out := *pending
							pending = nil
							return out, nil
						}
						return Row{}, ErrDone
					}
					if err != nil {
						return Row{}, err
					}
					key := aggregationKey(row.Key)
					if pending == nil {
						pending = &row
						pendingKey = key
						continue
					}
					if key == pendingKey {
						merged, err := mergeRows(schema, *pending, row)
						if err != nil {
							return Row{}, err
						}
						pending = &merged
						continue
					}
					out := *pending
					pending = &row
					pendingKey = key
					return out, nil
				}
			},
			close: src.Close,
		}
	})
}

func mergeRows(schema *graph.Schema, a, b Row) (Row, error) {
	group, ok := schema.Group(a.GroupName)
	if !ok {
		return a, nil
	}
	merged := a.Properties.Clone()
	for _, def := range group.NonGroupByProperties() {
		bv, hasB := b.Properties.Get(def.Name)
		if !hasB {
			continue
		}
		av, hasA := merged.Get(def.Name)
		if !hasA {
			merged.Set(def.Name, bv)
			continue
		}
		if def.Aggregator == nil {
			merged.Set(def.Name, bv)
			continue
		}
		combined, err := def.Aggregator.Aggregate(av, bv)
		if err != nil {
			return Row{}, err
		}
		merged.Set(def.Name, combined)
	}
	out := a
	out.Properties = merged
	// the later timestamp wins ties, mirroring the tablet engine's own
	// compaction tie-break (spec §4.1, "Timestamp").
	if b.Key.Timestamp > a.Key.Timestamp {
		out.Key.Timestamp = b.Key.Timestamp
	}
	return out, nil
}

func filterStage(kindFilter func(*graph.GroupView) *graph.Filter) func(*graph.View) Iterator {
	return func(view *graph.View) Iterator {
		return Func(func(src Source) Source {
			return &funcSource{
				next: func() (Row, error) {
					for {
						row, err := src.Next()
						if err != nil {
							return Row{}, err
						}
						kind := graph.EntityKind
						if row.IsEdge {
							kind = graph.EdgeKind
						}
						gv, ok := view.GroupView(kind, row.GroupName)
						if !ok {
							continue
						}
						filter := kindFilter(gv)
						ok2, err := filter.Evaluate(row.Properties)
						if err != nil {
							return Row{}, err
						}
						if ok2 {
							return row, nil
						}
					}
				},
				close: src.Close,
			}
		})
	}
}

// PreAggregationStage (spec §4.3 stage 3) applies each group's
// preAggregationFilter. Only safe with predicates over group-by
// properties: in this stack it physically runs after AggregationStage, so
// a predicate over a non-group-by property would see already-aggregated
// values, not the pre-aggregation ones its name implies.
var PreAggregationStage = filterStage(func(gv *graph.GroupView) *graph.Filter { return gv.PreAggregationFilter })

// PostAggregationStage (spec §4.3 stage 4) applies each group's
// postAggregationFilter against fully aggregated properties.
var PostAggregationStage = filterStage(func(gv *graph.GroupView) *graph.Filter { return gv.PostAggregationFilter })

// PostTransformationStage (spec §4.3 stage 6) applies the final filter
// layer, evaluated against transformed properties.
var PostTransformationStage = filterStage(func(gv *graph.GroupView) *graph.Filter { return gv.PostTransformationFilter })

// TransformStage (spec §4.3 stage 5) applies the per-group transformer.
func TransformStage(view *graph.View) Iterator {
	return Func(func(src Source) Source {
		return &funcSource{
			next: func() (Row, error) {
				row, err := src.Next()
				if err != nil {
					return Row{}, err
				}
				kind := graph.EntityKind
				if row.IsEdge {
					kind = graph.EdgeKind
				}
				gv, ok := view.GroupView(kind, row.GroupName)
				if !ok || gv.Transformer == nil {
					return row, nil
				}
				transformed, err := gv.Transformer(row.Properties)
				if err != nil {
					return Row{}, err
				}
				row.Properties = transformed
				return row, nil
			},
			close: src.Close,
		}
	})
}

// DirectionStage (spec §4.3 stage 7) reads the row marker byte and drops
// edges whose direction does not match the operation's inclusion flags.
// Entities pass through untouched unless includeEntities is false.
func DirectionStage(opts Options) Iterator {
	return Func(func(src Source) Source {
		return &funcSource{
			next: func() (Row, error) {
				for {
					row, err := src.Next()
					if err != nil {
						return Row{}, err
					}
					if !row.IsEdge {
						if opts.IncludeEntities {
							return row, nil
						}
						continue
					}
					if !edgeDirectionMatches(row.Marker, opts) {
						continue
					}
					return row, nil
				}
			},
			close: src.Close,
		}
	})
}

func edgeDirectionMatches(marker byte, opts Options) bool {
	directed := marker == MarkerDirectedSourceFirst || marker == MarkerDirectedDestFirst
	if directed {
		if opts.IncludeEdges != graph.IncludeEdgesAll && opts.IncludeEdges != graph.IncludeEdgesDirected {
			return false
		}
	} else {
		if opts.IncludeEdges != graph.IncludeEdgesAll && opts.IncludeEdges != graph.IncludeEdgesUndirected {
			return false
		}
	}
	if !directed {
		// Undirected edges carry no direction to filter on; they pass
		// regardless of InOut (spec invariant 7).
		return true
	}
	switch opts.InOut {
	case graph.IncludeEither:
		return true
	case graph.IncludeOutgoing:
		return marker == MarkerDirectedSourceFirst
	case graph.IncludeIncoming:
		return marker == MarkerDirectedDestFirst
	default:
		return true
	}
}

// Marker byte values shared with graph/keypkg/byteentity (spec §3).
const (
	MarkerUndirected           byte = 0x04
	MarkerDirectedSourceFirst  byte = 0x02
	MarkerDirectedDestFirst    byte = 0x03
)
