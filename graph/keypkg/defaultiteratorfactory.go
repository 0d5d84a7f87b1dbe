package keypkg

import (
	"elementstore/graph"
	"elementstore/graph/iterator"
)

// DefaultIteratorFactory builds the seven-stage stack of spec §4.3 plus
// the implicit group-selection stage of spec §3. It is layout-agnostic —
// both the byteentity and classic key packages use it as-is, since the
// stack's semantics do not depend on row/column byte layout, only on
// decoded Properties and the marker byte each layout already normalises
// into iterator.Row.Marker.
type DefaultIteratorFactory struct{}

var _ IteratorFactory = DefaultIteratorFactory{}

func (DefaultIteratorFactory) Build(schema *graph.Schema, view *graph.View, opts iterator.Options) ([]iterator.Iterator, error) {
	if schema == nil {
		return nil, errIteratorNoSchema
	}
	if view == nil {
		view = graph.NewView()
	}

	stack := []iterator.Iterator{iterator.GroupSelectionStage(view)}

	if opts.StoreValidation {
		stack = append(stack, iterator.ValidationStage(schema))
	}
	if opts.StoreAggregation {
		stack = append(stack, iterator.AggregationStage(schema))
	}
	if view.HasAnyFilters() {
		stack = append(stack, iterator.PreAggregationStage(view))
		stack = append(stack, iterator.PostAggregationStage(view))
	}
	if view.HasAnyTransformers() {
		stack = append(stack, iterator.TransformStage(view))
	}
	if view.HasAnyFilters() {
		stack = append(stack, iterator.PostTransformationStage(view))
	}
	if opts.InstallDirection {
		stack = append(stack, iterator.DirectionStage(opts))
	}
	return stack, nil
}

var errIteratorNoSchema = iteratorConfigError("iterator factory: schema is required")
