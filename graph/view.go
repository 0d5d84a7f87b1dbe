package graph

// Predicate tests a single property value, e.g. "count > 5".
type Predicate func(value interface{}) (bool, error)

// PropertyFilter applies Predicate to one named property. A missing
// property fails the filter (conservative: can only remove elements,
// never add — spec invariant 6, "View monotonicity").
type PropertyFilter struct {
	Property  string
	Predicate Predicate
}

// Filter is an AND of PropertyFilter terms, selecting one or more
// properties and applying a predicate to each (spec §3, "View").
type Filter struct {
	Terms []PropertyFilter
}

// Evaluate runs every term against props; any missing property or failed
// predicate rejects the element.
func (f *Filter) Evaluate(props *Properties) (bool, error) {
	if f == nil {
		return true, nil
	}
	for _, term := range f.Terms {
		v, ok := props.Get(term.Property)
		if !ok {
			return false, nil
		}
		ok2, err := term.Predicate(v)
		if err != nil {
			return false, err
		}
		if !ok2 {
			return false, nil
		}
	}
	return true, nil
}

// Transformer produces a (possibly different) Properties from the input,
// applied after aggregation and before the post-transformation filter.
type Transformer func(props *Properties) (*Properties, error)

// GroupView is the per-group overlay described in spec §3.
type GroupView struct {
	PreAggregationFilter     *Filter
	PostAggregationFilter    *Filter
	Transformer              Transformer
	PostTransformationFilter *Filter
	// GroupBy narrows the group's aggregation key for this query only;
	// nil means "use the schema's declared GroupBy".
	GroupBy []string
}

// View is the per-query projection and filter overlay on groups (spec §3).
// Once at least one group is declared, groups absent from both Entities and
// Edges are excluded from results; a view declaring no groups excludes
// nothing (see IsUnrestricted).
type View struct {
	Entities map[string]*GroupView
	Edges    map[string]*GroupView
}

// NewView returns an empty view, which declares no groups and so selects
// every group; callers restrict it with WithEntityGroup/WithEdgeGroup.
func NewView() *View {
	return &View{Entities: map[string]*GroupView{}, Edges: map[string]*GroupView{}}
}

func (v *View) WithEntityGroup(name string, gv *GroupView) *View {
	if gv == nil {
		gv = &GroupView{}
	}
	v.Entities[name] = gv
	return v
}

func (v *View) WithEdgeGroup(name string, gv *GroupView) *View {
	if gv == nil {
		gv = &GroupView{}
	}
	v.Edges[name] = gv
	return v
}

// GroupView returns the overlay for a (kind, group) pair, and whether that
// group is selected by the view at all.
func (v *View) GroupView(kind ElementKind, group string) (*GroupView, bool) {
	var m map[string]*GroupView
	if kind == EntityKind {
		m = v.Entities
	} else {
		m = v.Edges
	}
	gv, ok := m[group]
	return gv, ok
}

// IsUnrestricted reports whether the view declares no groups at all, in
// either Entities or Edges. An unrestricted view (the zero value of NewView,
// and what operation handlers pass when a request names no view) selects
// every group in the schema; only a view that declares at least one group
// acts as the "groups absent from the view are excluded" restriction spec §3
// describes.
func (v *View) IsUnrestricted() bool {
	return len(v.Entities) == 0 && len(v.Edges) == 0
}

// HasAnyFilters reports whether any selected group declares at least one
// filter stage — used by IteratorFactory to skip empty stages entirely.
func (v *View) HasAnyFilters() bool {
	check := func(m map[string]*GroupView) bool {
		for _, gv := range m {
			if gv.PreAggregationFilter != nil || gv.PostAggregationFilter != nil || gv.PostTransformationFilter != nil {
				return true
			}
		}
		return false
	}
	return check(v.Entities) || check(v.Edges)
}

// HasAnyTransformers reports whether any selected group declares a
// transformer.
func (v *View) HasAnyTransformers() bool {
	check := func(m map[string]*GroupView) bool {
		for _, gv := range m {
			if gv.Transformer != nil {
				return true
			}
		}
		return false
	}
	return check(v.Entities) || check(v.Edges)
}
