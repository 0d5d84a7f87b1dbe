package operation

import (
	"context"
	"encoding/json"

	"elementstore/graph"
	"elementstore/graph/iterator"
	"elementstore/internal/graphstoreerr"
	"elementstore/retriever"
	"elementstore/writer"
)

func init() {
	Register(KindGetElements, handleGetElements)
	Register(KindGetAllElements, handleGetAllElements)
	Register(KindGetAdjacentEntitySeeds, handleGetAdjacentEntitySeeds)
	Register(KindGetElementsWithinSet, handleGetElementsWithinSet)
	Register(KindGetElementsBetweenSets, handleGetElementsBetweenSets)
	Register(KindGetElementsInRanges, handleGetElementsInRanges)
	Register(KindSummariseGroupOverRanges, handleSummariseGroupOverRanges)
	Register(KindAddElements, handleAddElements)
}

// rowWithIdentityToJSON turns a drained iterator.Row back into the wire
// element shape, using the vertex identity the retriever attached
// alongside the properties the iterator stack may have rewritten.
func rowWithIdentityToJSON(group *graph.GroupSchema, row iterator.Row) ElementJSON {
	props := map[string]interface{}{}
	if row.Properties != nil {
		for _, name := range row.Properties.Names() {
			v, _ := row.Properties.Get(name)
			props[name] = v
		}
	}
	if row.IsEdge {
		return ElementJSON{Kind: "edge", Group: group.Name, Source: row.Source, Destination: row.Destination, Directed: row.Directed, Properties: props}
	}
	return ElementJSON{Kind: "entity", Group: group.Name, Vertex: row.Vertex, Properties: props}
}

// getElementsTyped is handleGetElements' decoded-request core, lifted out
// so GetElementsChain (chain.go) can drive it directly without a
// marshal/unmarshal round trip through JSON.
func getElementsTyped(ctx context.Context, env *Environment, req GetElementsRequest) ([]ElementJSON, error) {
	seeds, err := toSeeds(req.Seeds)
	if err != nil {
		return nil, err
	}
	opts, view, err := env.selectionOptions(req.SelectionJSON)
	if err != nil {
		return nil, err
	}
	return getElementsWithIdentity(ctx, env, seeds, view, opts)
}

func handleGetElements(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetElementsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetElements request: %v", err)
	}
	return getElementsTyped(ctx, env, req)
}

func handleGetAllElements(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetAllElementsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetAllElements request: %v", err)
	}
	opts, view, err := env.selectionOptions(req.SelectionJSON)
	if err != nil {
		return nil, err
	}
	// A single RangeSeed spanning the empty string up to a byte sequence no
	// real vertex serialisation sorts past covers every row the table holds.
	seeds := []graph.Seed{graph.RangeSeed("", "\xff\xff\xff\xff")}
	return getElementsWithIdentity(ctx, env, seeds, view, opts)
}

// getAdjacentEntitySeedsTyped is handleGetAdjacentEntitySeeds' decoded-
// request core, lifted out so GetAdjacentEntitySeedsChain (chain.go) can
// drive it directly.
func getAdjacentEntitySeedsTyped(ctx context.Context, env *Environment, req GetAdjacentEntitySeedsRequest) ([]SeedJSON, error) {
	inOut, err := parseInOut(req.InOut)
	if err != nil {
		return nil, err
	}
	opts := retriever.Options{IncludeEntities: false, IncludeEdges: graph.IncludeEdgesAll, InOut: inOut, StoreValidation: true, StoreAggregation: true}

	seen := map[string]bool{}
	var result []SeedJSON
	for _, sj := range req.Seeds {
		seed, err := sj.toSeed()
		if err != nil {
			return nil, err
		}
		if !seed.IsEntity() {
			continue
		}
		elements, err := getElementsWithIdentity(ctx, env, []graph.Seed{seed}, graph.NewView(), opts)
		if err != nil {
			return nil, err
		}
		for _, el := range elements {
			if el.Kind != "edge" {
				continue
			}
			other := el.Destination
			if el.Source != seed.Entity {
				other = el.Source
			}
			if !seen[other] {
				seen[other] = true
				result = append(result, SeedJSON{Kind: "entity", Vertex: other})
			}
		}
	}
	return result, nil
}

func handleGetAdjacentEntitySeeds(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetAdjacentEntitySeedsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetAdjacentEntitySeeds request: %v", err)
	}
	return getAdjacentEntitySeedsTyped(ctx, env, req)
}

func handleGetElementsWithinSet(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetElementsWithinSetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetElementsWithinSet request: %v", err)
	}
	opts, view, err := env.selectionOptions(req.SelectionJSON)
	if err != nil {
		return nil, err
	}
	opts.IncludeEdges = graph.IncludeEdgesAll

	set := NewVertexSet(req.Vertices)
	seeds := make([]graph.Seed, 0, len(req.Vertices))
	for _, v := range req.Vertices {
		seeds = append(seeds, graph.EntitySeed(v))
	}
	elements, err := getElementsWithIdentity(ctx, env, seeds, view, opts)
	if err != nil {
		return nil, err
	}
	out := elements[:0]
	for _, el := range elements {
		if el.Kind == "edge" && !(set.Contains(el.Source) && set.Contains(el.Destination)) {
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

func handleGetElementsBetweenSets(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetElementsBetweenSetsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetElementsBetweenSets request: %v", err)
	}
	opts, view, err := env.selectionOptions(req.SelectionJSON)
	if err != nil {
		return nil, err
	}
	opts.IncludeEdges = graph.IncludeEdgesAll
	opts.IncludeEntities = false

	inputSet := NewVertexSet(req.InputVertices)
	outputSet := NewVertexSet(req.OutputVertices)
	seeds := make([]graph.Seed, 0, len(req.InputVertices))
	for _, v := range req.InputVertices {
		seeds = append(seeds, graph.EntitySeed(v))
	}
	elements, err := getElementsWithIdentity(ctx, env, seeds, view, opts)
	if err != nil {
		return nil, err
	}
	var out []ElementJSON
	for _, el := range elements {
		if el.Kind != "edge" {
			continue
		}
		crosses := (inputSet.Contains(el.Source) && outputSet.Contains(el.Destination)) ||
			(inputSet.Contains(el.Destination) && outputSet.Contains(el.Source))
		if crosses {
			out = append(out, el)
		}
	}
	return out, nil
}

func handleGetElementsInRanges(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req GetElementsInRangesRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding GetElementsInRanges request: %v", err)
	}
	opts, view, err := env.selectionOptions(req.SelectionJSON)
	if err != nil {
		return nil, err
	}
	seeds := make([]graph.Seed, 0, len(req.Ranges))
	for _, r := range req.Ranges {
		seeds = append(seeds, graph.RangeSeed(r.Lo, r.Hi))
	}
	return getElementsWithIdentity(ctx, env, seeds, view, opts)
}

func handleSummariseGroupOverRanges(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req SummariseGroupOverRangesRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding SummariseGroupOverRanges request: %v", err)
	}
	group, ok := env.Schema.Group(req.Group)
	if !ok {
		return nil, graphstoreerr.Operation("unknown group %q", req.Group)
	}
	view := graph.NewView()
	if group.IsEdge {
		view = view.WithEdgeGroup(group.Name, &graph.GroupView{})
	} else {
		view = view.WithEntityGroup(group.Name, &graph.GroupView{})
	}
	opts := retriever.Options{
		IncludeEntities:  !group.IsEdge,
		IncludeEdges:     graph.IncludeEdgesNone,
		StoreValidation:  true,
		StoreAggregation: true,
	}
	if group.IsEdge {
		opts.IncludeEdges = graph.IncludeEdgesAll
	}
	seeds := make([]graph.Seed, 0, len(req.Ranges))
	for _, r := range req.Ranges {
		seeds = append(seeds, graph.RangeSeed(r.Lo, r.Hi))
	}
	return getElementsWithIdentity(ctx, env, seeds, view, opts)
}

// addElementsTyped is handleAddElements' decoded-request core, lifted out
// so AddElementsChain (chain.go) can drive it directly.
func addElementsTyped(ctx context.Context, env *Environment, req AddElementsRequest) (AddElementsSummary, error) {
	elements := make([]graph.Element, 0, len(req.Elements))
	for _, ej := range req.Elements {
		el, err := ej.toElement()
		if err != nil {
			continue
		}
		coerceProperties(env.Schema, el)
		elements = append(elements, el)
	}
	summary := env.Writer.AddElements(ctx, elements)
	result := AddElementsSummary{Written: summary.Written, Skipped: summary.Skipped}
	if summary.FirstError != nil {
		result.FirstError = summary.FirstError.Error()
	}
	return result, nil
}

func handleAddElements(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error) {
	var req AddElementsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, graphstoreerr.Operation("decoding AddElements request: %v", err)
	}
	return addElementsTyped(ctx, env, req)
}

// coerceProperties fixes up the one concrete JSON decoding artifact: all
// JSON numbers decode to float64, but int-typed schema properties expect
// int64/int. Coerce using the group's declared property types before the
// writer's codec ever sees the value.
func coerceProperties(schema *graph.Schema, el graph.Element) {
	group, ok := schema.Group(el.Group())
	if !ok {
		return
	}
	props := el.Properties()
	for _, name := range props.Names() {
		def, ok := group.Property(name)
		if !ok {
			continue
		}
		v, _ := props.Get(name)
		f, isFloat := v.(float64)
		if !isFloat {
			continue
		}
		switch def.Type {
		case graph.TypeInt, graph.TypeLong:
			props.Set(name, int64(f))
		}
	}
}

// getElementsWithIdentity retrieves via the schema-bound retriever and
// returns fully identified elements (not bare iterator.Row values). Keys are
// not decoded a second time: the retriever records identity (Vertex, or
// Source/Destination/Directed) on each Row when it decodes it, and
// rowWithIdentityToJSON reads it from there alongside the properties that
// Transformer/Aggregation may have rewritten.
func getElementsWithIdentity(ctx context.Context, env *Environment, seeds []graph.Seed, view *graph.View, opts retriever.Options) ([]ElementJSON, error) {
	src, err := env.Retriever.Get(ctx, seeds, view, opts)
	if err != nil {
		return nil, err
	}
	rows, err := iterator.Drain(src)
	if err != nil {
		return nil, err
	}
	out := make([]ElementJSON, 0, len(rows))
	for _, row := range rows {
		group, ok := env.Schema.Group(row.GroupName)
		if !ok {
			continue
		}
		out = append(out, rowWithIdentityToJSON(group, row))
	}
	return out, nil
}
