package operation

import "context"

// Chain is one operation step, typed on its input and output (C8, spec
// Design Note 9.3). Operation handlers already satisfy this shape once
// their request/response types are fixed, so a Handler's own decoded
// request/response pair can be lifted into a Chain directly.
type Chain[In, Out any] func(ctx context.Context, in In) (Out, error)

// Then composes two chains whose middle type lines up, producing a single
// Chain from the first's input to the second's output. The composition is
// checked by the Go compiler at the call site — feeding a chain whose Out
// doesn't match the next chain's In is a compile error, never a runtime
// type assertion failure.
func Then[In, Mid, Out any](first Chain[In, Mid], second Chain[Mid, Out]) Chain[In, Out] {
	return func(ctx context.Context, in In) (Out, error) {
		mid, err := first(ctx, in)
		if err != nil {
			var zero Out
			return zero, err
		}
		return second(ctx, mid)
	}
}

// Map adapts a plain synchronous transform into a Chain, for steps that
// don't need context or can't fail.
func Map[In, Out any](f func(In) Out) Chain[In, Out] {
	return func(_ context.Context, in In) (Out, error) {
		return f(in), nil
	}
}

// GetElementsChain lifts handleGetElements' decoded core into a Chain, so
// a direct Go caller can compose it with Then/Map instead of going through
// Kind-string dispatch.
func GetElementsChain(env *Environment) Chain[GetElementsRequest, []ElementJSON] {
	return func(ctx context.Context, in GetElementsRequest) ([]ElementJSON, error) {
		return getElementsTyped(ctx, env, in)
	}
}

// GetAdjacentEntitySeedsChain lifts handleGetAdjacentEntitySeeds' decoded
// core into a Chain.
func GetAdjacentEntitySeedsChain(env *Environment) Chain[GetAdjacentEntitySeedsRequest, []SeedJSON] {
	return func(ctx context.Context, in GetAdjacentEntitySeedsRequest) ([]SeedJSON, error) {
		return getAdjacentEntitySeedsTyped(ctx, env, in)
	}
}

// AddElementsChain lifts handleAddElements' decoded core into a Chain.
func AddElementsChain(env *Environment) Chain[AddElementsRequest, AddElementsSummary] {
	return func(ctx context.Context, in AddElementsRequest) (AddElementsSummary, error) {
		return addElementsTyped(ctx, env, in)
	}
}

// SeedsToGetElementsRequest builds the Map step that bridges
// GetAdjacentEntitySeedsChain's []SeedJSON output into GetElementsChain's
// GetElementsRequest input: the seeds pass through unchanged, and sel picks
// the selection (view, include-edges/entities) the following GetElements
// step runs with.
func SeedsToGetElementsRequest(sel SelectionJSON) func([]SeedJSON) GetElementsRequest {
	return func(seeds []SeedJSON) GetElementsRequest {
		return GetElementsRequest{Seeds: seeds, SelectionJSON: sel}
	}
}
