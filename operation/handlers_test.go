package operation

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/graph/keypkg/byteentity"
	"elementstore/retriever"
	"elementstore/store"
	"elementstore/writer"
)

// memStore is an in-memory store.Scanner + store.BatchWriter: every mutation
// is appended as its own versioned cell (no overwrite-in-place), mirroring
// the tablet engine's append-only write model the AggregationStage merge
// depends on (spec §4.1, "Timestamp"). Entries are kept sorted by the same
// tuple the store's ordering invariant promises: row, then the rest of the
// key, so a seed's range scan sees rows touching it contiguously.
type memStore struct {
	entries []store.RawEntry
}

func (m *memStore) WriteBatch(ctx context.Context, mutations []store.Mutation) error {
	for _, mu := range mutations {
		m.entries = append(m.entries, store.RawEntry{Key: mu.Key, Value: mu.Value})
	}
	sort.SliceStable(m.entries, func(i, j int) bool {
		return compareKeys(m.entries[i].Key, m.entries[j].Key) < 0
	})
	return nil
}

func compareKeys(a, b graph.Key) int {
	if c := bytes.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ColFamily, b.ColFamily); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ColQualifier, b.ColQualifier); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ColVisibility, b.ColVisibility); c != 0 {
		return c
	}
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	return 0
}

func (m *memStore) Scan(ctx context.Context, ranges []graph.KeyRange) (store.RawSource, error) {
	var out []store.RawEntry
	for _, rg := range ranges {
		for _, e := range m.entries {
			if bytes.Compare(e.Key.Row, rg.Start) >= 0 && bytes.Compare(e.Key.Row, rg.End) < 0 {
				out = append(out, e)
			}
		}
	}
	return &memRawSource{entries: out}, nil
}

type memRawSource struct {
	entries []store.RawEntry
	pos     int
}

func (s *memRawSource) Next() (store.RawEntry, error) {
	if s.pos >= len(s.entries) {
		return store.RawEntry{}, store.ErrDone
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

func (s *memRawSource) Close() error { return nil }

// scenarioSchema is the schema spec §8 scenarios S1-S6 are stated against:
// an entity group with a max-aggregated property, and an edge group with a
// summing one.
func scenarioSchema(t *testing.T) *graph.Schema {
	t.Helper()
	entityGroup := &graph.GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "prop", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.MaxAggregator{}},
		},
	}
	edgeGroup := &graph.GroupSchema{
		Name:            "e",
		IsEdge:          true,
		SourceType:      "string",
		DestinationType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "count", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.SumAggregator{}},
		},
	}
	schema, err := graph.NewSchema(entityGroup, edgeGroup)
	require.NoError(t, err)
	return schema
}

func newScenarioEnv(t *testing.T) (*Environment, *memStore) {
	t.Helper()
	schema := scenarioSchema(t)
	kp, err := byteentity.New(schema)
	require.NoError(t, err)
	ms := &memStore{}
	env := &Environment{
		Schema:    schema,
		KeyPkg:    kp,
		Retriever: retriever.New(schema, kp, ms),
		Writer:    writer.New(kp, ms, zap.NewNop(), nil),
		Views:     map[string]*graph.View{},
	}
	return env, ms
}

func addEdge(t *testing.T, env *Environment, source, destination string, count int64) {
	t.Helper()
	edge := graph.NewEdge("e", source, destination, true)
	edge.Properties().Set("count", count)
	summary := env.Writer.AddElements(context.Background(), []graph.Element{edge})
	require.Equal(t, 1, summary.Written)
	require.Equal(t, 0, summary.Skipped)
}

func addEntity(t *testing.T, env *Environment, vertex string, prop int64) {
	t.Helper()
	entity := graph.NewEntity("v", vertex)
	entity.Properties().Set("prop", prop)
	summary := env.Writer.AddElements(context.Background(), []graph.Element{entity})
	require.Equal(t, 1, summary.Written)
	require.Equal(t, 0, summary.Skipped)
}

func execute(t *testing.T, env *Environment, kind Kind, req interface{}) []ElementJSON {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	result, err := Execute(context.Background(), env, kind, raw)
	require.NoError(t, err)
	elements, ok := result.([]ElementJSON)
	require.True(t, ok, "unexpected result type %T", result)
	return elements
}

// TestScenarioS1EdgesTouchingVertexAggregateAndDeduplicate implements spec
// §8's S1: two writes to the same (1,2) edge sum under the group's summing
// aggregator, and GetElements(seed=1) returns exactly the one edge touching
// vertex 1 — never the unrelated (2,3) edge.
func TestScenarioS1EdgesTouchingVertexAggregateAndDeduplicate(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEdge(t, env, "1", "2", 3)
	addEdge(t, env, "1", "2", 4)
	addEdge(t, env, "2", "3", 1)

	got := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].Kind)
	assert.Equal(t, "1", got[0].Source)
	assert.Equal(t, "2", got[0].Destination)
	assert.EqualValues(t, 7, got[0].Properties["count"])
}

// TestScenarioS2AdjacentEntitySeedsOutgoing implements spec §8's S2.
func TestScenarioS2AdjacentEntitySeedsOutgoing(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEdge(t, env, "1", "2", 3)
	addEdge(t, env, "1", "2", 4)
	addEdge(t, env, "2", "3", 1)

	raw, err := json.Marshal(GetAdjacentEntitySeedsRequest{
		Seeds: []SeedJSON{{Kind: "entity", Vertex: "1"}},
		InOut: "outgoing",
	})
	require.NoError(t, err)
	result, err := Execute(context.Background(), env, KindGetAdjacentEntitySeeds, raw)
	require.NoError(t, err)
	seeds, ok := result.([]SeedJSON)
	require.True(t, ok)
	require.Len(t, seeds, 1)
	assert.Equal(t, "2", seeds[0].Vertex)
}

// TestScenarioS3MaxAggregatorKeepsLargerValue implements spec §8's S3.
func TestScenarioS3MaxAggregatorKeepsLargerValue(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEntity(t, env, "1", 5)
	addEntity(t, env, "1", 2)

	got := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: true, IncludeEdges: "none"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "entity", got[0].Kind)
	assert.Equal(t, "1", got[0].Vertex)
	assert.EqualValues(t, 5, got[0].Properties["prop"])
}

// TestScenarioS4ViewFilterNarrowsResult implements spec §8's S4: a
// postAggregationFilter of count > 5 applied to S1's data keeps only the
// (1,2,count=7) edge.
func TestScenarioS4ViewFilterNarrowsResult(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEdge(t, env, "1", "2", 3)
	addEdge(t, env, "1", "2", 4)
	addEdge(t, env, "2", "3", 1)

	env.Views["countOver5"] = graph.NewView().WithEdgeGroup("e", &graph.GroupView{
		PostAggregationFilter: &graph.Filter{Terms: []graph.PropertyFilter{
			{Property: "count", Predicate: func(v interface{}) (bool, error) {
				n, ok := v.(int64)
				return ok && n > 5, nil
			}},
		}},
	})

	got := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all", View: "countOver5"},
	})

	require.Len(t, got, 1)
	assert.EqualValues(t, 7, got[0].Properties["count"])

	// invariant 6, "View monotonicity": the unfiltered view must return a
	// superset (here, the same one edge plus nothing removed by the filter
	// beyond what the filter itself named is impossible to add back).
	unfiltered := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all"},
	})
	assert.GreaterOrEqual(t, len(unfiltered), len(got))
}

// TestScenarioS5MalformedWriteLeavesValidElementsRetrievable implements
// spec §8's S5: a malformed element (unknown group, so the codec never
// accepts it) among many valid ones is skipped, not fatal, and does not
// affect the other elements' retrievability.
func TestScenarioS5MalformedWriteLeavesValidElementsRetrievable(t *testing.T) {
	env, _ := newScenarioEnv(t)

	const n = 1000
	elements := make([]graph.Element, 0, n+1)
	for i := 0; i < n; i++ {
		edge := graph.NewEdge("e", "src", "dst", true)
		edge.Properties().Set("count", int64(1))
		elements = append(elements, edge)
	}
	elements = append(elements, graph.NewEntity("NoSuchGroup", "x"))

	require.NotPanics(t, func() {
		summary := env.Writer.AddElements(context.Background(), elements)
		assert.Equal(t, n, summary.Written)
		assert.Equal(t, 1, summary.Skipped)
		require.Error(t, summary.FirstError)
	})

	got := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "src"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all"},
	})
	require.Len(t, got, 1)
	assert.EqualValues(t, n, got[0].Properties["count"])
}

// TestScenarioS6WithinSetExcludesEdgeLeavingSet implements spec §8's S6.
func TestScenarioS6WithinSetExcludesEdgeLeavingSet(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEdge(t, env, "1", "2", 1)
	addEdge(t, env, "2", "4", 1)

	got := execute(t, env, KindGetElementsWithinSet, GetElementsWithinSetRequest{
		Vertices:      []string{"1", "2", "3"},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Source)
	assert.Equal(t, "2", got[0].Destination)
}

// TestAggregationIdempotenceForMax is invariant 5: writing the same element
// twice under a max aggregator leaves the same post-aggregation state as
// writing it once.
func TestAggregationIdempotenceForMax(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEntity(t, env, "1", 5)
	addEntity(t, env, "1", 5)

	got := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: true, IncludeEdges: "none"},
	})
	require.Len(t, got, 1)
	assert.EqualValues(t, 5, got[0].Properties["prop"])
}

// TestDirectionFilterCorrectness is invariant 7: OUTGOING only returns edges
// whose row-first endpoint is the seed.
func TestDirectionFilterCorrectness(t *testing.T) {
	env, _ := newScenarioEnv(t)
	addEdge(t, env, "1", "2", 1) // outgoing from 1
	addEdge(t, env, "3", "1", 1) // incoming to 1

	out := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all", InOut: "outgoing"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Source)
	assert.Equal(t, "2", out[0].Destination)

	in := execute(t, env, KindGetElements, GetElementsRequest{
		Seeds:         []SeedJSON{{Kind: "entity", Vertex: "1"}},
		SelectionJSON: SelectionJSON{IncludeEntities: false, IncludeEdges: "all", InOut: "incoming"},
	})
	require.Len(t, in, 1)
	assert.Equal(t, "3", in[0].Source)
	assert.Equal(t, "1", in[0].Destination)
}

// TestAddElementsSummaryRoundTripsThroughJSON exercises the HTTP-visible
// shape of spec §9's Open Question resolution.
func TestAddElementsSummaryRoundTripsThroughJSON(t *testing.T) {
	env, _ := newScenarioEnv(t)
	raw, err := json.Marshal(AddElementsRequest{Elements: []ElementJSON{
		{Kind: "edge", Group: "e", Source: "1", Destination: "2", Directed: true, Properties: map[string]interface{}{"count": float64(2)}},
		{Kind: "entity", Group: "NoSuchGroup", Vertex: "x"},
	}})
	require.NoError(t, err)
	result, err := Execute(context.Background(), env, KindAddElements, raw)
	require.NoError(t, err)
	summary, ok := result.(AddElementsSummary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 1, summary.Skipped)
	assert.NotEmpty(t, summary.FirstError)
}
