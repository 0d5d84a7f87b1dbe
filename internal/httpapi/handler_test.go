package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elementstore/graph"
	"elementstore/graph/keypkg/byteentity"
	"elementstore/operation"
	"elementstore/retriever"
	"elementstore/store"
	"elementstore/writer"
)

// memStore is a tiny in-memory store.Scanner + store.BatchWriter, just
// enough to drive the router end to end without a real tablet engine.
type memStore struct {
	entries []store.RawEntry
}

func (m *memStore) WriteBatch(ctx context.Context, mutations []store.Mutation) error {
	for _, mu := range mutations {
		m.entries = append(m.entries, store.RawEntry{Key: mu.Key, Value: mu.Value})
	}
	sort.SliceStable(m.entries, func(i, j int) bool {
		return bytes.Compare(m.entries[i].Key.Row, m.entries[j].Key.Row) < 0
	})
	return nil
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

func testEnv(t *testing.T) *operation.Environment {
	t.Helper()
	entity := &graph.GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "prop", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.MaxAggregator{}},
		},
	}
	edge := &graph.GroupSchema{
		Name:            "e",
		IsEdge:          true,
		SourceType:      "string",
		DestinationType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "count", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.SumAggregator{}},
		},
	}
	schema, err := graph.NewSchema(entity, edge)
	require.NoError(t, err)
	kp, err := byteentity.New(schema)
	require.NoError(t, err)
	ms := &memStore{}
	return &operation.Environment{
		Schema:    schema,
		KeyPkg:    kp,
		Retriever: retriever.New(schema, kp, ms),
		Writer:    writer.New(kp, ms, zap.NewNop(), nil),
		Views:     map[string]*graph.View{},
	}
}

// TestChainEndpointPipesAdjacentSeedsIntoGetElements drives POST /chains
// end to end: a GetAdjacentEntitySeeds step followed by a GetElements step
// that names no seeds of its own must receive the first step's seeds, not
// run against nothing and not just return the first step's own result
// twice.
func TestChainEndpointPipesAdjacentSeedsIntoGetElements(t *testing.T) {
	env := testEnv(t)
	router := NewRouter(env, zap.NewNop())

	addBody, err := json.Marshal(operation.AddElementsRequest{Elements: []operation.ElementJSON{
		{Kind: "edge", Group: "e", Source: "1", Destination: "2", Directed: true, Properties: map[string]interface{}{"count": float64(3)}},
		{Kind: "edge", Group: "e", Source: "2", Destination: "3", Directed: true, Properties: map[string]interface{}{"count": float64(1)}},
	}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/operations/AddElements", bytes.NewReader(addBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	chainBody, err := json.Marshal(map[string]interface{}{
		"steps": []map[string]interface{}{
			{
				"kind": string(operation.KindGetAdjacentEntitySeeds),
				"body": operation.GetAdjacentEntitySeedsRequest{
					Seeds: []operation.SeedJSON{{Kind: "entity", Vertex: "1"}},
					InOut: "outgoing",
				},
			},
			{
				"kind": string(operation.KindGetElements),
				"body": operation.SelectionJSON{IncludeEdges: "all"},
			},
		},
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/chains", bytes.NewReader(chainBody))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var elements []operation.ElementJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &elements))

	var pairs []string
	for _, el := range elements {
		pairs = append(pairs, el.Source+"-"+el.Destination)
	}
	assert.ElementsMatch(t, []string{"1-2", "2-3"}, pairs)
}

// TestChainEndpointRejectsUnpipeableResult surfaces an OperationError
// rather than silently dropping a step's output when the next step's kind
// can't consume the predecessor's result shape.
func TestChainEndpointRejectsUnpipeableResult(t *testing.T) {
	env := testEnv(t)
	router := NewRouter(env, zap.NewNop())

	chainBody, err := json.Marshal(map[string]interface{}{
		"steps": []map[string]interface{}{
			{
				"kind": string(operation.KindSummariseGroupOverRanges),
				"body": operation.SummariseGroupOverRangesRequest{Group: "e", Ranges: []operation.RangeJSON{{Lo: "", Hi: "\xff"}}},
			},
			{
				"kind": string(operation.KindGetAdjacentEntitySeeds),
				"body": operation.SelectionJSON{},
			},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chains", bytes.NewReader(chainBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
