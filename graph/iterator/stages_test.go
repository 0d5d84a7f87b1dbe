package iterator

import (
	"testing"

	"elementstore/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, groups ...*graph.GroupSchema) *graph.Schema {
	t.Helper()
	s, err := graph.NewSchema(groups...)
	require.NoError(t, err)
	return s
}

func TestGroupSelectionStagePassesEverythingForUnrestrictedView(t *testing.T) {
	view := graph.NewView()
	rows := []Row{
		{GroupName: "v"},
		{GroupName: "other", IsEdge: true},
	}
	out, err := Drain(GroupSelectionStage(view).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	assert.Len(t, out, 2, "an unrestricted view must select every group")
}

func TestGroupSelectionStageFiltersToNamedGroupsWhenViewIsRestricted(t *testing.T) {
	view := graph.NewView().WithEntityGroup("v", &graph.GroupView{})
	rows := []Row{
		{GroupName: "v"},
		{GroupName: "other"},
	}
	out, err := Drain(GroupSelectionStage(view).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v", out[0].GroupName)
}

func TestGroupSelectionStageKeepsEntityAndEdgeGroupsSeparate(t *testing.T) {
	view := graph.NewView().WithEdgeGroup("e", &graph.GroupView{})
	rows := []Row{
		{GroupName: "e", IsEdge: false}, // an entity group happens to share the name "e"
		{GroupName: "e", IsEdge: true},
	}
	out, err := Drain(GroupSelectionStage(view).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsEdge)
}

func TestAggregationStageMergesRowsSharingTheAggregationKey(t *testing.T) {
	schema := mustSchema(t, &graph.GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "count", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.SumAggregator{}},
		},
	})
	key := graph.Key{Row: []byte("r"), ColFamily: []byte("v"), ColQualifier: []byte("q"), ColVisibility: []byte("")}
	rows := []Row{
		{Key: key, GroupName: "v", Properties: graph.NewProperties().Set("count", int64(1))},
		{Key: key, GroupName: "v", Properties: graph.NewProperties().Set("count", int64(2))},
		{Key: key, GroupName: "v", Properties: graph.NewProperties().Set("count", int64(3))},
	}

	out, err := Drain(AggregationStage(schema).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	got, ok := out[0].Properties.Get("count")
	require.True(t, ok)
	assert.Equal(t, int64(6), got)
}

func TestAggregationStageLeavesDistinctKeysUnmerged(t *testing.T) {
	schema := mustSchema(t, &graph.GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "count", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Aggregator: graph.SumAggregator{}},
		},
	})
	keyA := graph.Key{Row: []byte("a"), ColFamily: []byte("v"), ColQualifier: []byte("q"), ColVisibility: []byte("")}
	keyB := graph.Key{Row: []byte("b"), ColFamily: []byte("v"), ColQualifier: []byte("q"), ColVisibility: []byte("")}
	rows := []Row{
		{Key: keyA, GroupName: "v", Properties: graph.NewProperties().Set("count", int64(1))},
		{Key: keyB, GroupName: "v", Properties: graph.NewProperties().Set("count", int64(2))},
	}

	out, err := Drain(AggregationStage(schema).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestValidationStageDropsRowsFailingAPropertyValidator(t *testing.T) {
	failValidator := validatorFunc(func(v interface{}) error { return assertError })
	schema := mustSchema(t, &graph.GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []graph.PropertyDefinition{
			{Name: "count", Type: graph.TypeLong, Serialiser: graph.Int64Serialiser{}, Validator: failValidator},
		},
	})
	rows := []Row{
		{GroupName: "v", Properties: graph.NewProperties().Set("count", int64(1))},
	}
	out, err := Drain(ValidationStage(schema).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidationStageDropsRowsWithUnknownGroup(t *testing.T) {
	schema := mustSchema(t, &graph.GroupSchema{Name: "v", VertexType: "string"})
	rows := []Row{{GroupName: "unknown"}}
	out, err := Drain(ValidationStage(schema).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDirectionStageFiltersEntitiesWhenNotIncluded(t *testing.T) {
	opts := Options{IncludeEntities: false, IncludeEdges: graph.IncludeEdgesAll, InOut: graph.IncludeEither}
	rows := []Row{{IsEdge: false}}
	out, err := Drain(DirectionStage(opts).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDirectionStageFiltersByDirectedness(t *testing.T) {
	opts := Options{IncludeEntities: true, IncludeEdges: graph.IncludeEdgesDirected, InOut: graph.IncludeEither}
	rows := []Row{
		{IsEdge: true, Marker: MarkerDirectedSourceFirst},
		{IsEdge: true, Marker: MarkerUndirected},
	}
	out, err := Drain(DirectionStage(opts).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, MarkerDirectedSourceFirst, out[0].Marker)
}

func TestDirectionStageFiltersByInOut(t *testing.T) {
	opts := Options{IncludeEntities: true, IncludeEdges: graph.IncludeEdgesAll, InOut: graph.IncludeOutgoing}
	rows := []Row{
		{IsEdge: true, Marker: MarkerDirectedSourceFirst},
		{IsEdge: true, Marker: MarkerDirectedDestFirst},
	}
	out, err := Drain(DirectionStage(opts).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, MarkerDirectedSourceFirst, out[0].Marker)
}

func TestDirectionStagePassesUndirectedEdgesRegardlessOfInOut(t *testing.T) {
	opts := Options{IncludeEntities: true, IncludeEdges: graph.IncludeEdgesAll, InOut: graph.IncludeIncoming}
	rows := []Row{{IsEdge: true, Marker: MarkerUndirected}}
	out, err := Drain(DirectionStage(opts).Wrap(NewSliceSource(rows)))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

type validatorFunc func(v interface{}) error

func (f validatorFunc) Validate(v interface{}) error { return f(v) }

var assertError = errStub{}

type errStub struct{}

func (errStub) Error() string { return "validation failed" }
