package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaValidatesEntityGroup(t *testing.T) {
	_, err := NewSchema(&GroupSchema{Name: "v"})
	require.Error(t, err, "entity group without a vertex type must be rejected")
}

func TestNewSchemaValidatesEdgeGroup(t *testing.T) {
	_, err := NewSchema(&GroupSchema{Name: "e", IsEdge: true})
	require.Error(t, err, "edge group without source/destination types must be rejected")
}

func TestNewSchemaRejectsDuplicateGroupNames(t *testing.T) {
	g := &GroupSchema{Name: "v", VertexType: "string"}
	_, err := NewSchema(g, &GroupSchema{Name: "v", VertexType: "string"})
	require.Error(t, err)
}

func TestNewSchemaRejectsDuplicatePropertyNames(t *testing.T) {
	g := &GroupSchema{
		Name:       "v",
		VertexType: "string",
		Properties: []PropertyDefinition{
			{Name: "p", Type: TypeString, Serialiser: StringSerialiser{}},
			{Name: "p", Type: TypeString, Serialiser: StringSerialiser{}},
		},
	}
	_, err := NewSchema(g)
	require.Error(t, err)
}

func TestNewSchemaRejectsUnknownGroupByProperty(t *testing.T) {
	g := &GroupSchema{
		Name:       "v",
		VertexType: "string",
		GroupBy:    []string{"missing"},
	}
	_, err := NewSchema(g)
	require.Error(t, err)
}

func TestGroupSchemaNonGroupByAndGroupByPropertiesPartition(t *testing.T) {
	g := &GroupSchema{
		Name:       "e",
		IsEdge:     true,
		SourceType: "string", DestinationType: "string",
		Properties: []PropertyDefinition{
			{Name: "label", Type: TypeString, Serialiser: StringSerialiser{}},
			{Name: "weight", Type: TypeLong, Serialiser: Int64Serialiser{}, Aggregator: SumAggregator{}},
		},
		GroupBy: []string{"label"},
	}
	schema, err := NewSchema(g)
	require.NoError(t, err)
	got, _ := schema.Group("e")

	nonGroupBy := got.NonGroupByProperties()
	require.Len(t, nonGroupBy, 1)
	assert.Equal(t, "weight", nonGroupBy[0].Name)

	groupBy := got.GroupByProperties()
	require.Len(t, groupBy, 1)
	assert.Equal(t, "label", groupBy[0].Name)
}

func TestSchemaEntityAndEdgeGroupsPartition(t *testing.T) {
	v := &GroupSchema{Name: "v", VertexType: "string"}
	e := &GroupSchema{Name: "e", IsEdge: true, SourceType: "string", DestinationType: "string"}
	schema, err := NewSchema(v, e)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"v"}, schema.EntityGroups())
	assert.ElementsMatch(t, []string{"e"}, schema.EdgeGroups())
}

func TestMustGroupPanicsOnUnknownGroup(t *testing.T) {
	schema, err := NewSchema(&GroupSchema{Name: "v", VertexType: "string"})
	require.NoError(t, err)
	assert.Panics(t, func() { schema.MustGroup("nope") })
}
