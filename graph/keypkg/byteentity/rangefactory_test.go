package byteentity

import (
	"testing"

	"elementstore/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFactoryEntitySeedWithEntitiesOnly(t *testing.T) {
	ranges, err := RangeFactory{}.Ranges(nil, graph.EntitySeed("alice"), true, graph.IncludeEdgesNone, graph.IncludeEither)
	require.NoError(t, err)
	require.Len(t, ranges, 1)

	row, err := entityRow("alice")
	require.NoError(t, err)
	assert.Equal(t, string(row), string(ranges[0].Start))
}

func TestRangeFactoryEntitySeedWithEntitiesAndEdgesReturnsBothRanges(t *testing.T) {
	ranges, err := RangeFactory{}.Ranges(nil, graph.EntitySeed("alice"), true, graph.IncludeEdgesAll, graph.IncludeEither)
	require.NoError(t, err)
	require.Len(t, ranges, 2, "byteentity does not coalesce; entity point range and edge prefix range stay distinct")
}

func TestRangeFactoryEdgeSeedPicksMarkerByDirectedness(t *testing.T) {
	directed, err := RangeFactory{}.Ranges(nil, graph.EdgeSeed("alice", "bob", true), true, graph.IncludeEdgesAll, graph.IncludeEither)
	require.NoError(t, err)
	require.Len(t, directed, 1)
	row, err := edgeRow("alice", "bob", markerDirectedSourceFirst)
	require.NoError(t, err)
	assert.Equal(t, string(row), string(directed[0].Start))

	undirected, err := RangeFactory{}.Ranges(nil, graph.EdgeSeed("alice", "bob", false), true, graph.IncludeEdgesAll, graph.IncludeEither)
	require.NoError(t, err)
	require.Len(t, undirected, 1)
	row, err = edgeRow("alice", "bob", markerUndirected)
	require.NoError(t, err)
	assert.Equal(t, string(row), string(undirected[0].Start))
}

func TestRangeFactoryRangeSeedCoversTheWholeBoundInclusiveOfHi(t *testing.T) {
	ranges, err := RangeFactory{}.Ranges(nil, graph.RangeSeed("a", "m"), true, graph.IncludeEdgesAll, graph.IncludeEither)
	require.NoError(t, err)
	require.Len(t, ranges, 1)

	hiB, err := encodeVertex("m")
	require.NoError(t, err)
	assert.True(t, string(ranges[0].End) > string(hiB), "end must extend past hi's own encoding so hi itself is included")
}

func TestRangeFactoryRejectsSeedWithNoKindSet(t *testing.T) {
	_, err := RangeFactory{}.Ranges(nil, graph.Seed{}, true, graph.IncludeEdgesAll, graph.IncludeEither)
	assert.Error(t, err)
}

func TestPointRangeIsExclusiveJustPastTheRow(t *testing.T) {
	row, err := entityRow("alice")
	require.NoError(t, err)
	r := pointRange(row)
	assert.Equal(t, string(row), string(r.Start))
	assert.True(t, string(r.Start) < string(r.End))
}
