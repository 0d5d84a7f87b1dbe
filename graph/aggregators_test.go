package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumAggregatorAddsInt64Operands(t *testing.T) {
	out, err := SumAggregator{}.Aggregate(int64(2), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)
}

func TestSumAggregatorWidensToFloat64WhenEitherOperandIsFloat(t *testing.T) {
	out, err := SumAggregator{}.Aggregate(int64(2), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)

	out, err = SumAggregator{}.Aggregate(1.5, int64(2))
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)
}

func TestSumAggregatorAcceptsPlainIntOperands(t *testing.T) {
	out, err := SumAggregator{}.Aggregate(2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)
}

func TestSumAggregatorRejectsNonNumericOperand(t *testing.T) {
	_, err := SumAggregator{}.Aggregate("x", int64(1))
	assert.Error(t, err)

	_, err = SumAggregator{}.Aggregate(int64(1), "x")
	assert.Error(t, err)
}

func TestMaxAggregatorKeepsLargerInt64Operand(t *testing.T) {
	out, err := MaxAggregator{}.Aggregate(int64(5), int64(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), out)

	out, err = MaxAggregator{}.Aggregate(int64(9), int64(5))
	require.NoError(t, err)
	assert.Equal(t, int64(9), out)
}

func TestMaxAggregatorWidensToFloat64WhenWinnerIsFloat(t *testing.T) {
	out, err := MaxAggregator{}.Aggregate(int64(2), 3.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)

	out, err = MaxAggregator{}.Aggregate(3.5, int64(2))
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)
}

func TestMaxAggregatorRejectsNonNumericOperand(t *testing.T) {
	_, err := MaxAggregator{}.Aggregate("x", int64(1))
	assert.Error(t, err)
}
