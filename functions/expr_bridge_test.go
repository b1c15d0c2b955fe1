package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprBridgeAggregates(t *testing.T) {
	reg := NewFunctionRegistry()
	require.NoError(t, RegisterAllExtraFunctions(reg))
	bridge := NewExprBridge(reg)

	data := map[string]interface{}{
		"readings": []float64{1, 2, 3, 4},
		"names":    []interface{}{"a", "b", "c"},
		"scores":   []interface{}{1, 5, 3},
		"colors":   []string{"red", "blue", "red"},
	}

	result, err := bridge.Evaluate("kurtosis(readings)", data)
	require.NoError(t, err)
	assert.InDelta(t, -1.2, result.(float64), 1e-12)

	result, err = bridge.Evaluate("MAX_BY(names, scores)", data)
	require.NoError(t, err)
	assert.Equal(t, "b", result)

	result, err = bridge.Evaluate("min_by(names, scores)", data)
	require.NoError(t, err)
	assert.Equal(t, "a", result)

	result, err = bridge.Evaluate(`mode(colors) == "red"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = bridge.Evaluate("skewness(readings[:2])", data)
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = bridge.Evaluate("kurtosis(", data)
	assert.Error(t, err)

	_, err = bridge.Evaluate("kurtosis(names)", data)
	assert.Error(t, err)
}

func TestExprBridgeCache(t *testing.T) {
	reg := NewFunctionRegistry()
	require.NoError(t, RegisterAllExtraFunctions(reg))
	bridge := NewExprBridge(reg)

	first, err := bridge.Compile("mode(values)")
	require.NoError(t, err)
	second, err := bridge.Compile("mode(values)")
	require.NoError(t, err)
	assert.Same(t, first, second)

	bridge.Invalidate()
	third, err := bridge.Compile("mode(values)")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestGlobalExprBridge(t *testing.T) {
	assert.Same(t, GetExprBridge(), GetExprBridge())

	result, err := EvaluateWithBridge("kurtosis_pop(x)", map[string]interface{}{"x": []int{1, 3}})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, result.(float64), 1e-12)
}
