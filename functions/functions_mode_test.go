package functions

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestModeBasic(t *testing.T) {
	fn := NewModeFunction()

	tests := []struct {
		name     string
		column   []interface{}
		expected interface{}
	}{
		{"integers", []interface{}{1, 2, 2, 3, 3, 3}, int64(3)},
		{"mixed integer kinds", []interface{}{int8(4), uint16(4), 9, int64(9), uint64(9)}, int64(9)},
		{"tie picks smallest", []interface{}{"b", "a", "b", "a"}, "a"},
		{"numeric tie", []interface{}{5.5, 1.5, 5.5, 1.5, 9.0}, 1.5},
		{"single value", []interface{}{true}, true},
		{"nulls skipped", []interface{}{nil, "x", nil, nil, "y", "y"}, "y"},
		{"all null", []interface{}{nil, nil}, nil},
		{"empty", []interface{}{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, evaluateColumns(t, fn, tt.column))
		})
	}
}

func TestModePartitionInvariance(t *testing.T) {
	fn := NewModeFunction()
	column := []interface{}{"c", "a", "b", "c", "a", "b", "b", "a", "c", nil, "d"}
	expected := evaluateColumns(t, fn, column)
	assert.Equal(t, "a", expected)

	parts := [][]interface{}{column[:3], column[3:3], column[3:7], column[7:]}
	states := make([]State, len(parts))
	for i, part := range parts {
		states[i] = partialState(t, fn, NewBatch(part))
	}
	for _, order := range [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}} {
		ordered := make([]State, len(order))
		for i, idx := range order {
			ordered[i] = states[idx]
		}
		assert.Equal(t, expected, mergeAndEvaluate(t, fn, ordered...))
	}

	left := mergeToState(t, fn, mergeToState(t, fn, states[0], states[1]), states[2], states[3])
	right := mergeToState(t, fn, states[0], mergeToState(t, fn, states[1], states[2], states[3]))
	assert.Equal(t, left, right)
}

func TestModeState(t *testing.T) {
	fn := NewModeFunction()
	state := partialState(t, fn, NewBatch([]interface{}{"b", "a", "b", "c", nil}))
	assert.Equal(t, State{
		[]interface{}{"a", "b", "c"},
		[]interface{}{uint64(1), uint64(2), uint64(1)},
	}, state)

	empty := partialState(t, fn, NewBatch([]interface{}{}))
	assert.Equal(t, State{[]interface{}{}, []interface{}{}}, empty)

	// counts given as a typed slice are accepted too
	acc := fn.Accumulator()
	require.NoError(t, acc.MergeBatch([]State{
		{[]string{"x", "y"}, []uint64{1, 4}},
		{nil, nil},
		{[]interface{}{"x"}, []interface{}{uint64(5)}},
	}))
	result, err := acc.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, "x", result)
}

func TestModeStateCodec(t *testing.T) {
	fn := NewModeFunction()
	schema := fn.StateFields([]types.DataType{types.Int64})
	assert.Equal(t, types.ListOf(types.Int64), schema[0].Type)

	state := partialState(t, fn, NewBatch([]interface{}{int64(4), int64(7), int64(7)}))
	data, err := EncodeState(schema, state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":[4,7],"counts":[1,2]}`, string(data))

	decoded, err := DecodeState(schema, data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
	assert.Equal(t, int64(7), mergeAndEvaluate(t, fn, decoded))
}

func TestModeInvalidInput(t *testing.T) {
	acc := NewModeFunction().Accumulator()
	require.NoError(t, acc.UpdateBatch(NewBatch([]interface{}{"a"})))

	err := acc.UpdateBatch(NewBatch([]interface{}{"a", []int{1}}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	state, err := acc.State()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{uint64(1)}, state[1], "failed batch must not change the state")

	invalid := []State{
		{[]interface{}{"a"}},
		{[]interface{}{"a", "b"}, []interface{}{uint64(1)}},
		{[]interface{}{"a"}, []interface{}{-3}},
		{"a", []interface{}{uint64(1)}},
		{[]interface{}{nil}, []interface{}{uint64(1)}},
	}
	for i, s := range invalid {
		err := acc.MergeBatch([]State{{[]interface{}{"z"}, []interface{}{uint64(9)}}, s})
		require.Error(t, err, "state %d", i)
		assert.True(t, errors.Is(err, ErrInvalidState), "state %d", i)
	}
	result, err := acc.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, "a", result)
	assert.Greater(t, acc.Size(), 0)
}

func TestModeReferenceCrossCheck(t *testing.T) {
	x := []float64{2, 9, 4, 4, 1, 9, 4, 7, 3, 4, 8}
	want, _ := stat.Mode(x, nil)
	assert.Equal(t, want, evaluateColumns(t, NewModeFunction(), floatColumn(x...)))
}

func TestModeReturnType(t *testing.T) {
	fn := NewModeFunction()
	returnType, err := fn.ReturnType([]types.DataType{types.String})
	require.NoError(t, err)
	assert.Equal(t, types.String, returnType)

	_, err = fn.ReturnType([]types.DataType{types.String, types.String})
	assert.Error(t, err)

	result, err := Execute("MODE", &FunctionContext{}, []interface{}{[]string{"x", "y", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "y", result)
}

func TestModeNaN(t *testing.T) {
	fn := NewModeFunction()
	nan := math.NaN()

	result := evaluateColumns(t, fn, []interface{}{nan, nan, nan, 1, 1})
	require.IsType(t, float64(0), result)
	assert.True(t, math.IsNaN(result.(float64)))

	// NaN sorts after every number, so it loses ties
	assert.Equal(t, int64(2), evaluateColumns(t, fn, []interface{}{nan, 2}))

	// float32 and float64 NaN are one value
	state := partialState(t, fn, NewBatch([]interface{}{nan, float32(math.NaN()), nan}))
	require.Len(t, state[0], 1)
	assert.True(t, math.IsNaN(state[0].([]interface{})[0].(float64)))
	assert.Equal(t, []interface{}{uint64(3)}, state[1])

	merged := mergeAndEvaluate(t, fn, state)
	assert.True(t, math.IsNaN(merged.(float64)))
	assert.Equal(t, int64(1), mergeAndEvaluate(t, fn, state, partialState(t, fn, NewBatch([]interface{}{1, 1, 1, 1}))))

	// re-serializing a merged state is stable
	assert.Equal(t, 1, len(mergeToState(t, fn, state, state)[0].([]interface{})))
}

func TestModeNonFiniteStateCodec(t *testing.T) {
	fn := NewModeFunction()
	schema := fn.StateFields(nil)
	state := partialState(t, fn, NewBatch([]interface{}{math.NaN(), "NaN", math.Inf(-1), math.NaN()}))

	data, err := EncodeState(schema, state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":[{"$float":"-Inf"},{"$float":"NaN"},"NaN"],"counts":[1,2,1]}`, string(data))

	decoded, err := DecodeState(schema, data)
	require.NoError(t, err)
	values := decoded[0].([]interface{})
	assert.True(t, math.IsInf(values[0].(float64), -1))
	assert.True(t, math.IsNaN(values[1].(float64)))
	assert.Equal(t, "NaN", values[2])

	result := mergeAndEvaluate(t, fn, decoded)
	assert.True(t, math.IsNaN(result.(float64)))

	typed := fn.StateFields([]types.DataType{types.Float64})
	floats := partialState(t, fn, NewBatch([]interface{}{math.Inf(1), math.Inf(1), 2.5}))
	data, err = EncodeState(typed, floats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":[2.5,"+Inf"],"counts":[1,2]}`, string(data))
	decoded, err = DecodeState(typed, data)
	require.NoError(t, err)
	assert.True(t, math.IsInf(mergeAndEvaluate(t, fn, decoded).(float64), 1))
}
