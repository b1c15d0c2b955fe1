package functions

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtremumByBasic(t *testing.T) {
	payloads := []interface{}{"a", "b", "c"}
	keys := []interface{}{1, 5, 3}

	assert.Equal(t, "b", evaluateColumns(t, NewMaxByFunction(), payloads, keys))
	assert.Equal(t, "a", evaluateColumns(t, NewMinByFunction(), payloads, keys))

	// null keys and null payloads are ignored
	payloads = []interface{}{"a", nil, "c", "d"}
	keys = []interface{}{1, 10, nil, 2}
	assert.Equal(t, "d", evaluateColumns(t, NewMaxByFunction(), payloads, keys))
	assert.Equal(t, "a", evaluateColumns(t, NewMinByFunction(), payloads, keys))

	assert.Nil(t, evaluateColumns(t, NewMaxByFunction(), []interface{}{nil, "x"}, []interface{}{1, nil}))
	assert.Nil(t, evaluateColumns(t, NewMinByFunction(), []interface{}{}, []interface{}{}))
}

func TestExtremumByMergeOrders(t *testing.T) {
	payloads := []interface{}{"a", "b", "c"}
	keys := []interface{}{1, 5, 3}

	for _, fn := range []*ExtremumByFunction{NewMaxByFunction(), NewMinByFunction()} {
		expected := evaluateColumns(t, fn, payloads, keys)
		states := make([]State, len(keys))
		for i := range keys {
			states[i] = partialState(t, fn, NewBatch(payloads[i:i+1], keys[i:i+1]).WithOffset(uint64(i)))
		}
		for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {2, 0, 1}} {
			ordered := make([]State, len(order))
			for i, idx := range order {
				ordered[i] = states[idx]
			}
			assert.Equal(t, expected, mergeAndEvaluate(t, fn, ordered...), fn.GetName())
		}
		nested := mergeToState(t, fn, states[2], mergeToState(t, fn, states[1], states[0]))
		assert.Equal(t, expected, mergeAndEvaluate(t, fn, nested))
	}
}

func TestExtremumByTies(t *testing.T) {
	fn := NewMaxByFunction()
	payloads := []interface{}{"first", "second", "third", "low"}
	keys := []interface{}{7, 7, 7, 1}

	// one pass keeps the earliest row
	assert.Equal(t, "first", evaluateColumns(t, fn, payloads, keys))

	// positioned partials agree whatever the merge order
	early := partialState(t, fn, NewBatch(payloads[:1], keys[:1]).WithOffset(0))
	late := partialState(t, fn, NewBatch(payloads[1:], keys[1:]).WithOffset(1))
	assert.Equal(t, State{"second", 7, uint64(1)}, late)
	assert.Equal(t, "first", mergeAndEvaluate(t, fn, late, early))
	assert.Equal(t, "first", mergeAndEvaluate(t, fn, early, late))

	// unpositioned batches are numbered by the accumulator in arrival order
	acc := fn.Accumulator()
	require.NoError(t, acc.UpdateBatch(NewBatch([]interface{}{"x"}, []interface{}{3})))
	require.NoError(t, acc.UpdateBatch(NewBatch([]interface{}{"y"}, []interface{}{3})))
	result, err := acc.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, "x", result)
	state, err := acc.State()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state[2])

	// equal ordinals keep the current pair
	acc = fn.Accumulator()
	require.NoError(t, acc.MergeBatch([]State{{"kept", 3, uint64(4)}, {"other", 3, uint64(4)}}))
	result, _ = acc.Evaluate()
	assert.Equal(t, "kept", result)
}

func TestExtremumByMixedKeys(t *testing.T) {
	// keys of different numeric types compare by value
	payloads := []interface{}{"int", "float", "uint"}
	keys := []interface{}{int64(2), 2.5, uint32(1)}
	assert.Equal(t, "float", evaluateColumns(t, NewMaxByFunction(), payloads, keys))
	assert.Equal(t, "uint", evaluateColumns(t, NewMinByFunction(), payloads, keys))

	// strings order after numbers
	assert.Equal(t, "s", evaluateColumns(t, NewMaxByFunction(), []interface{}{"n", "s"}, []interface{}{100, "1"}))
}

func TestExtremumByState(t *testing.T) {
	fn := NewMinByFunction()
	schema := fn.StateFields([]types.DataType{types.String, types.Float64})
	assert.Equal(t, []string{"best_payload", "best_key", "best_ordinal"}, schema.Names())
	assert.Equal(t, types.Float64, schema[1].Type)

	empty := partialState(t, fn, NewBatch([]interface{}{}, []interface{}{}))
	assert.Equal(t, State{nil, nil, uint64(0)}, empty)

	state := partialState(t, fn, NewBatch([]interface{}{"p", "q"}, []interface{}{2.5, 0.5}).WithOffset(10))
	assert.Equal(t, State{"q", 0.5, uint64(11)}, state)

	data, err := EncodeState(schema, state)
	require.NoError(t, err)
	decoded, err := DecodeState(schema, data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
	assert.Equal(t, "q", mergeAndEvaluate(t, fn, empty, decoded))

	returnType, err := fn.ReturnType([]types.DataType{types.String, types.Int64})
	require.NoError(t, err)
	assert.Equal(t, types.String, returnType)
}

func TestExtremumByInvalid(t *testing.T) {
	acc := NewMaxByFunction().Accumulator()

	err := acc.UpdateBatch(NewBatch([]interface{}{"a"}))
	assert.True(t, errors.Is(err, ErrArgumentCount))

	err = acc.UpdateBatch(NewBatch([]interface{}{"a", "b"}, []interface{}{1}))
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, acc.MergeBatch([]State{{"a", 1, uint64(0)}}))
	invalid := []State{
		{"a", 1},
		{"a", nil, uint64(0)},
		{"b", 9, "x"},
	}
	for i, s := range invalid {
		err := acc.MergeBatch([]State{{"z", 100, uint64(0)}, s})
		require.Error(t, err, "state %d", i)
		assert.True(t, errors.Is(err, ErrInvalidState), "state %d", i)
	}
	result, err := acc.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, "a", result)

	_, err = Execute(MaxByStr, &FunctionContext{}, []interface{}{[]string{"a", "b"}, []int{1}})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	result, err = Execute("MIN_BY", &FunctionContext{}, []interface{}{[]string{"a", "b"}, []int{4, 2}})
	require.NoError(t, err)
	assert.Equal(t, "b", result)
}

func TestExtremumByNonFiniteKeys(t *testing.T) {
	fn := NewMaxByFunction()
	cold := partialState(t, fn, NewBatch([]interface{}{"cold"}, []interface{}{math.Inf(-1)}))
	warm := partialState(t, fn, NewBatch([]interface{}{"warm"}, []interface{}{5.0}).WithOffset(1))
	require.Equal(t, "warm", mergeAndEvaluate(t, fn, cold, warm))

	schemas := map[string]types.Schema{
		"untyped": fn.StateFields(nil),
		"typed":   fn.StateFields([]types.DataType{types.String, types.Float64}),
	}
	for name, schema := range schemas {
		t.Run(name, func(t *testing.T) {
			data, err := EncodeState(schema, cold)
			require.NoError(t, err)
			decoded, err := DecodeState(schema, data)
			require.NoError(t, err)
			require.IsType(t, float64(0), decoded[1])
			assert.True(t, math.IsInf(decoded[1].(float64), -1))

			assert.Equal(t, "warm", mergeAndEvaluate(t, fn, decoded, warm))
			assert.Equal(t, "warm", mergeAndEvaluate(t, fn, warm, decoded))
		})
	}

	// a NaN key outranks every number
	nan := partialState(t, fn, NewBatch([]interface{}{"odd"}, []interface{}{math.NaN()}).WithOffset(2))
	data, err := EncodeState(fn.StateFields(nil), nan)
	require.NoError(t, err)
	assert.JSONEq(t, `{"best_payload":"odd","best_key":{"$float":"NaN"},"best_ordinal":2}`, string(data))
	decoded, err := DecodeState(fn.StateFields(nil), data)
	require.NoError(t, err)
	assert.Equal(t, "odd", mergeAndEvaluate(t, fn, warm, decoded))
}
