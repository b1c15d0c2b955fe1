package functions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// partialState runs one batch through a fresh accumulator and returns its state
func partialState(t *testing.T, fn AggregateFunction, batch *Batch) State {
	t.Helper()
	acc := fn.Accumulator()
	require.NoError(t, acc.UpdateBatch(batch))
	state, err := acc.State()
	require.NoError(t, err)
	return state
}

// mergeToState merges states into a fresh accumulator and returns the combined state
func mergeToState(t *testing.T, fn AggregateFunction, states ...State) State {
	t.Helper()
	acc := fn.Accumulator()
	require.NoError(t, acc.MergeBatch(states))
	state, err := acc.State()
	require.NoError(t, err)
	return state
}

// mergeAndEvaluate merges states into a fresh accumulator and evaluates it
func mergeAndEvaluate(t *testing.T, fn AggregateFunction, states ...State) interface{} {
	t.Helper()
	acc := fn.Accumulator()
	require.NoError(t, acc.MergeBatch(states))
	result, err := acc.Evaluate()
	require.NoError(t, err)
	return result
}
