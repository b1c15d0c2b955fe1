package aggregator

import (
	"context"
	"fmt"
	"testing"

	"github.com/rulego/streamsql-extra/logger"
	"github.com/rulego/streamsql-extra/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateParallelMatchesGroupAggregator(t *testing.T) {
	rows := sensorRows(1000, 6)
	expected := runAggregator(t, newAggregator(t, sensorFields, types.SinglePartitionConfig()), rows)

	for _, partitions := range []int{1, 2, 5, 16} {
		for _, concurrency := range []int{0, 1, 3} {
			t.Run(fmt.Sprintf("p%d_c%d", partitions, concurrency), func(t *testing.T) {
				config := types.NewConfig()
				config.Partitions = partitions
				config.MaxConcurrency = concurrency
				config.BatchSize = 32
				results, err := AggregateParallel(context.Background(), rows, []string{"device"}, sensorFields, config)
				require.NoError(t, err)
				assertResultsEqual(t, expected, results)
			})
		}
	}
}

func TestAggregateParallelTiesAcrossChunks(t *testing.T) {
	rows := []map[string]interface{}{
		{"device": "d", "temperature": 5, "status": "a"},
		{"device": "d", "temperature": 9, "status": "b"},
		{"device": "e", "temperature": 9, "status": "x"},
		{"device": "d", "temperature": 9, "status": "c"},
		{"device": "d", "temperature": 9, "status": "d"},
		{"device": "d", "temperature": 5, "status": "e"},
	}
	config := types.NewConfig()
	config.Partitions = 6
	results, err := AggregateParallel(context.Background(), rows, []string{"device"}, sensorFields[3:], config)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d", results[0]["device"])
	assert.Equal(t, "b", results[0]["hottest_status"])
	assert.Equal(t, "a", results[0]["coldest_status"])
	assert.Equal(t, "e", results[1]["device"])
}

func TestAggregateParallelEdgeCases(t *testing.T) {
	results, err := AggregateParallel(context.Background(), nil, []string{"device"}, sensorFields, types.NewConfig())
	require.NoError(t, err)
	assert.Empty(t, results)

	config := types.NewConfig()
	config.Where = "temperature > 100"
	results, err = AggregateParallel(context.Background(), sensorRows(50, 7), []string{"device"}, sensorFields, config)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = AggregateParallel(context.Background(), []map[string]interface{}{{"temperature": 1}},
		[]string{"device"}, sensorFields, types.NewConfig())
	assert.ErrorContains(t, err, "row 0: field device not found")

	_, err = AggregateParallel(context.Background(), nil, nil, []AggregationField{{Function: "nope", Args: []string{"x"}}}, types.NewConfig())
	assert.Error(t, err)

	config = types.NewConfig()
	config.BatchSize = 0
	_, err = AggregateParallel(context.Background(), nil, nil, sensorFields, config)
	assert.Error(t, err)
}

func TestAggregateParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AggregateParallel(ctx, sensorRows(100, 8), []string{"device"}, sensorFields, types.NewConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeTreeShapes(t *testing.T) {
	p, err := compilePlan([]string{"device"}, sensorFields[3:4], "")
	require.NoError(t, err)

	rows := sensorRows(64, 9)
	single, err := extractChunks(context.Background(), p, rows, types.SinglePartitionConfig())
	require.NoError(t, err)
	reference, err := accumulateChunk(context.Background(), p, single[0], map[string]uint64{}, 8, logger.NewDiscardLogger())
	require.NoError(t, err)

	for _, n := range []int{2, 3, 7, 64} {
		config := types.NewConfig()
		config.Partitions = n
		chunks, err := extractChunks(context.Background(), p, rows, config)
		require.NoError(t, err)
		partials := make([]partial, len(chunks))
		for c, ch := range chunks {
			partials[c], err = accumulateChunk(context.Background(), p, ch, map[string]uint64{}, 8, logger.NewDiscardLogger())
			require.NoError(t, err)
		}
		merged, err := mergeTree(context.Background(), p, partials, 2)
		require.NoError(t, err)
		assert.Equal(t, reference, merged, "%d chunks", n)
	}
}
