package functions

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorAdapterBasic(t *testing.T) {
	adapter, err := NewAccumulatorAdapter("kurtosis")
	require.NoError(t, err)
	assert.Equal(t, KurtosisStr, adapter.GetFunctionName())

	for _, v := range []interface{}{1, 2.0, nil, "3"} {
		adapter.Add(v)
	}
	assert.Nil(t, adapter.Result(), "three values are not enough")
	adapter.Add(int64(4))
	assert.InDelta(t, -1.2, adapter.Result().(float64), 1e-12)
	assert.NoError(t, adapter.Err())

	fresh := adapter.New()
	assert.Nil(t, fresh.Result())

	adapter.Reset()
	assert.Nil(t, adapter.Result())

	_, err = NewAccumulatorAdapter("unknown")
	assert.True(t, errors.Is(err, ErrFunctionNotFound))
}

func TestAccumulatorAdapterClone(t *testing.T) {
	adapter, err := NewAccumulatorAdapter(ModeStr)
	require.NoError(t, err)
	for _, v := range []string{"x", "y", "y"} {
		adapter.Add(v)
	}

	clone, err := adapter.Clone()
	require.NoError(t, err)
	assert.Equal(t, "y", clone.Result())

	clone.Add("x")
	clone.Add("x")
	assert.Equal(t, "x", clone.Result())
	assert.Equal(t, "y", adapter.Result(), "clone is independent")
}

func TestAccumulatorAdapterRows(t *testing.T) {
	adapter := NewAccumulatorAdapterFor(NewMaxByFunction())
	adapter.Add([]interface{}{"first", 7})
	adapter.Add([]interface{}{"second", 7})
	assert.Equal(t, "first", adapter.Result())

	// the row counter travels with the clone
	clone, err := adapter.Clone()
	require.NoError(t, err)
	clone.Add([]interface{}{"third", 7})
	assert.Equal(t, "first", clone.Result())
	clone.Add([]interface{}{"fourth", 8})
	assert.Equal(t, "fourth", clone.Result())

	require.NoError(t, adapter.AddRow("top", 9))
	assert.Equal(t, "top", adapter.Result())
	assert.Error(t, adapter.AddRow("only payload"))
}

func TestAccumulatorAdapterDroppedRows(t *testing.T) {
	buf := captureLog(t, logger.WARN)

	adapter := NewAccumulatorAdapterFor(NewMinByFunction())
	adapter.Add("not a row")
	adapter.Add([]interface{}{"a", 1})
	adapter.Add([]interface{}{"b"})

	err := adapter.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArgumentCount))
	assert.Equal(t, "a", adapter.Result())
	assert.Contains(t, buf.String(), "min_by: dropped row")

	skewness := NewAccumulatorAdapterFor(NewSkewnessFunction())
	skewness.Add("abc")
	assert.True(t, errors.Is(skewness.Err(), ErrInvalidArgument))

	skewness.Reset()
	assert.NoError(t, skewness.Err())
	assert.NotNil(t, skewness.Accumulator())
}
