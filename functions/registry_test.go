package functions

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/logger"
	"github.com/rulego/streamsql-extra/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog routes the default logger into a buffer for the duration of the test
func captureLog(t *testing.T, level logger.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := logger.GetDefault()
	logger.SetDefault(logger.NewLogger(level, &buf))
	t.Cleanup(func() { logger.SetDefault(previous) })
	return &buf
}

func TestRegistryRegister(t *testing.T) {
	reg := NewFunctionRegistry()

	previous, err := reg.Register(NewKurtosisFunction())
	require.NoError(t, err)
	assert.Nil(t, previous)

	fn, ok := reg.Get("KURTOSIS")
	require.True(t, ok)
	assert.Equal(t, KurtosisStr, fn.GetName())
	assert.Len(t, reg.GetByType(TypeAggregation), 1)

	replacement := NewKurtosisFunction()
	previous, err = reg.Register(replacement)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.NotSame(t, replacement, previous)

	fn, _ = reg.Get(KurtosisStr)
	assert.Same(t, replacement, fn)
	assert.Len(t, reg.GetByType(TypeAggregation), 1, "replaced function leaves its category")

	_, err = reg.Register(nil)
	assert.Error(t, err)
	_, err = reg.Register(&ModeFunction{BaseFunction: NewBaseFunction("", TypeAggregation, "", "", types.Exact(types.Any))})
	assert.Error(t, err)
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewFunctionRegistry()
	require.NoError(t, RegisterAllExtraFunctions(reg))
	assert.Len(t, reg.ListAll(), 6)

	assert.True(t, reg.Unregister("Mode"))
	assert.False(t, reg.Unregister("mode"))
	_, ok := reg.Get(ModeStr)
	assert.False(t, ok)
	assert.Len(t, reg.GetByType(TypeAggregation), 5)

	// the listing is a copy
	all := reg.ListAll()
	delete(all, KurtosisStr)
	_, ok = reg.Get(KurtosisStr)
	assert.True(t, ok)
}

func TestRegisterAllExtraFunctions(t *testing.T) {
	buf := captureLog(t, logger.DEBUG)

	reg := NewFunctionRegistry()
	require.NoError(t, RegisterAllExtraFunctions(reg))
	assert.NotContains(t, buf.String(), "Overwrite existing aggregate function")

	for _, name := range []string{KurtosisStr, KurtosisPopStr, SkewnessStr, ModeStr, MaxByStr, MinByStr} {
		fn, ok := reg.Get(name)
		require.True(t, ok, name)
		_, isAggregate := fn.(AggregateFunction)
		assert.True(t, isAggregate, name)
		assert.Equal(t, TypeAggregation, fn.GetType())
		assert.NotEmpty(t, fn.GetDescription())
	}

	// a second registration replaces every function and reports each one
	require.NoError(t, RegisterAllExtraFunctions(reg))
	for _, name := range []string{KurtosisStr, KurtosisPopStr, SkewnessStr, ModeStr, MaxByStr, MinByStr} {
		assert.Contains(t, buf.String(), "Overwrite existing aggregate function: "+name+"\n")
	}
	assert.Len(t, reg.ListAll(), 6)
}

func TestRegisterAllExtraFunctionsQuietAtInfo(t *testing.T) {
	buf := captureLog(t, logger.INFO)
	reg := NewFunctionRegistry()
	require.NoError(t, RegisterAllExtraFunctions(reg))
	require.NoError(t, RegisterAllExtraFunctions(reg))
	assert.Empty(t, buf.String())
}

type failingRegistry struct{}

func (failingRegistry) Register(fn Function) (Function, error) {
	return nil, errors.New("read-only registry")
}

func TestRegisterAllExtraFunctionsError(t *testing.T) {
	err := RegisterAllExtraFunctions(failingRegistry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only registry")
}

func TestGlobalRegistry(t *testing.T) {
	for _, name := range []string{KurtosisStr, KurtosisPopStr, SkewnessStr, ModeStr, MaxByStr, MinByStr} {
		assert.True(t, IsAggregateFunction(name), name)
		acc, err := CreateAccumulator(name)
		require.NoError(t, err)
		assert.NotNil(t, acc)
	}
	assert.Same(t, globalRegistry, GlobalRegistry())

	_, err := GetAggregate("no_such_function")
	assert.True(t, errors.Is(err, ErrFunctionNotFound))
	_, err = Execute("no_such_function", &FunctionContext{}, nil)
	assert.True(t, errors.Is(err, ErrFunctionNotFound))
}
