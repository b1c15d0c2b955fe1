package functions

import (
	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/logger"
)

// AccumulatorAdapter drives an accumulator one row at a time, in the
// New/Add/Result/Reset/Clone style of incremental aggregators.
// It numbers rows itself so ties in max_by/min_by keep the first row added.
type AccumulatorAdapter struct {
	fn   AggregateFunction
	acc  Accumulator
	rows uint64
	err  error
}

// NewAccumulatorAdapter creates an adapter for a registered aggregate
func NewAccumulatorAdapter(name string) (*AccumulatorAdapter, error) {
	fn, err := GetAggregate(name)
	if err != nil {
		return nil, err
	}
	return NewAccumulatorAdapterFor(fn), nil
}

// NewAccumulatorAdapterFor creates an adapter for fn
func NewAccumulatorAdapterFor(fn AggregateFunction) *AccumulatorAdapter {
	return &AccumulatorAdapter{fn: fn, acc: fn.Accumulator()}
}

// New returns an empty adapter for the same function
func (a *AccumulatorAdapter) New() *AccumulatorAdapter {
	return NewAccumulatorAdapterFor(a.fn)
}

// AddRow feeds one row, one value per declared argument
func (a *AccumulatorAdapter) AddRow(args ...interface{}) error {
	columns := make([][]interface{}, len(args))
	for i, arg := range args {
		columns[i] = []interface{}{arg}
	}
	if err := a.acc.UpdateBatch(NewBatch(columns...).WithOffset(a.rows)); err != nil {
		return err
	}
	a.rows++
	return nil
}

// Add feeds one row. Functions with several arguments expect value to be a
// []interface{} holding one value per argument. Rows that cannot be
// consumed are dropped; the first such error is kept for Err.
func (a *AccumulatorAdapter) Add(value interface{}) {
	var err error
	if arity := a.fn.Signature().Arity(); arity == 1 {
		err = a.AddRow(value)
	} else if row, ok := value.([]interface{}); ok {
		err = a.AddRow(row...)
	} else {
		err = errors.Wrapf(ErrArgumentCount, "%s expects %d values per row, got %T", a.fn.GetName(), arity, value)
	}
	if err != nil {
		logger.Warn("%s: dropped row: %v", a.fn.GetName(), err)
		if a.err == nil {
			a.err = err
		}
	}
}

// Result evaluates the accumulator, nil when undefined
func (a *AccumulatorAdapter) Result() interface{} {
	result, err := a.acc.Evaluate()
	if err != nil {
		logger.Error("%s: evaluate: %v", a.fn.GetName(), err)
		return nil
	}
	return result
}

// Reset discards all state
func (a *AccumulatorAdapter) Reset() {
	a.acc = a.fn.Accumulator()
	a.rows = 0
	a.err = nil
}

// Clone copies the adapter through the partial-state protocol
func (a *AccumulatorAdapter) Clone() (*AccumulatorAdapter, error) {
	state, err := a.acc.State()
	if err != nil {
		return nil, err
	}
	clone := a.New()
	if err := clone.acc.MergeBatch([]State{state}); err != nil {
		return nil, err
	}
	clone.rows = a.rows
	clone.err = a.err
	return clone, nil
}

// Accumulator exposes the wrapped accumulator
func (a *AccumulatorAdapter) Accumulator() Accumulator {
	return a.acc
}

// GetFunctionName returns the underlying function name
func (a *AccumulatorAdapter) GetFunctionName() string {
	return a.fn.GetName()
}

// Err returns the first error raised by Add
func (a *AccumulatorAdapter) Err() error {
	return a.err
}
