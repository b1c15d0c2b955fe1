package functions

import (
	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
)

// Accumulator is the streaming state of one aggregate computation.
//
// An accumulator is owned by a single goroutine. Parallel computations use
// one accumulator per partition and combine them with State and MergeBatch,
// which may be applied in any order and any tree shape.
type Accumulator interface {
	// UpdateBatch folds a batch of input rows into the state. Rows with
	// null arguments are skipped. On error the state is left unchanged.
	UpdateBatch(batch *Batch) error
	// MergeBatch folds partial states produced by State into this state.
	// On error the state is left unchanged.
	MergeBatch(states []State) error
	// Evaluate derives the final value. Statistically undefined results
	// are returned as nil, not as an error. The state is not modified.
	Evaluate() (interface{}, error)
	// State returns the partial state in the order of the declared state fields
	State() (State, error)
	// Size reports the approximate memory held by the accumulator in bytes
	Size() int
}

// AggregateFunction is a Function backed by an Accumulator
type AggregateFunction interface {
	Function
	// Signature returns the declared argument types
	Signature() types.Signature
	// ReturnType resolves the result type for the given argument types
	ReturnType(argTypes []types.DataType) (types.DataType, error)
	// StateFields returns the partial-state schema for the given argument types
	StateFields(argTypes []types.DataType) types.Schema
	// Accumulator creates a fresh, empty accumulator
	Accumulator() Accumulator
}

// CreateAccumulator creates an empty accumulator for a registered aggregate
func CreateAccumulator(name string) (Accumulator, error) {
	fn, err := GetAggregate(name)
	if err != nil {
		return nil, err
	}
	return fn.Accumulator(), nil
}

// GetAggregate looks up a registered aggregate function
func GetAggregate(name string) (AggregateFunction, error) {
	fn, exists := Get(name)
	if !exists {
		return nil, errors.Wrapf(ErrFunctionNotFound, "aggregate function %s", name)
	}
	aggFn, ok := fn.(AggregateFunction)
	if !ok {
		return nil, errors.Wrapf(ErrNotAggregate, "function %s", name)
	}
	return aggFn, nil
}

// IsAggregateFunction checks if a function name is an aggregate function
func IsAggregateFunction(name string) bool {
	_, err := GetAggregate(name)
	return err == nil
}

// executeAggregate runs fn over whole columns in a single pass.
// Every argument must be a slice holding one column.
func executeAggregate(fn AggregateFunction, args []interface{}) (interface{}, error) {
	if err := fn.Validate(args); err != nil {
		return nil, err
	}
	columns := make([][]interface{}, len(args))
	for i, arg := range args {
		column, err := ToColumn(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s argument %d", fn.GetName(), i+1)
		}
		columns[i] = column
	}
	acc := fn.Accumulator()
	if err := acc.UpdateBatch(NewBatch(columns...)); err != nil {
		return nil, err
	}
	return acc.Evaluate()
}

// validateColumns is the Validate implementation shared by the aggregates
func validateColumns(bf *BaseFunction, args []interface{}) error {
	if err := bf.ValidateArgCount(args); err != nil {
		return err
	}
	length := -1
	for i, arg := range args {
		column, err := ToColumn(arg)
		if err != nil {
			return errors.Wrapf(err, "function %s argument %d", bf.GetName(), i+1)
		}
		if length >= 0 && len(column) != length {
			return errors.Wrapf(ErrInvalidArgument, "function %s: argument columns differ in length (%d vs %d)",
				bf.GetName(), length, len(column))
		}
		length = len(column)
	}
	return nil
}
