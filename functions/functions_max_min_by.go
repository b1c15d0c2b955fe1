package functions

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/rulego/streamsql-extra/utils/compare"
)

// ExtremumByFunction implements max_by(payload, key) and min_by(payload, key):
// the payload of the row holding the largest (smallest) key.
//
// Equal keys resolve to the row with the smaller input position. Hosts that
// split one input across accumulators must position their batches
// (Batch.WithOffset) for the result to be independent of the merge shape.
type ExtremumByFunction struct {
	*BaseFunction
	max bool
}

func NewMaxByFunction() *ExtremumByFunction {
	return &ExtremumByFunction{
		BaseFunction: NewBaseFunction(MaxByStr, TypeAggregation, "selection",
			"Returns the value of the first argument for the row with the maximum value of the second argument",
			types.Exact(types.Any, types.Any)),
		max: true,
	}
}

func NewMinByFunction() *ExtremumByFunction {
	return &ExtremumByFunction{
		BaseFunction: NewBaseFunction(MinByStr, TypeAggregation, "selection",
			"Returns the value of the first argument for the row with the minimum value of the second argument",
			types.Exact(types.Any, types.Any)),
	}
}

func (f *ExtremumByFunction) Validate(args []interface{}) error {
	return validateColumns(f.BaseFunction, args)
}

func (f *ExtremumByFunction) Execute(ctx *FunctionContext, args []interface{}) (interface{}, error) {
	return executeAggregate(f, args)
}

func (f *ExtremumByFunction) ReturnType(argTypes []types.DataType) (types.DataType, error) {
	if err := f.checkArgTypes(argTypes); err != nil {
		return "", err
	}
	return argTypes[0], nil
}

func (f *ExtremumByFunction) StateFields(argTypes []types.DataType) types.Schema {
	payload, key := types.Any, types.Any
	if len(argTypes) == 2 {
		payload, key = argTypes[0], argTypes[1]
	}
	return types.Schema{
		types.NewField("best_payload", payload),
		types.NewField("best_key", key),
		types.NewField("best_ordinal", types.UInt64),
	}
}

func (f *ExtremumByFunction) Accumulator() Accumulator {
	return &extremumAccumulator{fn: f}
}

type extremumAccumulator struct {
	fn *ExtremumByFunction
	// valid is set once a pair has been seen; payload and key are only meaningful then
	valid   bool
	payload interface{}
	key     interface{}
	ordinal uint64
	// rows numbers unpositioned input
	rows uint64
}

// better reports whether (key, ordinal) should replace the current pair
func (a *extremumAccumulator) better(key interface{}, ordinal uint64) bool {
	if !a.valid {
		return true
	}
	c := compare.Compare(key, a.key)
	if !a.fn.max {
		c = -c
	}
	if c != 0 {
		return c > 0
	}
	return ordinal < a.ordinal
}

func (a *extremumAccumulator) offer(payload, key interface{}, ordinal uint64) {
	if a.better(key, ordinal) {
		a.valid = true
		a.payload = payload
		a.key = key
		a.ordinal = ordinal
	}
}

func (a *extremumAccumulator) UpdateBatch(batch *Batch) error {
	if err := batch.check(2); err != nil {
		return err
	}
	base := a.rows
	if batch.Positioned {
		base = batch.Offset
	}
	payloads, keys := batch.Columns[0], batch.Columns[1]
	for i := range keys {
		if keys[i] == nil || payloads[i] == nil {
			continue
		}
		a.offer(payloads[i], keys[i], base+uint64(i))
	}
	a.rows += uint64(len(keys))
	return nil
}

func (a *extremumAccumulator) MergeBatch(states []State) error {
	type candidate struct {
		payload, key interface{}
		ordinal      uint64
	}
	candidates := make([]candidate, 0, len(states))
	for i, state := range states {
		if len(state) != 3 {
			return errors.Wrapf(ErrInvalidState, "%s: state %d: expected 3 fields, got %d", a.fn.GetName(), i, len(state))
		}
		if state[0] == nil && state[1] == nil {
			continue
		}
		if state[0] == nil || state[1] == nil {
			return errors.Wrapf(ErrInvalidState, "%s: state %d: payload and key must both be set", a.fn.GetName(), i)
		}
		ordinal, err := stateUint64(state[2])
		if err != nil {
			return errors.Wrapf(err, "%s: state %d", a.fn.GetName(), i)
		}
		candidates = append(candidates, candidate{payload: state[0], key: state[1], ordinal: ordinal})
	}
	for _, c := range candidates {
		a.offer(c.payload, c.key, c.ordinal)
	}
	return nil
}

func (a *extremumAccumulator) Evaluate() (interface{}, error) {
	if !a.valid {
		return nil, nil
	}
	return a.payload, nil
}

func (a *extremumAccumulator) State() (State, error) {
	if !a.valid {
		return State{nil, nil, uint64(0)}, nil
	}
	return State{a.payload, a.key, a.ordinal}, nil
}

func (a *extremumAccumulator) Size() int {
	return int(unsafe.Sizeof(*a))
}
