package functions

import (
	"math"
	"sort"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/rulego/streamsql-extra/utils/compare"
)

// modeEntryBytes approximates the map cost of one distinct value
const modeEntryBytes = int(unsafe.Sizeof(interface{}(nil))+unsafe.Sizeof(uint64(0))) + 16

// ModeFunction returns the most frequent value. Ties resolve to the value
// that sorts first in the natural ordering of utils/compare, which does not
// depend on input or merge order. Integers are reported as int64.
type ModeFunction struct {
	*BaseFunction
}

func NewModeFunction() *ModeFunction {
	return &ModeFunction{
		BaseFunction: NewBaseFunction(ModeStr, TypeAggregation, "statistical",
			"Returns the most frequent value, the smallest one on ties",
			types.Exact(types.Any)),
	}
}

func (f *ModeFunction) Validate(args []interface{}) error {
	return validateColumns(f.BaseFunction, args)
}

func (f *ModeFunction) Execute(ctx *FunctionContext, args []interface{}) (interface{}, error) {
	return executeAggregate(f, args)
}

func (f *ModeFunction) ReturnType(argTypes []types.DataType) (types.DataType, error) {
	if err := f.checkArgTypes(argTypes); err != nil {
		return "", err
	}
	return argTypes[0], nil
}

func (f *ModeFunction) StateFields(argTypes []types.DataType) types.Schema {
	elem := types.Any
	if len(argTypes) == 1 {
		elem = argTypes[0]
	}
	return types.Schema{
		types.NewField("values", types.ListOf(elem)),
		types.NewField("counts", types.ListOf(types.UInt64)),
	}
}

func (f *ModeFunction) Accumulator() Accumulator {
	return &modeAccumulator{counts: make(map[interface{}]uint64)}
}

type modeAccumulator struct {
	// keys are normalized values, NaN is stored as nanKey
	counts map[interface{}]uint64
}

// nanKey stands in for NaN, which never equals itself as a map key
type nanKey struct{}

// external turns a counting key back into the value it stands for
func external(k interface{}) interface{} {
	if _, ok := k.(nanKey); ok {
		return math.NaN()
	}
	return k
}

func (a *modeAccumulator) UpdateBatch(batch *Batch) error {
	if err := batch.check(1); err != nil {
		return err
	}
	column := batch.Columns[0]
	for i, v := range column {
		if !compare.IsComparable(v) {
			return errors.Wrapf(ErrInvalidArgument, "%s: row %d: %T values cannot be counted", ModeStr, i, v)
		}
	}
	for _, v := range column {
		if v != nil {
			a.counts[normalize(v)]++
		}
	}
	return nil
}

func (a *modeAccumulator) MergeBatch(states []State) error {
	type partial struct {
		values []interface{}
		counts []uint64
	}
	partials := make([]partial, 0, len(states))
	for i, state := range states {
		values, counts, err := decodeModeState(state)
		if err != nil {
			return errors.Wrapf(err, "%s: state %d", ModeStr, i)
		}
		partials = append(partials, partial{values: values, counts: counts})
	}
	for _, p := range partials {
		for i, v := range p.values {
			if p.counts[i] > 0 {
				a.counts[normalize(v)] += p.counts[i]
			}
		}
	}
	return nil
}

// normalize maps the integer kinds onto int64 (uint64 above its range),
// float32 onto float64 and every NaN onto nanKey, so one value is counted
// once whatever Go type or encoding it arrived in
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return normalize(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
	case float32:
		return normalize(float64(x))
	case float64:
		if math.IsNaN(x) {
			return nanKey{}
		}
	}
	return v
}

func decodeModeState(state State) ([]interface{}, []uint64, error) {
	if len(state) != 2 {
		return nil, nil, errors.Wrapf(ErrInvalidState, "expected 2 fields, got %d", len(state))
	}
	if state[0] == nil && state[1] == nil {
		return nil, nil, nil
	}
	values, err := ToColumn(state[0])
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidState, err.Error())
	}
	rawCounts, err := ToColumn(state[1])
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidState, err.Error())
	}
	if len(values) != len(rawCounts) {
		return nil, nil, errors.Wrapf(ErrInvalidState, "%d values but %d counts", len(values), len(rawCounts))
	}
	counts := make([]uint64, len(rawCounts))
	for i, c := range rawCounts {
		if values[i] == nil || !compare.IsComparable(values[i]) {
			return nil, nil, errors.Wrapf(ErrInvalidState, "value %d (%T) cannot be counted", i, values[i])
		}
		if counts[i], err = stateUint64(c); err != nil {
			return nil, nil, err
		}
	}
	return values, counts, nil
}

func (a *modeAccumulator) Evaluate() (interface{}, error) {
	var (
		best      interface{}
		bestCount uint64
	)
	for k, c := range a.counts {
		v := external(k)
		if c > bestCount || (c == bestCount && compare.Less(v, best)) {
			best, bestCount = v, c
		}
	}
	if bestCount == 0 {
		return nil, nil
	}
	return best, nil
}

// State lists the distinct values in natural order with their counts
func (a *modeAccumulator) State() (State, error) {
	keys := make([]interface{}, 0, len(a.counts))
	for k := range a.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return compare.Less(external(keys[i]), external(keys[j])) })
	values := make([]interface{}, len(keys))
	counts := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = external(k)
		counts[i] = a.counts[k]
	}
	return State{values, counts}, nil
}

func (a *modeAccumulator) Size() int {
	return int(unsafe.Sizeof(*a)) + len(a.counts)*modeEntryBytes
}
