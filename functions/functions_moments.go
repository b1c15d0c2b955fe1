package functions

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/spf13/cast"
)

// rawMoments holds running power sums of the observed values.
// Derived statistics are only computed at finalization.
type rawMoments struct {
	count   uint64
	sum     float64
	sumSqr  float64
	sumCub  float64
	sumFour float64
}

// add folds v into the sums up to the given power
func (m *rawMoments) add(v float64, order int) {
	sq := v * v
	m.count++
	m.sum += v
	m.sumSqr += sq
	m.sumCub += sq * v
	if order >= 4 {
		m.sumFour += sq * sq
	}
}

func (m *rawMoments) merge(o rawMoments) {
	m.count += o.count
	m.sum += o.sum
	m.sumSqr += o.sumSqr
	m.sumCub += o.sumCub
	m.sumFour += o.sumFour
}

// m2 is the population variance
func (m *rawMoments) m2() float64 {
	inv := 1 / float64(m.count)
	return (m.sumSqr - m.sum*m.sum*inv) * inv
}

// m3 is the third central moment
func (m *rawMoments) m3() float64 {
	inv := 1 / float64(m.count)
	return inv * (m.sumCub - 3*m.sumSqr*m.sum*inv + 2*math.Pow(m.sum, 3)*inv*inv)
}

// m4 is the fourth central moment
func (m *rawMoments) m4() float64 {
	inv := 1 / float64(m.count)
	return inv * (m.sumFour -
		4*m.sumCub*m.sum*inv +
		6*m.sumSqr*m.sum*m.sum*inv*inv -
		3*math.Pow(m.sum, 4)*inv*inv*inv)
}

// excessKurtosis is the bias-corrected sample excess kurtosis (Fisher's G2)
func excessKurtosis(m *rawMoments) (float64, bool) {
	m2 := m.m2()
	if m2 <= 0 {
		return 0, false
	}
	n := float64(m.count)
	numerator := (n - 1) * ((n+1)*m.m4()/(m2*m2) - 3*(n-1))
	denominator := (n - 2) * (n - 3)
	return numerator / denominator, true
}

// populationKurtosis is m4/m2² - 3 without sample-size correction
func populationKurtosis(m *rawMoments) (float64, bool) {
	m2 := m.m2()
	if m2 <= 0 {
		return 0, false
	}
	return m.m4()/(m2*m2) - 3, true
}

// sampleSkewness is the adjusted Fisher-Pearson coefficient (G1)
func sampleSkewness(m *rawMoments) (float64, bool) {
	m2 := m.m2()
	if m2 <= 0 {
		return 0, false
	}
	n := float64(m.count)
	return math.Sqrt(n*(n-1)) / (n - 2) * m.m3() / math.Pow(m2, 1.5), true
}

// MomentFunction is an aggregate derived from raw power sums:
// kurtosis, kurtosis_pop and skewness.
type MomentFunction struct {
	*BaseFunction
	// order is the highest power kept in the partial state
	order int
	// minCount is the smallest sample for which the statistic is defined
	minCount uint64
	finalize func(m *rawMoments) (float64, bool)
}

// NewKurtosisFunction returns the bias-corrected excess kurtosis aggregate
func NewKurtosisFunction() *MomentFunction {
	return &MomentFunction{
		BaseFunction: NewBaseFunction(KurtosisStr, TypeAggregation, "statistical",
			"Calculates the excess kurtosis (Fisher's definition) with bias correction according to the sample size",
			types.Exact(types.Float64)),
		order:    4,
		minCount: 4,
		finalize: excessKurtosis,
	}
}

// NewKurtosisPopFunction returns the population excess kurtosis aggregate
func NewKurtosisPopFunction() *MomentFunction {
	return &MomentFunction{
		BaseFunction: NewBaseFunction(KurtosisPopStr, TypeAggregation, "statistical",
			"Calculates the excess kurtosis (Fisher's definition) without bias correction",
			types.Exact(types.Float64)),
		order:    4,
		minCount: 1,
		finalize: populationKurtosis,
	}
}

// NewSkewnessFunction returns the sample skewness aggregate
func NewSkewnessFunction() *MomentFunction {
	return &MomentFunction{
		BaseFunction: NewBaseFunction(SkewnessStr, TypeAggregation, "statistical",
			"Calculates the skewness (adjusted Fisher-Pearson coefficient) of the sample",
			types.Exact(types.Float64)),
		order:    3,
		minCount: 3,
		finalize: sampleSkewness,
	}
}

func (f *MomentFunction) Validate(args []interface{}) error {
	return validateColumns(f.BaseFunction, args)
}

func (f *MomentFunction) Execute(ctx *FunctionContext, args []interface{}) (interface{}, error) {
	return executeAggregate(f, args)
}

func (f *MomentFunction) ReturnType(argTypes []types.DataType) (types.DataType, error) {
	if err := f.checkArgTypes(argTypes); err != nil {
		return "", err
	}
	return types.Float64, nil
}

func (f *MomentFunction) StateFields(_ []types.DataType) types.Schema {
	schema := types.Schema{
		types.NewField("count", types.UInt64),
		types.NewField("sum", types.Float64),
		types.NewField("sum_sqr", types.Float64),
		types.NewField("sum_cub", types.Float64),
	}
	if f.order >= 4 {
		schema = append(schema, types.NewField("sum_four", types.Float64))
	}
	return schema
}

func (f *MomentFunction) Accumulator() Accumulator {
	return &momentAccumulator{fn: f}
}

type momentAccumulator struct {
	fn *MomentFunction
	rawMoments
}

func (a *momentAccumulator) UpdateBatch(batch *Batch) error {
	if err := batch.check(1); err != nil {
		return err
	}
	column := batch.Columns[0]
	values := make([]float64, 0, len(column))
	for i, v := range column {
		if v == nil {
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidArgument, "%s: row %d: %v", a.fn.GetName(), i, err)
		}
		values = append(values, f)
	}
	for _, v := range values {
		a.add(v, a.fn.order)
	}
	return nil
}

func (a *momentAccumulator) MergeBatch(states []State) error {
	partials := make([]rawMoments, 0, len(states))
	for i, state := range states {
		m, err := a.decode(state)
		if err != nil {
			return errors.Wrapf(err, "%s: state %d", a.fn.GetName(), i)
		}
		if m.count == 0 {
			continue
		}
		partials = append(partials, m)
	}
	for _, m := range partials {
		a.merge(m)
	}
	return nil
}

func (a *momentAccumulator) decode(state State) (rawMoments, error) {
	want := a.fn.order + 1
	if len(state) != want {
		return rawMoments{}, errors.Wrapf(ErrInvalidState, "expected %d fields, got %d", want, len(state))
	}
	var (
		m   rawMoments
		err error
	)
	if m.count, err = stateUint64(state[0]); err != nil {
		return rawMoments{}, err
	}
	sums := []*float64{&m.sum, &m.sumSqr, &m.sumCub, &m.sumFour}
	for i := 1; i < want; i++ {
		if *sums[i-1], err = stateFloat64(state[i]); err != nil {
			return rawMoments{}, err
		}
	}
	return m, nil
}

func (a *momentAccumulator) Evaluate() (interface{}, error) {
	if a.count < a.fn.minCount {
		return nil, nil
	}
	result, ok := a.fn.finalize(&a.rawMoments)
	if !ok {
		return nil, nil
	}
	return result, nil
}

func (a *momentAccumulator) State() (State, error) {
	state := State{a.count, a.sum, a.sumSqr, a.sumCub}
	if a.fn.order >= 4 {
		state = append(state, a.sumFour)
	}
	return state, nil
}

func (a *momentAccumulator) Size() int {
	return int(unsafe.Sizeof(*a))
}
