package aggregator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/functions"
	"github.com/rulego/streamsql-extra/logger"
	"github.com/rulego/streamsql-extra/types"
	"github.com/spf13/cast"
)

// Aggregator aggregator interface
type Aggregator interface {
	Add(data map[string]interface{}) error
	GetResults() ([]map[string]interface{}, error)
	Reset()
}

// GroupAggregator aggregates rows per group over partitioned accumulators.
// It is safe for concurrent use.
type GroupAggregator struct {
	plan   *plan
	config types.Config
	log    logger.Logger

	mu      sync.Mutex
	groups  map[string]*groupState
	order   []string
	dropped uint64
	// argTypes[f][a] is the type seen so far for argument a of field f
	argTypes [][]types.DataType
}

// groupState holds the accumulators of one group
type groupState struct {
	values []interface{}
	// partitions[p][f] is the accumulator of field f in partition p
	partitions [][]functions.Accumulator
	// buffer[f][a] is the pending column of argument a of field f
	buffer   [][][]interface{}
	buffered int
	// rows is the number of rows seen, the ordinal of the next row
	rows uint64
	next int
}

// NewGroupAggregator creates a new group aggregator
func NewGroupAggregator(groupFields []string, aggregationFields []AggregationField, config types.Config) (*GroupAggregator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p, err := compilePlan(groupFields, aggregationFields, config.Where)
	if err != nil {
		return nil, err
	}
	return &GroupAggregator{
		plan:     p,
		config:   config,
		log:      logger.GetDefault().Named("aggregator"),
		groups:   make(map[string]*groupState),
		argTypes: p.unknownArgTypes(),
	}, nil
}

// SetLogger replaces the logger, nil discards
func (ga *GroupAggregator) SetLogger(l logger.Logger) {
	if l == nil {
		l = logger.NewDiscardLogger()
	}
	ga.mu.Lock()
	ga.log = l
	ga.mu.Unlock()
}

// Add consumes one row. Rows rejected by the filter are ignored. Values an
// accumulator cannot consume are dropped with a warning when their batch
// is flushed; see Dropped.
func (ga *GroupAggregator) Add(data map[string]interface{}) error {
	ex, ok, err := ga.plan.extract(data)
	if err != nil || !ok {
		return err
	}

	ga.mu.Lock()
	defer ga.mu.Unlock()

	g := ga.group(ex.key, ex.values)
	for f, args := range ex.args {
		for a, v := range args {
			g.buffer[f][a] = append(g.buffer[f][a], v)
			ga.argTypes[f][a] = types.Widen(ga.argTypes[f][a], types.TypeOf(v))
		}
	}
	g.buffered++
	if g.buffered >= ga.config.BatchSize {
		ga.flush(g)
	}
	return nil
}

func (ga *GroupAggregator) group(key string, values []interface{}) *groupState {
	g, exists := ga.groups[key]
	if exists {
		return g
	}
	g = &groupState{
		values:     values,
		partitions: make([][]functions.Accumulator, ga.config.Partitions),
		buffer:     make([][][]interface{}, len(ga.plan.fields)),
	}
	for p := range g.partitions {
		g.partitions[p] = newAccumulators(ga.plan)
	}
	for f, field := range ga.plan.fields {
		g.buffer[f] = make([][]interface{}, len(field.args))
	}
	ga.groups[key] = g
	ga.order = append(ga.order, key)
	ga.log.Debug("new group %s", displayKey(key))
	return g
}

func newAccumulators(p *plan) []functions.Accumulator {
	accs := make([]functions.Accumulator, len(p.fields))
	for f, field := range p.fields {
		accs[f] = field.fn.Accumulator()
	}
	return accs
}

// flush hands the buffered rows of g to the next partition in turn
func (ga *GroupAggregator) flush(g *groupState) {
	if g.buffered == 0 {
		return
	}
	p := g.next % len(g.partitions)
	g.next++
	for f, field := range ga.plan.fields {
		dropped := updateColumns(field, g.partitions[p][f], g.buffer[f], g.rows, ga.log)
		ga.dropped += dropped
		for a := range g.buffer[f] {
			g.buffer[f][a] = g.buffer[f][a][:0]
		}
	}
	ga.log.Debug("flushed %d rows to partition %d", g.buffered, p)
	g.rows += uint64(g.buffered)
	g.buffered = 0
}

// updateColumns feeds a positioned batch to acc. When the batch is
// rejected the rows are retried one by one and the offending ones dropped.
func updateColumns(field compiledField, acc functions.Accumulator, columns [][]interface{}, offset uint64, log logger.Logger) uint64 {
	err := acc.UpdateBatch(functions.NewBatch(columns...).WithOffset(offset))
	if err == nil {
		return 0
	}
	var dropped uint64
	rows := len(columns[0])
	for r := 0; r < rows; r++ {
		row := make([][]interface{}, len(columns))
		for a := range columns {
			row[a] = columns[a][r : r+1]
		}
		if err := acc.UpdateBatch(functions.NewBatch(row...).WithOffset(offset + uint64(r))); err != nil {
			log.Warn("%s: dropped row %d: %v", field.alias, offset+uint64(r), err)
			dropped++
		}
	}
	return dropped
}

// mergedStates combines the partitions of g into one state per field
func (ga *GroupAggregator) mergedStates(g *groupState) ([]functions.State, error) {
	states := make([]functions.State, len(ga.plan.fields))
	for f, field := range ga.plan.fields {
		partials := make([]functions.State, 0, len(g.partitions))
		for p := range g.partitions {
			state, err := g.partitions[p][f].State()
			if err != nil {
				return nil, errors.Wrapf(err, "%s partition %d", field.alias, p)
			}
			partials = append(partials, state)
		}
		merged := field.fn.Accumulator()
		if err := merged.MergeBatch(partials); err != nil {
			return nil, errors.Wrapf(err, "%s", field.alias)
		}
		state, err := merged.State()
		if err != nil {
			return nil, errors.Wrapf(err, "%s", field.alias)
		}
		states[f] = state
	}
	return states, nil
}

// GetResults flushes pending rows and evaluates every group, in order of
// first appearance
func (ga *GroupAggregator) GetResults() ([]map[string]interface{}, error) {
	ga.mu.Lock()
	defer ga.mu.Unlock()

	results := make([]map[string]interface{}, 0, len(ga.order))
	for _, key := range ga.order {
		g := ga.groups[key]
		ga.flush(g)
		states, err := ga.mergedStates(g)
		if err != nil {
			return nil, err
		}
		row, err := ga.plan.resultRow(g.values, states)
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, nil
}

// resultRow evaluates merged states into an output row
func (p *plan) resultRow(values []interface{}, states []functions.State) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(p.groupBy)+len(p.fields))
	for i, path := range p.groupBy {
		row[path.String()] = values[i]
	}
	for f, field := range p.fields {
		acc := field.fn.Accumulator()
		if err := acc.MergeBatch([]functions.State{states[f]}); err != nil {
			return nil, errors.Wrapf(err, "%s", field.alias)
		}
		result, err := acc.Evaluate()
		if err != nil {
			return nil, errors.Wrapf(err, "%s", field.alias)
		}
		row[field.alias] = result
	}
	return row, nil
}

// Dropped returns the number of values rejected by accumulators
func (ga *GroupAggregator) Dropped() uint64 {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	return ga.dropped
}

// Groups returns the number of groups seen
func (ga *GroupAggregator) Groups() int {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	return len(ga.order)
}

// Reset discards all groups
func (ga *GroupAggregator) Reset() {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	ga.groups = make(map[string]*groupState)
	ga.order = nil
	ga.dropped = 0
	ga.argTypes = ga.plan.unknownArgTypes()
}

// stateSchema is the state schema of field f for the argument types seen
func (ga *GroupAggregator) stateSchema(f int) types.Schema {
	argTypes := make([]types.DataType, len(ga.argTypes[f]))
	for a, t := range ga.argTypes[f] {
		if t == "" {
			t = types.Any
		}
		argTypes[a] = t
	}
	return ga.plan.fields[f].fn.StateFields(argTypes)
}

const (
	keySeparator = "\x1f"
	nilKeyPart   = "\x00"
)

// writeKeyPart appends one group value to a group key. The value class is
// part of the key, so 1 and "1" are different groups, while numbers of
// equal value share a group whatever their Go type.
func writeKeyPart(b *strings.Builder, v interface{}) {
	switch x := v.(type) {
	case nil:
		b.WriteString(nilKeyPart)
	case string:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(x))
	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(x))
	case int, int8, int16, int32, int64:
		b.WriteString("n:")
		b.WriteString(strconv.FormatInt(cast.ToInt64(x), 10))
	case uint, uint8, uint16, uint32, uint64:
		b.WriteString("n:")
		b.WriteString(strconv.FormatUint(cast.ToUint64(x), 10))
	case float32:
		writeFloatKey(b, float64(x))
	case float64:
		writeFloatKey(b, x)
	default:
		fmt.Fprintf(b, "%T:%s", v, strconv.Quote(fmt.Sprint(v)))
	}
	b.WriteString(keySeparator)
}

// writeFloatKey writes integral floats like integers, so a group value
// decoded from JSON lands in the group of the original integer
func writeFloatKey(b *strings.Builder, f float64) {
	b.WriteString("n:")
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func displayKey(key string) string {
	return strings.ReplaceAll(strings.TrimSuffix(key, keySeparator), keySeparator, "|")
}
