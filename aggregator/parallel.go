package aggregator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/functions"
	"github.com/rulego/streamsql-extra/logger"
	"github.com/rulego/streamsql-extra/types"
	"golang.org/x/sync/errgroup"
)

// chunkGroup collects the argument columns of one group within a chunk
type chunkGroup struct {
	values []interface{}
	// columns[f][a] is the column of argument a of field f
	columns [][][]interface{}
	rows    int
}

type chunk struct {
	order  []string
	groups map[string]*chunkGroup
}

// partial maps group keys to one state per field
type partial map[string][]functions.State

// AggregateParallel aggregates rows grouped by groupFields. The rows are
// split into config.Partitions contiguous chunks that are evaluated and
// accumulated concurrently, then the chunk states are merged pairwise in a
// tree. Groups are returned in order of first appearance; the results equal
// those of a GroupAggregator fed the same rows.
func AggregateParallel(ctx context.Context, rows []map[string]interface{}, groupFields []string,
	aggregationFields []AggregationField, config types.Config) ([]map[string]interface{}, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p, err := compilePlan(groupFields, aggregationFields, config.Where)
	if err != nil {
		return nil, err
	}
	log := logger.GetDefault().Named("aggregator")

	chunks, err := extractChunks(ctx, p, rows, config)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []map[string]interface{}{}, nil
	}

	// ordinals continue across chunks so ties resolve as in a single pass
	offsets := make([]map[string]uint64, len(chunks))
	seen := make(map[string]uint64)
	var order []string
	values := make(map[string][]interface{})
	for c, ch := range chunks {
		offsets[c] = make(map[string]uint64, len(ch.order))
		for _, key := range ch.order {
			if _, ok := seen[key]; !ok {
				order = append(order, key)
				values[key] = ch.groups[key].values
			}
			offsets[c][key] = seen[key]
			seen[key] += uint64(ch.groups[key].rows)
		}
	}

	partials := make([]partial, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Concurrency())
	for c := range chunks {
		g.Go(func() error {
			result, err := accumulateChunk(gctx, p, chunks[c], offsets[c], config.BatchSize, log)
			partials[c] = result
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("accumulated %d rows in %d chunks, %d groups", len(rows), len(chunks), len(order))

	merged, err := mergeTree(ctx, p, partials, config.Concurrency())
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0, len(order))
	for _, key := range order {
		row, err := p.resultRow(values[key], merged[key])
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, nil
}

// extractChunks evaluates filter, group keys and arguments, one goroutine per chunk
func extractChunks(ctx context.Context, p *plan, rows []map[string]interface{}, config types.Config) ([]*chunk, error) {
	n := config.Partitions
	if n > len(rows) {
		n = len(rows)
	}
	chunks := make([]*chunk, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Concurrency())
	for c := 0; c < n; c++ {
		start, end := c*len(rows)/n, (c+1)*len(rows)/n
		g.Go(func() error {
			ch := &chunk{groups: make(map[string]*chunkGroup)}
			for i, row := range rows[start:end] {
				if i%config.BatchSize == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ex, ok, err := p.extract(row)
				if err != nil {
					return errors.Wrapf(err, "row %d", start+i)
				}
				if !ok {
					continue
				}
				group, exists := ch.groups[ex.key]
				if !exists {
					group = &chunkGroup{values: ex.values, columns: make([][][]interface{}, len(p.fields))}
					for f, field := range p.fields {
						group.columns[f] = make([][]interface{}, len(field.args))
					}
					ch.groups[ex.key] = group
					ch.order = append(ch.order, ex.key)
				}
				for f, args := range ex.args {
					for a, v := range args {
						group.columns[f][a] = append(group.columns[f][a], v)
					}
				}
				group.rows++
			}
			chunks[c] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// accumulateChunk feeds every group of ch to fresh accumulators in batches
func accumulateChunk(ctx context.Context, p *plan, ch *chunk, offsets map[string]uint64,
	batchSize int, log logger.Logger) (partial, error) {
	result := make(partial, len(ch.order))
	for _, key := range ch.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := ch.groups[key]
		states := make([]functions.State, len(p.fields))
		for f, field := range p.fields {
			acc := field.fn.Accumulator()
			for start := 0; start < group.rows; start += batchSize {
				end := start + batchSize
				if end > group.rows {
					end = group.rows
				}
				columns := make([][]interface{}, len(group.columns[f]))
				for a := range columns {
					columns[a] = group.columns[f][a][start:end]
				}
				updateColumns(field, acc, columns, offsets[key]+uint64(start), log)
			}
			state, err := acc.State()
			if err != nil {
				return nil, errors.Wrapf(err, "%s", field.alias)
			}
			states[f] = state
		}
		result[key] = states
	}
	return result, nil
}

// mergeTree combines partials pairwise, each level concurrently, until one is left
func mergeTree(ctx context.Context, p *plan, partials []partial, concurrency int) (partial, error) {
	for len(partials) > 1 {
		next := make([]partial, (len(partials)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i := 0; i < len(partials); i += 2 {
			if i+1 == len(partials) {
				next[i/2] = partials[i]
				continue
			}
			left, right := partials[i], partials[i+1]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				merged, err := mergePartials(p, left, right)
				next[i/2] = merged
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		partials = next
	}
	return partials[0], nil
}

func mergePartials(p *plan, left, right partial) (partial, error) {
	merged := make(partial, len(left)+len(right))
	for key, states := range left {
		merged[key] = states
	}
	for key, states := range right {
		existing, ok := merged[key]
		if !ok {
			merged[key] = states
			continue
		}
		combined := make([]functions.State, len(p.fields))
		for f, field := range p.fields {
			acc := field.fn.Accumulator()
			if err := acc.MergeBatch([]functions.State{existing[f], states[f]}); err != nil {
				return nil, errors.Wrapf(err, "%s", field.alias)
			}
			state, err := acc.State()
			if err != nil {
				return nil, errors.Wrapf(err, "%s", field.alias)
			}
			combined[f] = state
		}
		merged[key] = combined
	}
	return merged, nil
}
