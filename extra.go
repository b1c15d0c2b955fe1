/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package extra

import (
	"context"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/aggregator"
	"github.com/rulego/streamsql-extra/functions"
	"github.com/rulego/streamsql-extra/types"
	"github.com/rulego/streamsql-extra/utils/table"
)

// Extra is the entry point to the extra aggregate functions.
//
//	e := extra.New(extra.WithPartitions(4))
//	results, err := e.Aggregate(ctx, rows, []string{"device"}, "mode(status)")
type Extra struct {
	config types.Config
}

// New creates an instance with the default configuration and applies options
func New(options ...Option) *Extra {
	e := &Extra{config: types.NewConfig()}
	for _, option := range options {
		option(e)
	}
	return e
}

// Config returns the effective configuration
func (e *Extra) Config() types.Config {
	return e.config
}

// Register installs every extra aggregate into registry, replacing
// functions with the same names
func (e *Extra) Register(registry functions.Registry) error {
	if registry == nil {
		return errors.New("registry cannot be nil")
	}
	return functions.RegisterAllExtraFunctions(registry)
}

// Functions lists the names of the extra aggregates, sorted
func (e *Extra) Functions() []string {
	all := functions.AllExtraAggregateFunctions()
	names := make([]string, len(all))
	for i, fn := range all {
		names[i] = fn.GetName()
	}
	sort.Strings(names)
	return names
}

// Aggregate groups rows by groupBy and evaluates the aggregation fields,
// written as "fn(arg, ...) [as alias]". Rows are processed in parallel
// across the configured partitions.
func (e *Extra) Aggregate(ctx context.Context, rows []map[string]interface{}, groupBy []string, fields ...string) ([]map[string]interface{}, error) {
	parsed, err := parseFields(fields)
	if err != nil {
		return nil, err
	}
	return aggregator.AggregateParallel(ctx, rows, groupBy, parsed, e.config)
}

// NewGroupAggregator creates an incremental aggregator with the instance configuration
func (e *Extra) NewGroupAggregator(groupBy []string, fields ...string) (*aggregator.GroupAggregator, error) {
	parsed, err := parseFields(fields)
	if err != nil {
		return nil, err
	}
	return aggregator.NewGroupAggregator(groupBy, parsed, e.config)
}

// Evaluate runs an expr-lang expression in which the aggregates are
// available as functions over arrays, e.g. "skewness(readings)"
func (e *Extra) Evaluate(expression string, data map[string]interface{}) (interface{}, error) {
	return functions.EvaluateWithBridge(expression, data)
}

// PrintTable prints results to stdout as a table. Columns follow
// fieldOrder, remaining columns are sorted by name.
func (e *Extra) PrintTable(results []map[string]interface{}, fieldOrder []string) {
	table.FormatTableData(results, fieldOrder)
}

// WriteTable writes results as a table to w
func (e *Extra) WriteTable(w io.Writer, results []map[string]interface{}, fieldOrder []string) {
	table.Write(w, results, fieldOrder)
}

func parseFields(fields []string) ([]aggregator.AggregationField, error) {
	if len(fields) == 0 {
		return nil, errors.New("at least one aggregation field is required")
	}
	parsed := make([]aggregator.AggregationField, len(fields))
	for i, text := range fields {
		field, err := aggregator.ParseAggregationField(text)
		if err != nil {
			return nil, err
		}
		parsed[i] = field
	}
	return parsed, nil
}
