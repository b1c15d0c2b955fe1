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

/*
Package extra adds statistical aggregate functions to StreamSQL style
engines: kurtosis, kurtosis_pop, skewness, mode, max_by and min_by.

Every function is backed by an accumulator with an explicit partial state,
so a computation can be split over partitions or nodes and merged in any
order and tree shape with the same result.

# Registration

The functions are installed in the global registry of the functions
package when it is loaded. Other registries are populated with Register:

	reg := functions.NewFunctionRegistry()
	err := extra.New().Register(reg)

Registering over existing functions of the same name replaces them and
logs each replacement at debug level.

# Grouped aggregation

	e := extra.New(extra.WithPartitions(8), extra.WithDiscardLog())
	results, err := e.Aggregate(ctx, rows, []string{"device"},
		"kurtosis(temperature) as temp_kurtosis",
		"max_by(status, temperature) as hottest_status",
	)
	e.PrintTable(results, nil)

Rows are maps; arguments are expr-lang expressions over the row. For
incremental input use NewGroupAggregator, whose snapshots can be shipped
as JSON and merged elsewhere.

# Semantics

  - Null arguments are skipped. Statistics that are undefined for the
    observed sample (too few values, zero variance) evaluate to nil.
  - mode breaks ties by the smallest value in the natural ordering
    (nil < bool < number < string < time).
  - max_by(payload, key) and min_by(payload, key) break key ties by the
    earliest row.
*/
package extra
