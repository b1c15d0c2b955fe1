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
Package aggregator runs grouped aggregations over rows with the partial-state
accumulators of the functions package.

Rows are maps. Group-by columns are field paths ("device", "device.site",
"tags[0]"); aggregate arguments and the optional filter are expr-lang
expressions evaluated against the row.

# Group aggregation

GroupAggregator buffers rows per group and hands every full batch to one of
several partitions in turn, each partition owning its own accumulators.
Results are obtained by merging the partitions' partial states, so the
outcome does not depend on the partition count:

	agg, err := aggregator.NewGroupAggregator(
		[]string{"device"},
		[]aggregator.AggregationField{
			{Function: "kurtosis", Args: []string{"temperature"}, OutputAlias: "temp_kurtosis"},
			{Function: "max_by", Args: []string{"status", "temperature"}, OutputAlias: "hottest_status"},
		},
		types.NewConfig(),
	)
	_ = agg.Add(map[string]interface{}{"device": "d1", "temperature": 21.5, "status": "ok"})
	results, err := agg.GetResults()

Every row gets an ordinal within its group, so max_by and min_by resolve
equal keys to the earliest row regardless of batching.

# Distributed use

Snapshot exports the merged partial state of every group as JSON-encodable
values; MergeSnapshot folds a snapshot taken elsewhere into an aggregator.

# Parallel batch aggregation

AggregateParallel splits a row set into contiguous chunks, updates them
concurrently and combines the chunk states in a pairwise merge tree.
*/
package aggregator
