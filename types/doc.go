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
Package types provides the data types, schemas and configuration shared by
the extra aggregate functions and the aggregators that run them.

# Data Types

Function signatures, return types and partial-state schemas are described
with DataType values:

	types.Float64              // moment family input and result
	types.UInt64               // counters in partial states
	types.ListOf(types.Any)    // list-valued state fields (mode)

# State Schemas

Every aggregate declares the ordered fields of its partial state. The schema
is the shuffle contract between partitions and must stay stable:

	[]types.Field{
		types.NewField("count", types.UInt64),
		types.NewField("sum", types.Float64),
	}

# Configuration

Config controls how an aggregation is split and executed:

	cfg := types.NewConfig()
	cfg.Partitions = 8
	cfg.BatchSize = 512
	if err := cfg.Validate(); err != nil {
		// handle invalid configuration
	}
*/
package types
