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
Package functions provides statistical aggregate functions that can be
computed over partitioned input and combined afterwards.

# Aggregates

	kurtosis(x)        excess kurtosis with sample-size bias correction
	kurtosis_pop(x)    population excess kurtosis
	skewness(x)        adjusted Fisher-Pearson skewness
	mode(x)            most frequent value, smallest value on ties
	max_by(p, k)       p of the row with the largest k
	min_by(p, k)       p of the row with the smallest k

# Accumulator Protocol

Every aggregate hands out an Accumulator. Input arrives in columnar batches,
partial results leave as a State whose layout is fixed by StateFields:

	acc := functions.NewKurtosisFunction().Accumulator()
	_ = acc.UpdateBatch(functions.NewBatch(column))
	state, _ := acc.State()

	final := functions.NewKurtosisFunction().Accumulator()
	_ = final.MergeBatch([]functions.State{state, otherState})
	result, _ := final.Evaluate() // nil when the statistic is undefined

MergeBatch is associative and commutative, so partial states may be
combined in any order and any tree shape. EncodeState and DecodeState
move states between processes.

# Registration

The aggregates register themselves in the global registry. Other
registries receive them through RegisterAllExtraFunctions, which
overwrites functions with the same names and logs the replaced ones:

	reg := functions.NewFunctionRegistry()
	if err := functions.RegisterAllExtraFunctions(reg); err != nil {
		// handle error
	}

# Expressions

ExprBridge makes the aggregates callable from expr-lang over arrays:

	result, err := functions.EvaluateWithBridge("skewness(values)",
		map[string]interface{}{"values": []float64{1, 2, 10}})
*/
package functions
