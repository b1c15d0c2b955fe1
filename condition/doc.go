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
Package condition compiles the row filters applied before aggregation.

Filters are expr-lang boolean expressions evaluated against each row:

	cond, err := condition.NewExprCondition(`status != "idle" && temperature > 0`)
	keep, err := cond.Evaluate(row)

Undefined variables evaluate to nil, so a filter on a field that some rows
lack simply rejects those rows. The like_match function adds SQL LIKE
matching:

	like_match(device, "sensor_%")
*/
package condition
