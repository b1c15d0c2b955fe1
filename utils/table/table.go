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

package table

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// nullText is printed for nil cells, so undefined statistics stand out from empty strings
const nullText = "NULL"

// Write renders data as a table. Columns follow fieldOrder; columns not
// listed there come after it in alphabetical order.
func Write(w io.Writer, data []map[string]interface{}, fieldOrder []string) {
	if len(data) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}
	columns := orderColumns(data, fieldOrder)

	cells := make([][]string, len(data))
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
		if widths[i] < 4 {
			widths[i] = 4
		}
	}
	for r, row := range data {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			v, exists := row[col]
			switch {
			case !exists:
			case v == nil:
				cells[r][i] = nullText
			default:
				cells[r][i] = fmt.Sprintf("%v", v)
			}
			if len(cells[r][i]) > widths[i] {
				widths[i] = len(cells[r][i])
			}
		}
	}

	writeBorder(w, widths)
	writeRow(w, columns, widths)
	writeBorder(w, widths)
	for _, row := range cells {
		writeRow(w, row, widths)
	}
	writeBorder(w, widths)
	fmt.Fprintf(w, "(%d rows)\n", len(data))
}

func orderColumns(data []map[string]interface{}, fieldOrder []string) []string {
	present := make(map[string]bool)
	for _, row := range data {
		for col := range row {
			present[col] = true
		}
	}
	columns := make([]string, 0, len(present))
	for _, field := range fieldOrder {
		if present[field] {
			columns = append(columns, field)
			delete(present, field)
		}
	}
	rest := make([]string, 0, len(present))
	for col := range present {
		rest = append(rest, col)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func writeBorder(w io.Writer, widths []int) {
	var b strings.Builder
	b.WriteByte('+')
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteByte('+')
	}
	fmt.Fprintln(w, b.String())
}

func writeRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteByte('|')
	for i, v := range values {
		fmt.Fprintf(&b, " %-*s |", widths[i], v)
	}
	fmt.Fprintln(w, b.String())
}

// PrintTableFromSlice prints data as a table to stdout
func PrintTableFromSlice(data []map[string]interface{}, fieldOrder []string) {
	Write(os.Stdout, data, fieldOrder)
}

// FormatTableData prints a result set or a single row as a table, anything else as is
func FormatTableData(result interface{}, fieldOrder []string) {
	switch v := result.(type) {
	case []map[string]interface{}:
		Write(os.Stdout, v, fieldOrder)
	case map[string]interface{}:
		if len(v) == 0 {
			Write(os.Stdout, nil, fieldOrder)
			return
		}
		Write(os.Stdout, []map[string]interface{}{v}, fieldOrder)
	default:
		fmt.Printf("Result: %v\n", result)
	}
}
