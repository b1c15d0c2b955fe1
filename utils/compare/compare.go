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

// Package compare defines a total natural ordering over dynamic values.
//
// Values are ranked by kind first: nil < bool < number < string < time.Time
// < everything else. Within a kind, numbers compare by value (NaN sorts
// above every other number), strings lexicographically, times chronologically
// and unknown kinds by their formatted text.
package compare

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type rank int

const (
	rankNil rank = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

func rankOf(v interface{}) rank {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string:
		return rankString
	case time.Time:
		return rankTime
	default:
		return rankOther
	}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to
// or after b.
func Compare(a, b interface{}) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return sign(int(ra) - int(rb))
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return compareBool(a.(bool), b.(bool))
	case rankNumber:
		return compareNumber(a, b)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		if c := strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
			return c
		}
		return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b interface{}) bool {
	return Compare(a, b) < 0
}

// Equal reports whether a and b are equal under the natural ordering.
func Equal(a, b interface{}) bool {
	return Compare(a, b) == 0
}

// IsComparable reports whether v can be used as a map key.
func IsComparable(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNumber(a, b interface{}) int {
	// integers of the same signedness compare exactly
	if ia, ok := a.(int64); ok {
		if ib, ok := b.(int64); ok {
			return compareOrdered(ia, ib)
		}
	}
	fa := cast.ToFloat64(a)
	fb := cast.ToFloat64(b)
	nanA, nanB := math.IsNaN(fa), math.IsNaN(fb)
	switch {
	case nanA && nanB:
	case nanA:
		return 1
	case nanB:
		return -1
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	// same numeric value held in different Go types
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}
