package types

import (
	"strings"
	"time"
)

// DataType names the logical type of an argument, a result or a state field.
type DataType string

const (
	Any     DataType = "any"
	Null    DataType = "null"
	Boolean DataType = "boolean"
	Int64   DataType = "int64"
	UInt64  DataType = "uint64"
	Float64 DataType = "float64"
	String  DataType = "string"
	Time    DataType = "time"
)

const listPrefix = "list<"

// ListOf returns the list type whose elements are of type elem.
func ListOf(elem DataType) DataType {
	return DataType(listPrefix + string(elem) + ">")
}

// IsList reports whether t was built by ListOf.
func (t DataType) IsList() bool {
	return strings.HasPrefix(string(t), listPrefix) && strings.HasSuffix(string(t), ">")
}

// Elem returns the element type of a list type, or Any for non-list types.
func (t DataType) Elem() DataType {
	if !t.IsList() {
		return Any
	}
	return DataType(strings.TrimSuffix(strings.TrimPrefix(string(t), listPrefix), ">"))
}

// IsNumeric reports whether values of t can feed a floating-point accumulator.
// Any is accepted because dynamic rows are only checked per value.
func (t DataType) IsNumeric() bool {
	switch t {
	case Int64, UInt64, Float64, Any, Null:
		return true
	}
	return false
}

func (t DataType) String() string {
	return string(t)
}

// TypeOf infers the DataType of a dynamic value.
func TypeOf(v interface{}) DataType {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int, int8, int16, int32, int64:
		return Int64
	case uint, uint8, uint16, uint32, uint64:
		return UInt64
	case float32, float64:
		return Float64
	case string:
		return String
	case time.Time:
		return Time
	default:
		return Any
	}
}

// Widen combines the types seen for one column. Null adds nothing, the
// empty type means nothing seen yet, and two different types give Any.
func Widen(current, seen DataType) DataType {
	switch {
	case seen == Null || seen == "":
		return current
	case current == "" || current == seen:
		return seen
	default:
		return Any
	}
}
