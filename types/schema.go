package types

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Field is one named, typed column of a partial-state record.
type Field struct {
	Name     string   `json:"name"`
	Type     DataType `json:"type"`
	Nullable bool     `json:"nullable"`
}

// NewField returns a nullable field.
func NewField(name string, t DataType) Field {
	return Field{Name: name, Type: t, Nullable: true}
}

func (f Field) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// Schema is an ordered list of fields.
type Schema []Field

// Names returns the field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// IndexOf returns the position of the named field or -1.
func (s Schema) IndexOf(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Volatility describes whether a function yields the same output for the
// same input.
type Volatility int

const (
	// Immutable functions always return the same result for the same input.
	Immutable Volatility = iota
	// Stable functions return the same result within one query.
	Stable
	// Volatile functions may return different results on every call.
	Volatile
)

func (v Volatility) String() string {
	switch v {
	case Immutable:
		return "immutable"
	case Stable:
		return "stable"
	case Volatile:
		return "volatile"
	default:
		return "unknown"
	}
}

// Signature declares the accepted argument types of a function.
// An Any entry accepts every type.
type Signature struct {
	Args       []DataType `json:"args"`
	Volatility Volatility `json:"volatility"`
}

// Exact returns an immutable signature with exactly the given argument types.
func Exact(args ...DataType) Signature {
	return Signature{Args: args, Volatility: Immutable}
}

// Arity returns the number of declared arguments.
func (s Signature) Arity() int {
	return len(s.Args)
}

// Accepts reports whether argTypes fits the signature.
// Numeric declared types accept any numeric argument type.
func (s Signature) Accepts(argTypes []DataType) error {
	if len(argTypes) != len(s.Args) {
		return errors.Newf("expected %d arguments, got %d", len(s.Args), len(argTypes))
	}
	for i, want := range s.Args {
		got := argTypes[i]
		if want == Any || got == Any || got == Null || got == want {
			continue
		}
		if want == Float64 && got.IsNumeric() {
			continue
		}
		return errors.Newf("argument %d: expected %s, got %s", i+1, want, got)
	}
	return nil
}
