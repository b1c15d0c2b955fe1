package functions

import "github.com/cockroachdb/errors"

var (
	// ErrFunctionNotFound is returned when a name is not registered
	ErrFunctionNotFound = errors.New("function not found")
	// ErrNotAggregate is returned when a registered function has no accumulator
	ErrNotAggregate = errors.New("not an aggregate function")
	// ErrArgumentCount is returned when the number of arguments does not match the signature
	ErrArgumentCount = errors.New("wrong number of arguments")
	// ErrInvalidArgument is returned for input values an accumulator cannot consume
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned for malformed partial states
	ErrInvalidState = errors.New("invalid partial state")
)
