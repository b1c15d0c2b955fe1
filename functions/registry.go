package functions

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// FunctionType groups functions by how the engine invokes them
type FunctionType string

const (
	// TypeAggregation functions consume many rows and produce one value
	TypeAggregation FunctionType = "aggregation"
	// TypeCustom is reserved for user-defined functions
	TypeCustom FunctionType = "custom"
)

// FunctionContext is the execution context handed to Execute
type FunctionContext struct {
	// Data is the current row or expression environment, may be nil
	Data map[string]interface{}
	// Extra carries caller specific values
	Extra map[string]interface{}
}

// Function is the descriptor every registered function implements
type Function interface {
	GetName() string
	GetType() FunctionType
	GetCategory() string
	GetDescription() string
	// Validate checks the arguments of Execute
	Validate(args []interface{}) error
	// Execute evaluates the function in one shot
	Execute(ctx *FunctionContext, args []interface{}) (interface{}, error)
}

// Registry is the part of a function registry needed to install functions.
// Register must overwrite an existing entry and return it.
type Registry interface {
	Register(fn Function) (Function, error)
}

// FunctionRegistry maps lower-cased names to functions
type FunctionRegistry struct {
	mu         sync.RWMutex
	functions  map[string]Function
	categories map[FunctionType][]Function
}

var globalRegistry = NewFunctionRegistry()

// NewFunctionRegistry creates an empty registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions:  make(map[string]Function),
		categories: make(map[FunctionType][]Function),
	}
}

// GlobalRegistry returns the process-wide registry used by the package level helpers
func GlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// Register inserts fn, replacing any function with the same name.
// The replaced function is returned so the caller can report it.
func (r *FunctionRegistry) Register(fn Function) (Function, error) {
	if fn == nil {
		return nil, errors.New("cannot register nil function")
	}
	name := strings.ToLower(fn.GetName())
	if name == "" {
		return nil, errors.New("cannot register function with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, exists := r.functions[name]
	if exists {
		r.removeFromCategory(previous, name)
	}
	r.functions[name] = fn
	r.categories[fn.GetType()] = append(r.categories[fn.GetType()], fn)
	return previous, nil
}

// Get looks a function up by name, case-insensitively
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.functions[strings.ToLower(name)]
	return fn, exists
}

// GetByType lists the functions of one type
func (r *FunctionRegistry) GetByType(fnType FunctionType) []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Function(nil), r.categories[fnType]...)
}

// ListAll returns a copy of the name to function mapping
func (r *FunctionRegistry) ListAll() map[string]Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Function, len(r.functions))
	for name, fn := range r.functions {
		result[name] = fn
	}
	return result
}

// Unregister removes a function and reports whether it existed
func (r *FunctionRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	fn, exists := r.functions[name]
	if !exists {
		return false
	}
	delete(r.functions, name)
	r.removeFromCategory(fn, name)
	return true
}

func (r *FunctionRegistry) removeFromCategory(fn Function, name string) {
	fnType := fn.GetType()
	funcs := r.categories[fnType]
	for i, f := range funcs {
		if strings.ToLower(f.GetName()) == name {
			r.categories[fnType] = append(funcs[:i:i], funcs[i+1:]...)
			return
		}
	}
}

// Register installs fn in the global registry
func Register(fn Function) (Function, error) {
	return globalRegistry.Register(fn)
}

func Get(name string) (Function, bool) {
	return globalRegistry.Get(name)
}

func GetByType(fnType FunctionType) []Function {
	return globalRegistry.GetByType(fnType)
}

func ListAll() map[string]Function {
	return globalRegistry.ListAll()
}

func Unregister(name string) bool {
	return globalRegistry.Unregister(name)
}

// Execute runs a registered function in one shot
func Execute(name string, ctx *FunctionContext, args []interface{}) (interface{}, error) {
	fn, exists := Get(name)
	if !exists {
		return nil, errors.Wrapf(ErrFunctionNotFound, "%s", name)
	}
	if err := fn.Validate(args); err != nil {
		return nil, errors.Wrapf(err, "function %s validation failed", name)
	}
	return fn.Execute(ctx, args)
}
