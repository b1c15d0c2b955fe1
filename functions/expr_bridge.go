package functions

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprBridge exposes the registered aggregates to expr-lang expressions.
// Each aggregate becomes a function over whole columns, so
//
//	kurtosis(readings)
//	max_by(names, scores)
//
// evaluate in one pass over the arrays bound in the environment.
type ExprBridge struct {
	registry *FunctionRegistry
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// NewExprBridge creates a bridge over registry, the global registry when nil
func NewExprBridge(registry *FunctionRegistry) *ExprBridge {
	if registry == nil {
		registry = globalRegistry
	}
	return &ExprBridge{
		registry: registry,
		programs: make(map[string]*vm.Program),
	}
}

// Options returns one expr.Function option per aggregate, under its
// lower-case and upper-case names
func (bridge *ExprBridge) Options() []expr.Option {
	all := bridge.registry.ListAll()
	options := make([]expr.Option, 0, 2*len(all))
	for name, fn := range all {
		aggFn, ok := fn.(AggregateFunction)
		if !ok {
			continue
		}
		wrapped := func(params ...any) (any, error) {
			return aggFn.Execute(&FunctionContext{}, params)
		}
		options = append(options, expr.Function(name, wrapped))
		if upper := strings.ToUpper(name); upper != name {
			options = append(options, expr.Function(upper, wrapped))
		}
	}
	return options
}

// Compile compiles expression with the aggregate functions available.
// Programs are cached per expression text.
func (bridge *ExprBridge) Compile(expression string) (*vm.Program, error) {
	bridge.mu.RLock()
	program, ok := bridge.programs[expression]
	bridge.mu.RUnlock()
	if ok {
		return program, nil
	}

	options := append(bridge.Options(), expr.AllowUndefinedVariables())
	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "compile %q", expression)
	}

	bridge.mu.Lock()
	bridge.programs[expression] = program
	bridge.mu.Unlock()
	return program, nil
}

// Evaluate runs expression against data
func (bridge *ExprBridge) Evaluate(expression string, data map[string]interface{}) (interface{}, error) {
	program, err := bridge.Compile(expression)
	if err != nil {
		return nil, err
	}
	result, err := expr.Run(program, data)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %q", expression)
	}
	return result, nil
}

// Invalidate drops cached programs, needed after functions are re-registered
func (bridge *ExprBridge) Invalidate() {
	bridge.mu.Lock()
	bridge.programs = make(map[string]*vm.Program)
	bridge.mu.Unlock()
}

var (
	globalBridge     *ExprBridge
	globalBridgeOnce sync.Once
)

// GetExprBridge returns the bridge over the global registry
func GetExprBridge() *ExprBridge {
	globalBridgeOnce.Do(func() {
		globalBridge = NewExprBridge(globalRegistry)
	})
	return globalBridge
}

// EvaluateWithBridge evaluates expression with the global bridge
func EvaluateWithBridge(expression string, data map[string]interface{}) (interface{}, error) {
	return GetExprBridge().Evaluate(expression, data)
}
