package condition

import (
	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Condition decides whether a row takes part in an aggregation
type Condition interface {
	Evaluate(env interface{}) (bool, error)
}

// ExprCondition is a compiled expr-lang boolean expression
type ExprCondition struct {
	expression string
	program    *vm.Program
}

// NewExprCondition compiles expression. Besides the expr-lang operators it
// offers like_match(text, pattern) with SQL % and _ wildcards.
func NewExprCondition(expression string) (*ExprCondition, error) {
	options := []expr.Option{
		expr.Function("like_match", func(params ...any) (any, error) {
			if len(params) != 2 {
				return false, errors.New("like_match function requires 2 parameters")
			}
			text, ok1 := params[0].(string)
			pattern, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return false, errors.New("like_match function requires string parameters")
			}
			return MatchLike(text, pattern), nil
		}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "compile condition %q", expression)
	}
	return &ExprCondition{expression: expression, program: program}, nil
}

// String returns the source expression
func (ec *ExprCondition) String() string {
	return ec.expression
}

// Evaluate runs the condition against env. Runtime errors, such as
// comparing a string with a number, are returned rather than treated
// as false.
func (ec *ExprCondition) Evaluate(env interface{}) (bool, error) {
	result, err := expr.Run(ec.program, env)
	if err != nil {
		return false, errors.Wrapf(err, "evaluate condition %q", ec.expression)
	}
	keep, _ := result.(bool)
	return keep, nil
}

// MatchLike reports whether text matches a LIKE pattern, where % matches
// any sequence and _ exactly one byte
func MatchLike(text, pattern string) bool {
	// greedy match with backtracking to the last %
	t, p := 0, 0
	star, mark := -1, 0
	for t < len(text) {
		switch {
		case p < len(pattern) && (pattern[p] == '_' || pattern[p] == text[t]):
			t++
			p++
		case p < len(pattern) && pattern[p] == '%':
			star, mark = p, t
			p++
		case star >= 0:
			mark++
			t, p = mark, star+1
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '%' {
		p++
	}
	return p == len(pattern)
}
