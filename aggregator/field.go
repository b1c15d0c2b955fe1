package aggregator

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rulego/streamsql-extra/condition"
	"github.com/rulego/streamsql-extra/functions"
	"github.com/rulego/streamsql-extra/types"
	"github.com/rulego/streamsql-extra/utils/fieldpath"
)

// AggregationField defines configuration for a single aggregation column
type AggregationField struct {
	// Function is the registered aggregate name, e.g. "kurtosis"
	Function string `json:"function"`
	// Args are expr-lang expressions, one per function argument
	Args []string `json:"args"`
	// OutputAlias names the result column, defaults to function(args)
	OutputAlias string `json:"alias,omitempty"`
}

// Alias returns the output column name
func (f AggregationField) Alias() string {
	if f.OutputAlias != "" {
		return f.OutputAlias
	}
	return f.Function + "(" + strings.Join(f.Args, ", ") + ")"
}

// ParseAggregationField parses "fn(arg, ...)" with an optional "as alias"
// suffix. Argument expressions may contain nested calls and commas inside
// brackets or quotes.
func ParseAggregationField(text string) (AggregationField, error) {
	text = strings.TrimSpace(text)
	var field AggregationField

	open := strings.IndexByte(text, '(')
	closing := strings.LastIndexByte(text, ')')
	if open <= 0 || closing < open {
		return field, errors.Newf("aggregation %q: expected fn(args)", text)
	}
	field.Function = strings.TrimSpace(text[:open])

	if rest := strings.TrimSpace(text[closing+1:]); rest != "" {
		lower := strings.ToLower(rest)
		if !strings.HasPrefix(lower, "as ") {
			return field, errors.Newf("aggregation %q: unexpected %q", text, rest)
		}
		field.OutputAlias = strings.TrimSpace(rest[3:])
		if field.OutputAlias == "" {
			return field, errors.Newf("aggregation %q: empty alias", text)
		}
	}

	args, err := splitArgs(text[open+1 : closing])
	if err != nil {
		return field, errors.Wrapf(err, "aggregation %q", text)
	}
	field.Args = args
	return field, nil
}

// splitArgs splits on commas outside brackets and string literals
func splitArgs(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var (
		args  []string
		depth int
		quote rune
		start int
	)
	for i, r := range list {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced brackets")
			}
		case r == ',' && depth == 0:
			args = append(args, strings.TrimSpace(list[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || quote != 0 {
		return nil, errors.New("unbalanced brackets or quotes")
	}
	args = append(args, strings.TrimSpace(list[start:]))
	for _, arg := range args {
		if arg == "" {
			return nil, errors.New("empty argument")
		}
	}
	return args, nil
}

// compiledField is an aggregation field bound to its function and programs
type compiledField struct {
	AggregationField
	alias string
	fn    functions.AggregateFunction
	args  []*vm.Program
}

// plan is the compiled form of a grouped aggregation
type plan struct {
	groupBy []*fieldpath.Path
	fields  []compiledField
	where   condition.Condition
}

func compilePlan(groupFields []string, aggregationFields []AggregationField, where string) (*plan, error) {
	p := &plan{}
	for _, name := range groupFields {
		path, err := fieldpath.Parse(name)
		if err != nil {
			return nil, errors.Wrap(err, "group by")
		}
		p.groupBy = append(p.groupBy, path)
	}

	seen := make(map[string]bool, len(aggregationFields))
	for _, field := range aggregationFields {
		fn, err := functions.GetAggregate(field.Function)
		if err != nil {
			return nil, err
		}
		if want := fn.Signature().Arity(); len(field.Args) != want {
			return nil, errors.Wrapf(functions.ErrArgumentCount, "%s requires %d arguments, got %d",
				field.Function, want, len(field.Args))
		}
		compiled := compiledField{
			AggregationField: field,
			alias:            field.Alias(),
			fn:               fn,
		}
		if seen[compiled.alias] {
			return nil, errors.Newf("duplicate output column %q", compiled.alias)
		}
		seen[compiled.alias] = true
		for _, arg := range field.Args {
			program, err := expr.Compile(arg, expr.AllowUndefinedVariables())
			if err != nil {
				return nil, errors.Wrapf(err, "%s argument %q", field.Function, arg)
			}
			compiled.args = append(compiled.args, program)
		}
		p.fields = append(p.fields, compiled)
	}

	if strings.TrimSpace(where) != "" {
		cond, err := condition.NewExprCondition(where)
		if err != nil {
			return nil, errors.Wrap(err, "where")
		}
		p.where = cond
	}
	return p, nil
}

// unknownArgTypes returns one empty type per argument of every field
func (p *plan) unknownArgTypes() [][]types.DataType {
	argTypes := make([][]types.DataType, len(p.fields))
	for f, field := range p.fields {
		argTypes[f] = make([]types.DataType, len(field.args))
	}
	return argTypes
}

// extracted is one row reduced to its group and argument values
type extracted struct {
	key    string
	values []interface{}
	// args holds one value per argument, per field
	args [][]interface{}
}

// extract evaluates the filter, the group key and the arguments of row.
// ok is false when the filter rejects the row.
func (p *plan) extract(row map[string]interface{}) (ex extracted, ok bool, err error) {
	if row == nil {
		return ex, false, errors.New("data cannot be nil")
	}
	if p.where != nil {
		keep, err := p.where.Evaluate(row)
		if err != nil {
			return ex, false, errors.Wrap(err, "where")
		}
		if !keep {
			return ex, false, nil
		}
	}

	var key strings.Builder
	ex.values = make([]interface{}, len(p.groupBy))
	for i, path := range p.groupBy {
		value, found := path.Get(row)
		if !found {
			return ex, false, errors.Newf("field %s not found", path)
		}
		ex.values[i] = value
		writeKeyPart(&key, value)
	}
	ex.key = key.String()

	ex.args = make([][]interface{}, len(p.fields))
	for i, field := range p.fields {
		values := make([]interface{}, len(field.args))
		for j, program := range field.args {
			v, err := expr.Run(program, row)
			if err != nil {
				return ex, false, errors.Wrapf(err, "%s argument %q", field.alias, field.Args[j])
			}
			values[j] = v
		}
		ex.args[i] = values
	}
	return ex, true, nil
}
