package functions

import (
	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
)

// BaseFunction carries the descriptive part shared by every function
type BaseFunction struct {
	name        string
	fnType      FunctionType
	category    string
	description string
	signature   types.Signature
}

// NewBaseFunction creates the descriptor part of a function
func NewBaseFunction(name string, fnType FunctionType, category, description string, signature types.Signature) *BaseFunction {
	return &BaseFunction{
		name:        name,
		fnType:      fnType,
		category:    category,
		description: description,
		signature:   signature,
	}
}

func (bf *BaseFunction) GetName() string {
	return bf.name
}

func (bf *BaseFunction) GetType() FunctionType {
	return bf.fnType
}

func (bf *BaseFunction) GetCategory() string {
	return bf.category
}

func (bf *BaseFunction) GetDescription() string {
	return bf.description
}

// Signature returns the declared argument types
func (bf *BaseFunction) Signature() types.Signature {
	return bf.signature
}

// ValidateArgCount checks args against the declared arity
func (bf *BaseFunction) ValidateArgCount(args []interface{}) error {
	if want := bf.signature.Arity(); len(args) != want {
		return errors.Wrapf(ErrArgumentCount, "function %s requires %d arguments, got %d", bf.name, want, len(args))
	}
	return nil
}

// checkArgTypes validates argTypes against the signature
func (bf *BaseFunction) checkArgTypes(argTypes []types.DataType) error {
	if err := bf.signature.Accepts(argTypes); err != nil {
		return errors.Wrapf(err, "function %s", bf.name)
	}
	return nil
}
