package functions

import (
	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/logger"
)

// Registration names of the extra aggregates
const (
	KurtosisStr    = "kurtosis"
	KurtosisPopStr = "kurtosis_pop"
	SkewnessStr    = "skewness"
	ModeStr        = "mode"
	MaxByStr       = "max_by"
	MinByStr       = "min_by"
)

// AllExtraAggregateFunctions returns fresh descriptors of every extra aggregate
func AllExtraAggregateFunctions() []AggregateFunction {
	return []AggregateFunction{
		NewModeFunction(),
		NewMaxByFunction(),
		NewMinByFunction(),
		NewKurtosisFunction(),
		NewSkewnessFunction(),
		NewKurtosisPopFunction(),
	}
}

// RegisterAllExtraFunctions installs every extra aggregate into registry.
// Existing functions with the same names are overwritten and reported at
// debug level.
func RegisterAllExtraFunctions(registry Registry) error {
	for _, fn := range AllExtraAggregateFunctions() {
		existing, err := registry.Register(fn)
		if err != nil {
			return errors.Wrapf(err, "register %s", fn.GetName())
		}
		if existing != nil {
			logger.Debug("Overwrite existing aggregate function: %s", existing.GetName())
		}
	}
	return nil
}

func init() {
	if err := RegisterAllExtraFunctions(globalRegistry); err != nil {
		logger.Error("register extra aggregate functions: %v", err)
	}
}
