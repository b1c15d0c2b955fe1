package types

import (
	"encoding/json"
	"runtime"

	"github.com/cockroachdb/errors"
)

const (
	DefaultBatchSize  = 1024
	DefaultPartitions = 4
)

// Config controls how an aggregation is partitioned and executed
type Config struct {
	// Partitions is the number of independent accumulator sets rows are spread over
	Partitions int `json:"partitions"`
	// BatchSize is the number of rows buffered before a partition consumes them
	BatchSize int `json:"batchSize"`
	// MaxConcurrency bounds the goroutines used for parallel update and merge, 0 means GOMAXPROCS
	MaxConcurrency int `json:"maxConcurrency"`
	// LogLevel is one of debug, info, warn, error, off
	LogLevel string `json:"logLevel"`
	// Where is an optional filter expression evaluated per row
	Where string `json:"where"`
}

// NewConfig returns the default configuration
func NewConfig() Config {
	return Config{
		Partitions: DefaultPartitions,
		BatchSize:  DefaultBatchSize,
		LogLevel:   "info",
	}
}

// SinglePartitionConfig computes everything in one pass, mainly for reference results
func SinglePartitionConfig() Config {
	config := NewConfig()
	config.Partitions = 1
	return config
}

// LoadConfig parses a JSON document on top of the defaults
func LoadConfig(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Partitions < 1 {
		return errors.Newf("partitions must be positive, got %d", c.Partitions)
	}
	if c.BatchSize < 1 {
		return errors.Newf("batchSize must be positive, got %d", c.BatchSize)
	}
	if c.MaxConcurrency < 0 {
		return errors.Newf("maxConcurrency must not be negative, got %d", c.MaxConcurrency)
	}
	return nil
}

// Concurrency returns the effective goroutine limit
func (c Config) Concurrency() int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return runtime.GOMAXPROCS(0)
}
