/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package extra

import (
	"io"

	"github.com/rulego/streamsql-extra/logger"
	"github.com/rulego/streamsql-extra/types"
)

// Option configures an Extra instance
type Option func(*Extra)

// WithConfig replaces the whole configuration and applies its log level
func WithConfig(config types.Config) Option {
	return func(e *Extra) {
		e.config = config
		if level, ok := logger.ParseLevel(config.LogLevel); ok {
			logger.GetDefault().SetLevel(level)
		}
	}
}

// WithPartitions sets the number of partitions rows are spread over
func WithPartitions(partitions int) Option {
	return func(e *Extra) {
		e.config.Partitions = partitions
	}
}

// WithBatchSize sets the number of rows handed to an accumulator at once
func WithBatchSize(size int) Option {
	return func(e *Extra) {
		e.config.BatchSize = size
	}
}

// WithMaxConcurrency bounds the goroutines of parallel aggregation, 0 means GOMAXPROCS
func WithMaxConcurrency(n int) Option {
	return func(e *Extra) {
		e.config.MaxConcurrency = n
	}
}

// WithWhere filters rows with an expr-lang condition
func WithWhere(condition string) Option {
	return func(e *Extra) {
		e.config.Where = condition
	}
}

// WithLogger sets a custom logger as the default logger
func WithLogger(log logger.Logger) Option {
	return func(e *Extra) {
		logger.SetDefault(log)
	}
}

// WithLogLevel sets the level of the default logger
//
//	e := extra.New(extra.WithLogLevel(logger.DEBUG))
func WithLogLevel(level logger.Level) Option {
	return func(e *Extra) {
		e.config.LogLevel = level.String()
		logger.GetDefault().SetLevel(level)
	}
}

// WithLogOutput logs to output at the given level
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(e *Extra) {
		e.config.LogLevel = level.String()
		logger.SetDefault(logger.NewLogger(level, output))
	}
}

// WithDiscardLog disables log output
func WithDiscardLog() Option {
	return func(e *Extra) {
		logger.SetDefault(logger.NewDiscardLogger())
	}
}
