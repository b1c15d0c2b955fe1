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

// Package logger provides leveled logging for the extra aggregate functions
// and the group aggregator that hosts them.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level defines log levels
type Level int

const (
	// DEBUG shows registry overwrites and partition/merge progress
	DEBUG Level = iota
	// INFO general information
	INFO
	// WARN rejected rows and other recoverable conditions
	WARN
	// ERROR errors only
	ERROR
	// OFF disables logging
	OFF
)

// String returns string representation of log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case OFF:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
// Unknown names yield INFO and ok=false.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO", "":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "OFF", "NONE":
		return OFF, true
	default:
		return INFO, false
	}
}

// Logger interface defines basic methods for logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
	// Named returns a logger that tags every line with the component name.
	// The returned logger shares level and output with its parent.
	Named(component string) Logger
}

type sharedState struct {
	mu     sync.RWMutex
	level  Level
	logger *log.Logger
}

// defaultLogger is the default log implementation
type defaultLogger struct {
	state     *sharedState
	component string
}

// NewLogger creates a new logger writing to output.
//
// Example:
//
//	l := NewLogger(DEBUG, os.Stderr).Named("aggregator")
//	l.Debug("merged %d partitions", 4)
func NewLogger(level Level, output io.Writer) Logger {
	return &defaultLogger{
		state: &sharedState{
			level:  level,
			logger: log.New(output, "", 0),
		},
	}
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

func (l *defaultLogger) SetLevel(level Level) {
	l.state.mu.Lock()
	l.state.level = level
	l.state.mu.Unlock()
}

func (l *defaultLogger) Named(component string) Logger {
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	return &defaultLogger{state: l.state, component: name}
}

func (l *defaultLogger) enabled(level Level) bool {
	l.state.mu.RLock()
	defer l.state.mu.RUnlock()
	return l.state.level != OFF && l.state.level <= level
}

func (l *defaultLogger) log(level Level, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.state.logger.Printf("[%s] [%s] [%s] %s", timestamp, level.String(), l.component, message)
		return
	}
	l.state.logger.Printf("[%s] [%s] %s", timestamp, level.String(), message)
}

// discardLogger drops everything
type discardLogger struct{}

// NewDiscardLogger creates a logger that discards all logs
func NewDiscardLogger() Logger {
	return discardLogger{}
}

func (discardLogger) Debug(format string, args ...interface{}) {}
func (discardLogger) Info(format string, args ...interface{})  {}
func (discardLogger) Warn(format string, args ...interface{})  {}
func (discardLogger) Error(format string, args ...interface{}) {}
func (discardLogger) SetLevel(level Level)                     {}
func (d discardLogger) Named(component string) Logger          { return d }

var (
	defaultMu       sync.RWMutex
	defaultInstance Logger = NewLogger(INFO, os.Stdout)
)

// SetDefault sets the global default logger
func SetDefault(l Logger) {
	if l == nil {
		l = NewDiscardLogger()
	}
	defaultMu.Lock()
	defaultInstance = l
	defaultMu.Unlock()
}

// GetDefault gets the global default logger
func GetDefault() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultInstance
}

// Debug uses the default logger to record debug information
func Debug(format string, args ...interface{}) {
	GetDefault().Debug(format, args...)
}

// Info uses the default logger to record information
func Info(format string, args ...interface{}) {
	GetDefault().Info(format, args...)
}

// Warn uses the default logger to record warnings
func Warn(format string, args ...interface{}) {
	GetDefault().Warn(format, args...)
}

// Error uses the default logger to record errors
func Error(format string, args ...interface{}) {
	GetDefault().Error(format, args...)
}
