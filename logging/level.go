// Package logging provides the structured logger used throughout the
// exploration engine. It wraps zap with a small named-logger registry
// so that individual subsystems (mapper, planner, SLAM, controller) can
// have their verbosity adjusted independently at runtime.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a log line.
type Level int8

const (
	DEBUG Level = iota - 1
	INFO
	WARN
	ERROR
)

func (level Level) String() string {
	switch level {
	case DEBUG:
		return "Debug"
	case INFO:
		return "Info"
	case WARN:
		return "Warn"
	case ERROR:
		return "Error"
	default:
		return fmt.Sprintf("Level(%d)", int8(level))
	}
}

// LevelFromString parses a level name case-insensitively. "warning" is
// accepted as an alias for "warn".
func LevelFromString(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("logging: unknown level %q", name)
	}
}

func (level Level) zapLevel() zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// MarshalJSON implements json.Marshaler.
func (level Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(level.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (level *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := LevelFromString(name)
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

// AtomicLevel is a Level that can be read and swapped concurrently,
// used to back a registered logger's current severity.
type AtomicLevel struct {
	value atomic.Int32
}

// NewAtomicLevelAt constructs an AtomicLevel starting at level.
func NewAtomicLevelAt(level Level) *AtomicLevel {
	a := &AtomicLevel{}
	a.Set(level)
	return a
}

// Get returns the current level.
func (a *AtomicLevel) Get() Level {
	return Level(int8(a.value.Load()))
}

// Set updates the current level.
func (a *AtomicLevel) Set(level Level) {
	a.value.Store(int32(level))
}
