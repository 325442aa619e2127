package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger interface consumed by every
// subsystem of the engine. Call sites attach context as key/value pairs
// (the explore engine's attach the tick) rather than formatting it into
// the message string; the component is carried by the logger's name and
// no call site attaches the mission phase.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	// Sublogger returns a descendant logger named "parent.name" that
	// shares the parent's appenders but tracks its own level.
	Sublogger(name string) Logger

	// GetLevel returns the current minimum severity this logger emits.
	GetLevel() Level
	// SetLevel adjusts the minimum severity this logger emits.
	SetLevel(level Level)

	Name() string
}

type impl struct {
	name  string
	level *AtomicLevel
	zap   *zap.SugaredLogger
	atom  zap.AtomicLevel
}

func newCore(name string, atom zap.AtomicLevel) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), atom)
	return zap.New(core, zap.AddCaller()).Named(name).Sugar()
}

// NewLogger returns a logger registered under name at INFO level.
func NewLogger(name string) Logger {
	atom := zap.NewAtomicLevelAt(INFO.zapLevel())
	lg := &impl{name: name, level: NewAtomicLevelAt(INFO), zap: newCore(name, atom), atom: atom}
	registerLogger(name, lg)
	return lg
}

// NewDebugLogger returns a logger registered under name at DEBUG level.
func NewDebugLogger(name string) Logger {
	lg := NewLogger(name)
	lg.SetLevel(DEBUG)
	return lg
}

// NewBlankLogger returns a logger whose stderr output is suppressed
// (its zap level sits above Fatal) while GetLevel reports ERROR, used in
// tests that exercise control flow but don't want console noise. A later
// SetLevel re-enables output at the new level.
func NewBlankLogger(name string) Logger {
	atom := zap.NewAtomicLevelAt(zapcore.FatalLevel + 1)
	lg := &impl{name: name, level: NewAtomicLevelAt(ERROR), zap: newCore(name, atom), atom: atom}
	registerLogger(name, lg)
	return lg
}

func (l *impl) Name() string { return l.name }

func (l *impl) GetLevel() Level { return l.level.Get() }

func (l *impl) SetLevel(level Level) {
	l.level.Set(level)
	l.atom.SetLevel(level.zapLevel())
}

func (l *impl) Debugw(msg string, kv ...interface{}) { l.zap.Debugw(msg, kv...) }
func (l *impl) Infow(msg string, kv ...interface{})  { l.zap.Infow(msg, kv...) }
func (l *impl) Warnw(msg string, kv ...interface{})  { l.zap.Warnw(msg, kv...) }
func (l *impl) Errorw(msg string, kv ...interface{}) { l.zap.Errorw(msg, kv...) }

func (l *impl) Debug(args ...interface{}) { l.zap.Debug(fmt.Sprint(args...)) }
func (l *impl) Info(args ...interface{})  { l.zap.Info(fmt.Sprint(args...)) }
func (l *impl) Warn(args ...interface{})  { l.zap.Warn(fmt.Sprint(args...)) }
func (l *impl) Error(args ...interface{}) { l.zap.Error(fmt.Sprint(args...)) }

func (l *impl) Sublogger(name string) Logger {
	full := l.name + "." + name
	atom := zap.NewAtomicLevelAt(l.level.Get().zapLevel())
	sub := &impl{name: full, level: NewAtomicLevelAt(l.level.Get()), zap: newCore(full, atom), atom: atom}
	registerLogger(full, sub)
	return sub
}
