// Package logx is the logging facade for the whole service. It keeps a small
// leveled API and delegates formatting and output to zap.
package logx

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is structured context attached to a log entry.
type Fields map[string]any

// Level mirrors the supported log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base        = newZapLogger()
)

func newZapLogger() *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomicLevel)
	return zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(level Level) {
	switch level {
	case LevelDebug:
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLevel.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string) { base.Debug(msg) }
func Info(msg string)  { base.Info(msg) }
func Warn(msg string)  { base.Warn(msg) }
func Error(msg string) { base.Error(msg) }
func Fatal(msg string) { base.Fatal(msg) }

func Debugf(format string, args ...any) { base.Debugf(format, args...) }
func Infof(format string, args ...any)  { base.Infof(format, args...) }
func Warnf(format string, args ...any)  { base.Warnf(format, args...) }
func Errorf(format string, args ...any) { base.Errorf(format, args...) }
func Fatalf(format string, args ...any) { base.Fatalf(format, args...) }

// Entry is a logger with pre-attached fields.
type Entry struct {
	sugar *zap.SugaredLogger
}

// WithFields returns an entry carrying the given structured fields.
func WithFields(fields Fields) *Entry {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Entry{sugar: base.With(kv...)}
}

// WithError is shorthand for a single error field.
func WithError(err error) *Entry {
	return WithFields(Fields{"error": err})
}

func (e *Entry) Debug(msg string) { e.sugar.Debug(msg) }
func (e *Entry) Info(msg string)  { e.sugar.Info(msg) }
func (e *Entry) Warn(msg string)  { e.sugar.Warn(msg) }
func (e *Entry) Error(msg string) { e.sugar.Error(msg) }

func (e *Entry) Debugf(format string, args ...any) { e.sugar.Debugf(format, args...) }
func (e *Entry) Infof(format string, args ...any)  { e.sugar.Infof(format, args...) }
func (e *Entry) Warnf(format string, args ...any)  { e.sugar.Warnf(format, args...) }
func (e *Entry) Errorf(format string, args ...any) { e.sugar.Errorf(format, args...) }
