package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Level  int8
	Format string
)

const (
	// Numerically speaking, zap supports levels above or below those for which
	// it has defined constants. This is how Discard and Trace are implemented.
	DiscardLevel Level = Level(zapcore.FatalLevel + 1)
	ErrorLevel   Level = Level(zapcore.ErrorLevel)
	InfoLevel    Level = Level(zapcore.InfoLevel)
	DebugLevel   Level = Level(zapcore.DebugLevel)
	TraceLevel   Level = DebugLevel - 1

	ConsoleFormat Format = "console"
	JSONFormat    Format = "json"
	DefaultFormat Format = ConsoleFormat

	LogLevelEnvVar  = "LOG_LEVEL"
	LogFormatEnvVar = "LOG_FORMAT"
)

var globalLogger *Logger

func init() {
	level := InfoLevel
	if l := os.Getenv(LogLevelEnvVar); l != "" {
		var err error
		if level, err = ParseLevel(l); err != nil {
			panic(err)
		}
	}
	format := DefaultFormat
	if f := os.Getenv(LogFormatEnvVar); f != "" {
		format = Format(f)
	}
	var err error
	if globalLogger, err = newLoggerInternal(level, format, os.Stderr); err != nil {
		panic(err)
	}
}

// Logger is a simple wrapper around zap.Logger that provides a more ergonomic
// API.
type Logger struct {
	logger *zap.SugaredLogger
}

// NewDiscardLogger returns a new *Logger that discards all log output. This is
// primarily useful for tests.
func NewDiscardLogger() *Logger {
	return &Logger{logger: zap.NewNop().Sugar()}
}

// NewLogger returns a new *Logger with the provided log level and format that
// writes to stderr.
func NewLogger(level Level, format Format) (*Logger, error) {
	return newLoggerInternal(level, format, os.Stderr)
}

func newLoggerInternal(level Level, format Format, w io.Writer) (*Logger, error) {
	if level == DiscardLevel {
		return NewDiscardLogger(), nil
	}
	if level < TraceLevel || level > ErrorLevel {
		return nil, fmt.Errorf("invalid log level: %d", level)
	}
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		zapcore.RFC3339TimeEncoder(t.UTC(), enc)
	}
	encCfg.EncodeLevel = traceEncoder

	var encoder zapcore.Encoder
	switch format {
	case ConsoleFormat:
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case JSONFormat:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}
	core := zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	)
	return Wrap(zap.New(core, zap.AddCaller())), nil
}

func traceEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if level == zapcore.Level(TraceLevel) {
		enc.AppendString("TRACE")
	} else {
		zapcore.CapitalLevelEncoder(level, enc)
	}
}

// Wrap returns a new *Logger that wraps the provided zap.Logger.
func Wrap(zapLogger *zap.Logger) *Logger {
	return &Logger{
		logger: zapLogger.Sugar().WithOptions(zap.AddCallerSkip(1)),
	}
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discard":
		return DiscardLevel, nil
	case "error":
		return ErrorLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "trace":
		return TraceLevel, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case ConsoleFormat, JSONFormat:
		return f, nil
	}
	return "", fmt.Errorf("invalid log format %q", s)
}

// WithValues adds key-value pairs to a logger's context.
func (l *Logger) WithValues(keysAndValues ...any) *Logger {
	return &Logger{logger: l.logger.With(keysAndValues...)}
}

// Error logs a message at the error level.
func (l *Logger) Error(err error, msg string, keysAndValues ...any) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	l.logger.Errorw(msg, keysAndValues...)
}

// Info logs a message at the info level.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

// Debug logs a message at the debug level.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Trace logs a message at the trace level.
func (l *Logger) Trace(msg string, keysAndValues ...any) {
	// zap has no Trace method, but TraceLevel is one less than DebugLevel and
	// our encoder renders it as TRACE.
	l.logger.With(keysAndValues...).Log(zapcore.Level(TraceLevel), msg)
}

// Logr returns the underlying zap.Logger wrapped as a logr.Logger for
// libraries that only accept logr.
func (l *Logger) Logr() logr.Logger {
	return zapr.NewLogger(l.logger.Desugar().WithOptions(zap.AddCallerSkip(-1)))
}
