package logger

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = zap.NewNop()

// Options controls how Init builds the process logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// Init replaces the process logger. Calling it again swaps the logger.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// New builds a zap logger writing to stderr so command output on stdout
// stays clean.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	case "console", "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("invalid log format: %q", opts.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

// Use installs an already built logger. Tests use it with zaptest/observer.
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
}

func Debug(msg string, fields map[string]any) {
	global.Debug(msg, toZap(fields)...)
}

func Info(msg string, fields map[string]any) {
	global.Info(msg, toZap(fields)...)
}

func Warn(msg string, fields map[string]any) {
	global.Warn(msg, toZap(fields)...)
}

func Error(msg string, fields map[string]any) {
	global.Error(msg, toZap(fields)...)
}

// Fatal logs and exits the process with status 1.
func Fatal(msg string, fields map[string]any) {
	global.Fatal(msg, toZap(fields)...)
}

// Sync flushes buffered entries.
func Sync() error {
	return global.Sync()
}

func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
