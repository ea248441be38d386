// Package logging builds the zap logger shared by every sake task.
//
// sake is an interactive CLI, so the default encoder is a compact console
// encoder without timestamps or callers. JSON output is used when the CLI
// runs with --json so logs stay machine readable alongside the results.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelDebug is selected by --verbose.
	LevelDebug = "debug"

	// LevelInfo is the default.
	LevelInfo = "info"

	// LevelWarn is selected by --quiet.
	LevelWarn = "warn"

	// LevelNone disables logging entirely.
	LevelNone = "none"
)

// Options configures GetLogger.
type Options struct {
	// Level is one of debug, info, warn, error or none.
	Level string

	// JSON switches from the console encoder to the JSON encoder.
	JSON bool

	// Output is where log lines are written. Defaults to stderr.
	Output io.Writer
}

// GetLogger returns a zap logger with the specified level and encoding.
func GetLogger(opts Options) (*zap.Logger, error) {
	if opts.Level == LevelNone {
		return zap.NewNop(), nil
	}
	if opts.Level == "" {
		opts.Level = LevelInfo
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(newEncoder(opts.JSON), zapcore.AddSync(out), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// MustGetLogger returns a logger for the given options or panics.
func MustGetLogger(opts Options) *zap.Logger {
	l, err := GetLogger(opts)
	if err != nil {
		panic(err)
	}
	return l
}

func newEncoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	// console output mirrors a task runner: "[sake] INFO message  key=value"
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.NameKey = ""
	cfg.StacktraceKey = ""
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
