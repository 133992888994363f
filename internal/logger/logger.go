// Package logger builds the zap loggers used by the command-line tool and
// the in-memory test server.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger for the given environment writing to stderr.
// prod uses JSON output, local/dev use colored console output.
// levelOverride (if non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	level := ""
	if len(levelOverride) > 0 {
		level = levelOverride[0]
	}
	return NewLoggerTo(os.Stderr, env, level)
}

// NewLoggerTo is NewLogger with an explicit sink. Colors are only used for
// the console encoder when w is stderr.
func NewLoggerTo(w io.Writer, env, level string) (*zap.Logger, error) {
	var (
		encoder zapcore.Encoder
		lvl     zapcore.Level
	)
	switch env {
	case "prod":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		lvl = zapcore.InfoLevel
	case "local", "dev":
		encCfg := zap.NewDevelopmentEncoderConfig()
		if w == os.Stderr {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
		lvl = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
