// Package log builds the zap loggers used across the module.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w at the given level.
// A nil w writes to os.Stdout.
func New(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	if w == nil {
		w = os.Stdout
	}
	core := zapcore.NewCore(getEncoder(), zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Nop returns a logger discarding everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// ParseLevel maps "debug", "info", "warn" and "error" to a zap level,
// defaulting to info.
func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}
