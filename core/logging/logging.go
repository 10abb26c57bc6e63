// Package logging creates per-package zap loggers.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvFormat selects the log encoder.
// "console" gives human-readable lines; anything else gives JSON.
const EnvFormat = EnvPrefix + "FMT"

var root = func() *zap.Logger {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc := zapcore.NewJSONEncoder(ec)
	if os.Getenv(EnvFormat) == "console" {
		enc = zapcore.NewConsoleEncoder(ec)
	}
	return zap.New(zapcore.NewCore(enc, os.Stderr, zap.DebugLevel))
}()

// Named creates a named logger that logs at every level.
func Named(pkg string) *zap.Logger {
	return root.Named(pkg)
}

// New creates a logger whose level follows the environment:
//
//	var logger = logging.New("pktring")
func New(pkg string) *zap.Logger {
	return Named(pkg).WithOptions(zap.IncreaseLevel(GetLevel(pkg).al))
}
