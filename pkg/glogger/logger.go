// Package glogger builds the zap loggers shared by graft commands and jobs.
package glogger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelNone disables logging entirely
	LogLevelNone = "none"

	// LogLevelError only logs errors
	LogLevelError = "error"

	// LogLevelWarn logs warnings and errors
	LogLevelWarn = "warn"

	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"
)

// GetLogger returns a zap logger at the specified level. An empty level is
// equivalent to LogLevelNone.
func GetLogger(logLevel string) (*zap.Logger, error) {
	if logLevel == "" || logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// graft runs are short-lived one-shot jobs: never sample entries away,
	// and keep stack traces out of operator-facing output
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string) *zap.Logger {
	l, err := GetLogger(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}
