// Package log provides the process-wide structured logger.
// It wraps zap with a console encoder for development and JSON in production.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

// Init configures the global logger. Valid levels: "debug", "info", "warn", "error".
// Calling Init again replaces the previous logger.
func Init(level string) {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if os.Getenv("DOXA_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}

	mu.Lock()
	logger = base.Sugar()
	mu.Unlock()
}

// SetLogger swaps the global logger, e.g. zaptest or zap.NewNop in tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
}

// L returns the global logger, initialising it at info level on first use.
func L() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init("info")
		mu.RLock()
		l = logger
		mu.RUnlock()
	}
	return l
}

// Named returns a child logger for a subsystem.
func Named(name string) *zap.SugaredLogger {
	return L().Named(name)
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}
