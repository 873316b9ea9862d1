// Package logger wraps a process-wide zap logger.  Components log through
// the package-level helpers so tests and main can swap the underlying
// logger without threading it through every constructor.
package logger

import (
    "os"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
    log = New("dev")
}

// New builds a zap logger for the given environment.  "prod" selects the
// JSON production encoder; anything else gets the colored console
// encoder.  LOG_LEVEL overrides the default level when set.
func New(env string) *zap.Logger {
    var cfg zap.Config
    if env == "prod" || env == "production" {
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "timestamp"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }

    if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
        var level zapcore.Level
        if err := level.UnmarshalText([]byte(lvl)); err == nil {
            cfg.Level = zap.NewAtomicLevelAt(level)
        }
    }

    l, _ := cfg.Build()
    return l
}

// Set replaces the process-wide logger.  Called once from main after the
// environment is known.
func Set(l *zap.Logger) { log = l }

// Get returns the process-wide logger for callers that need With fields.
func Get() *zap.Logger { return log }

func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { log.Fatal(msg, fields...) }

// Sync flushes buffered log entries; deferred from main.
func Sync() error { return log.Sync() }
