package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "trendbet-bot"

// New builds the process logger. APP_ENV=local gets the development config.
func New(env, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}

// ParseLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
