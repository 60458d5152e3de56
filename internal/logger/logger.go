package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger configured from the environment. APP_ENV or
// LOG_ENV set to "production" selects the production config; LOG_LEVEL
// overrides the default level either way.
func New() (*zap.Logger, error) {
	env := os.Getenv("LOG_ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}

	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.Level = zap.NewAtomicLevelAt(levelOr(zapcore.InfoLevel))
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(levelOr(zapcore.DebugLevel))
	return cfg.Build(zap.AddCaller())
}

func levelOr(fallback zapcore.Level) zapcore.Level {
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if level, err := zapcore.ParseLevel(s); err == nil {
			return level
		}
	}
	return fallback
}
