// Package logger builds the zap logger shared by the storefront processes.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Service string
	Env     string
	Level   string
}

// New returns a JSON production logger tagged with service and env. In the
// dev environment the console encoder is used instead.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return log.With(
		zap.String("service", opts.Service),
		zap.String("env", opts.Env),
	), nil
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
