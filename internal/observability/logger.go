// Package observability wires up the ambient logging, tracing and metrics
// stack (spec §8): a zap.Logger built per environment the way the
// teacher's cmd/ entry points do, an OpenTelemetry TracerProvider exporting
// over OTLP/gRPC, and a small set of Prometheus counters (see Metrics).
package observability

import (
	"elementstore/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger from Logging configuration, starting from
// zap's development config in development and its production config
// otherwise. In every environment the level comes from cfg.Level (info if
// it does not parse), a non-empty cfg.Format sets the encoding, and
// sampling is off unless cfg.Sampling is set.
func NewLogger(cfg config.Logging, env config.Environment) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if env == config.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
	} else if cfg.Format != "" {
		zcfg.Encoding = cfg.Format
	}
	if !cfg.Sampling {
		zcfg.Sampling = nil
	}

	return zcfg.Build()
}
