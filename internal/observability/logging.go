// Package observability builds the process logger and tracer provider.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/monbattle/internal/config"
)

// RollMessage is the message every dice.Roller draw is logged under.
const RollMessage = "dice roll"

// NewLogger creates a structured logger from the given logging configuration.
// Per-draw dice entries are dropped unless cfg.Rolls is set, so a debug
// level log stays readable during long battles.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var opts []zap.Option
	if !cfg.Rolls {
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return muteCore{Core: c, muted: RollMessage}
		}))
	}
	logger, err := zapCfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// muteCore drops entries logged with one message and passes the rest on.
type muteCore struct {
	zapcore.Core
	muted string
}

func (c muteCore) With(fields []zapcore.Field) zapcore.Core {
	return muteCore{Core: c.Core.With(fields), muted: c.muted}
}

func (c muteCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Message == c.muted {
		return ce
	}
	return c.Core.Check(e, ce)
}
