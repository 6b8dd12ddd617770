package fxmodules

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
)

// NewLogger builds the process-wide zap.Logger: a colorized console
// encoder in local/development, JSON everywhere else, both leveled from
// cfg.LogLevel.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "local" || cfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("nimbus-gateway"), nil
}
