package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"veriscope/pkg/config"
)

// Module provides the logger for fx dependency injection.
var Module = fx.Module("logger",
	fx.Provide(ProvideLogger),
)

// ProvideLogger builds a logger from the loaded configuration.
func ProvideLogger(lc fx.Lifecycle, cfg *config.Config) (*Logger, error) {
	logCfg := DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = Level(cfg.Log.Level)
	}
	logCfg.OutputPath = cfg.Log.OutputPath
	logCfg.Development = cfg.Log.Development

	log, err := New(logCfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("Shutting down logger", zap.String("level", string(logCfg.Level)))
			// Sync on stderr returns EINVAL on some platforms; not actionable.
			_ = log.Sync()
			return nil
		},
	})

	return log, nil
}
