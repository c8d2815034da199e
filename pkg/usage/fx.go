package usage

import (
	"context"

	"go.uber.org/fx"

	"veriscope/pkg/config"
	"veriscope/pkg/logger"
)

// Module provides usage tracking for fx dependency injection.
var Module = fx.Module("usage",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideTracker),
)

// ProvideStore creates the usage store from configuration.
func ProvideStore(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Store, error) {
	store, err := NewStore(log, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

// ProvideTracker creates the usage tracker with the configured quotas.
func ProvideTracker(log *logger.Logger, store Store, cfg *config.Config) *Tracker {
	return NewTracker(log, store, QuotasFromConfig(cfg))
}
