package config

import (
	"go.uber.org/fx"
)

// Module provides configuration for fx dependency injection.
var Module = fx.Module("config",
	fx.Provide(NewLoader),
	fx.Provide(ProvideConfig),
)

// ProvideConfig loads the configuration from the default locations.
func ProvideConfig(loader *Loader) (*Config, error) {
	return loader.Load("")
}
