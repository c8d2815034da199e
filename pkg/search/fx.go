package search

import (
	"time"

	"go.uber.org/fx"

	"veriscope/pkg/config"
	"veriscope/pkg/logger"
	"veriscope/pkg/usage"
)

// Module provides the search orchestrator for fx dependency injection.
var Module = fx.Module("search",
	fx.Provide(ProvideOrchestrator),
)

// ProvideOrchestrator assembles the provider chain from configuration.
func ProvideOrchestrator(log *logger.Logger, tracker *usage.Tracker, cfg *config.Config) *Orchestrator {
	return NewOrchestrator(log, tracker, Config{
		SerperAPIKey:     cfg.Search.SerperAPIKey,
		BraveAPIKey:      cfg.Search.BraveAPIKey,
		SearXNGInstances: cfg.Search.SearXNGInstances,
		Timeout:          time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		MaxResults:       cfg.Search.MaxResults,
	})
}
