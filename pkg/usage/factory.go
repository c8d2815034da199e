package usage

import (
	"fmt"

	"veriscope/pkg/config"
	"veriscope/pkg/logger"
)

// BackendType represents the storage backend type.
type BackendType string

const (
	BackendFile  BackendType = "file"
	BackendRedis BackendType = "redis"
)

// NewStore creates a usage store based on configuration.
func NewStore(log *logger.Logger, cfg *config.Config) (Store, error) {
	backend := BackendType(cfg.Usage.Backend)
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return NewFileStore(log, cfg.Usage.FilePath)

	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis address is required for redis usage backend")
		}
		return NewRedisStore(log, &RedisStoreConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Usage.Prefix,
		})

	default:
		return nil, fmt.Errorf("unknown usage backend: %s", backend)
	}
}

// QuotasFromConfig builds the quota table for the provider chain.
// The scraper fallback is registered untracked so availability checks
// on it always pass.
func QuotasFromConfig(cfg *config.Config) map[string]Quota {
	return map[string]Quota{
		"serper":         {Limit: cfg.Usage.Quotas.SerperMonthly, Period: PeriodMonthly},
		"brave":          {Limit: cfg.Usage.Quotas.BraveDaily, Period: PeriodDaily},
		"searxng":        {Limit: cfg.Usage.Quotas.SearXNGDaily, Period: PeriodDaily},
		"google_scraper": {Period: PeriodNone},
	}
}
