// Package config provides configuration management for veriscope.
// It uses Viper for flexible configuration loading with support for
// multiple formats, environment variables and default values.
package config

import (
	"os"
	"path/filepath"
)

// Config represents the complete veriscope configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log" json:"log"`
	Search SearchConfig `mapstructure:"search" json:"search"`
	Usage  UsageConfig  `mapstructure:"usage" json:"usage"`
	Redis  RedisConfig  `mapstructure:"redis" json:"redis"`
	WebUI  WebUIConfig  `mapstructure:"webui" json:"webui"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	Development bool   `mapstructure:"development" json:"development"`
}

// SearchConfig contains search-provider configuration.
// Missing API keys are not an error: the corresponding provider is
// simply left out of the fallback chain.
type SearchConfig struct {
	SerperAPIKey     string   `mapstructure:"serper_api_key" json:"serper_api_key"`
	BraveAPIKey      string   `mapstructure:"brave_api_key" json:"brave_api_key"`
	SearXNGInstances []string `mapstructure:"searxng_instances" json:"searxng_instances"`
	MaxResults       int      `mapstructure:"max_results" json:"max_results"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// UsageConfig contains usage-tracking configuration.
type UsageConfig struct {
	Backend  string      `mapstructure:"backend" json:"backend"`
	FilePath string      `mapstructure:"file_path" json:"file_path"`
	Prefix   string      `mapstructure:"prefix" json:"prefix"`
	Quotas   QuotaConfig `mapstructure:"quotas" json:"quotas"`
}

// QuotaConfig holds per-provider quota limits.
type QuotaConfig struct {
	SerperMonthly int `mapstructure:"serper_monthly" json:"serper_monthly"`
	BraveDaily    int `mapstructure:"brave_daily" json:"brave_daily"`
	SearXNGDaily  int `mapstructure:"searxng_daily" json:"searxng_daily"`
}

// RedisConfig contains shared Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// WebUIConfig contains the HTTP API server configuration.
type WebUIConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	Port    int  `mapstructure:"port" json:"port"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".veriscope")

	return &Config{
		Log: LogConfig{
			Level:      "info",
			OutputPath: filepath.Join(dataDir, "logs", "veriscope.log"),
		},
		Search: SearchConfig{
			SearXNGInstances: []string{
				"https://searx.be",
				"https://searx.work",
				"https://search.bus-hit.me",
				"https://search.sapti.me",
				"https://searx.tiekoetter.com",
			},
			MaxResults:     10,
			TimeoutSeconds: 10,
		},
		Usage: UsageConfig{
			Backend:  "file",
			FilePath: filepath.Join(dataDir, "search_usage.json"),
			Prefix:   "veriscope:usage:",
			Quotas: QuotaConfig{
				SerperMonthly: 2500,
				BraveDaily:    66,
				SearXNGDaily:  100,
			},
		},
		WebUI: WebUIConfig{
			Enabled: true,
			Port:    8390,
		},
	}
}
