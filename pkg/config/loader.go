package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "VERISCOPE_CONFIG_FILE"

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".veriscope"))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("VERISCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{viper: v}
}

// Load loads the configuration from file and environment variables.
// If configPath is empty, it searches the default paths. A missing
// config file is not an error: defaults plus environment apply.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if configPath != "" {
		l.viper.SetConfigFile(configPath)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// ConfigFileUsed returns the path of the config file that was loaded,
// or empty if only defaults and environment were used.
func (l *Loader) ConfigFileUsed() string {
	return strings.TrimSpace(l.viper.ConfigFileUsed())
}

// applyEnvOverrides honors the provider-native environment variable
// names in addition to the VERISCOPE_* namespace.
func applyEnvOverrides(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv("SERPER_API_KEY")); key != "" {
		cfg.Search.SerperAPIKey = key
	}
	if key := strings.TrimSpace(os.Getenv("BRAVE_API_KEY")); key != "" {
		cfg.Search.BraveAPIKey = key
	}
}
