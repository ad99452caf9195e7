// Package gkconfig loads gecko's configuration from a YAML file, the
// environment, and built-in defaults, via viper.
package gkconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is gecko's top-level configuration.
type Config struct {
	RuleSet RuleSetConfig `mapstructure:"ruleset"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// RuleSetConfig points at the catalog of rule manifests to load.
type RuleSetConfig struct {
	// Paths lists directories containing rule manifests (internal/catalog);
	// each is read with catalog.LoadDir, so a path naming a single file is
	// rejected. Later paths override earlier ones by rule id.
	Paths []string `mapstructure:"paths"`
	// Mode is the default validation mode when a caller doesn't override
	// it: "normal" only fails the scan on errors, "strict" also fails it
	// on warnings.
	Mode string `mapstructure:"mode"`
}

// SchemaConfig points at an optional Block-Starter Schema extension file.
type SchemaConfig struct {
	ExtensionPath string `mapstructure:"extension_path"`
}

// LogConfig mirrors internal/obslog.Config with mapstructure tags.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig configures the `gecko serve` editor-integration daemon.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// ForestCacheSize bounds the per-buffer parsed-forest LRU cache.
	ForestCacheSize int `mapstructure:"forest_cache_size"`
	// RescanRatePerSecond and RescanBurst configure the token-bucket
	// limiter guarding how often one buffer may be re-scanned.
	RescanRatePerSecond float64 `mapstructure:"rescan_rate_per_second"`
	RescanBurst         int     `mapstructure:"rescan_burst"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from configPath (if non-empty and present),
// layering environment variables and built-in defaults underneath it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("gecko")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ruleset.mode", "normal")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.forest_cache_size", 256)
	v.SetDefault("server.rescan_rate_per_second", 5.0)
	v.SetDefault("server.rescan_burst", 10)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate rejects configurations the rest of gecko cannot act on.
func (c *Config) Validate() error {
	switch c.RuleSet.Mode {
	case "normal", "strict":
	default:
		return fmt.Errorf("ruleset.mode: must be %q or %q, got %q", "normal", "strict", c.RuleSet.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	if c.Server.ForestCacheSize <= 0 {
		return fmt.Errorf("server.forest_cache_size: must be positive, got %d", c.Server.ForestCacheSize)
	}
	return nil
}
