// Package config handles configuration loading for bondrisk.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BONDRISK_API_PORT.
const EnvPrefix = "BONDRISK"

// Config represents the complete application configuration.
type Config struct {
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"  json:"output"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"     json:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// OutputConfig controls how result documents are rendered.
type OutputConfig struct {
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
	Indent string `mapstructure:"indent" yaml:"indent" json:"indent"` // used when Pretty is set
}

// IndentString returns the indent to render with, or "" for compact output.
func (c OutputConfig) IndentString() string {
	if !c.Pretty {
		return ""
	}
	if c.Indent == "" {
		return "  "
	}
	return c.Indent
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host               string   `mapstructure:"host"                 yaml:"host"                 json:"host"`
	Port               int      `mapstructure:"port"                 yaml:"port"                 json:"port"`
	CORSOrigins        []string `mapstructure:"cors_origins"         yaml:"cors_origins"         json:"cors_origins"`
	MaxBodyBytes       int64    `mapstructure:"max_body_bytes"       yaml:"max_body_bytes"       json:"max_body_bytes"`
	MaxCashflows       int      `mapstructure:"max_cashflows"        yaml:"max_cashflows"        json:"max_cashflows"` // per request, 0 = unlimited
	RateLimit          int      `mapstructure:"rate_limit"           yaml:"rate_limit"           json:"rate_limit"`    // requests per second, 0 = off
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"  yaml:"request_timeout_sec"  json:"request_timeout_sec"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.bondrisk/config.yaml (home directory)
//  3. /etc/bondrisk/config.yaml (system)
//
// Environment variables override config file values.
// Format: BONDRISK_<SECTION>_<KEY>, e.g., BONDRISK_LOGGING_LEVEL
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".bondrisk"))
	v.AddConfigPath("/etc/bondrisk")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	cfg, err := decode(newDefaultsOnly())
	if err != nil {
		// Defaults are static and always valid.
		panic(err)
	}
	return cfg
}

func newDefaultsOnly() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Output defaults
	v.SetDefault("output.pretty", false)
	v.SetDefault("output.indent", "  ")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.max_body_bytes", 10<<20) // 10 MiB
	v.SetDefault("api.max_cashflows", 100000)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.request_timeout_sec", 30)
	v.SetDefault("api.shutdown_timeout_sec", 15)

	// Logging defaults; stdout carries the payload so stay quiet on stderr
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
