// Package config loads colony settings from the environment, an optional
// config file, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. COLONY_SIMULATION_SEED.
const EnvPrefix = "COLONY"

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig controls colony creation and the day clock.
type SimulationConfig struct {
	Seed              int64         `mapstructure:"seed"`
	Days              int           `mapstructure:"days" validate:"min=0"`
	MaxPopulation     int           `mapstructure:"max_population" validate:"min=1,max=100000"`
	StartingColonists int           `mapstructure:"starting_colonists" validate:"min=0,max=1000"`
	AutoStaff         bool          `mapstructure:"auto_staff"`
	StepInterval      time.Duration `mapstructure:"step_interval" validate:"min=0"`
	MapRadius         int           `mapstructure:"map_radius" validate:"min=3,max=40"`
}

// DatabaseConfig locates the save file.
type DatabaseConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	SaveEvery int    `mapstructure:"save_every" validate:"min=1"` // days between saves
}

// APIConfig holds the read-only HTTP API settings.
type APIConfig struct {
	Enabled        bool            `mapstructure:"enabled"`
	Port           int             `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is the per-IP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	Burst             int     `mapstructure:"burst" validate:"min=1"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}

// Load reads configuration with priority:
// 1. Environment variables (a .env file is loaded first)
// 2. Config file (config.yaml, or configPath when given)
// 3. Defaults
func Load(configPath string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
