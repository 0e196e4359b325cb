// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key for environment overrides, e.g.
// CVSYNTH_WORKERS overrides workers
const EnvPrefix = "CVSYNTH"

// Config represents the CLI configuration. Values come from defaults, an
// optional JSON or YAML file and CVSYNTH_* environment variables, in
// increasing priority.
type Config struct {
	// Storage
	DatabaseURL string `mapstructure:"database_url" json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `mapstructure:"redis_url" json:"redis_url,omitempty"`       // Redis URL for batch checkpoints

	// Text generation
	LLMProvider string `mapstructure:"llm_provider" json:"llm_provider,omitempty"` // gemini or anthropic
	APIKey      string `mapstructure:"api_key" json:"api_key,omitempty"`

	// Batch
	Workers          int     `mapstructure:"workers" json:"workers,omitempty"`
	MaxAttempts      int     `mapstructure:"max_attempts" json:"max_attempts,omitempty"`
	QualityThreshold float64 `mapstructure:"quality_threshold" json:"quality_threshold,omitempty"`
	Seed             uint64  `mapstructure:"seed" json:"seed,omitempty"` // 0 derives a seed from the clock

	// Tuning tables; empty uses the embedded defaults
	RulesPath string `mapstructure:"rules_path" json:"rules_path,omitempty"`

	// Logging
	LogLevel  string `mapstructure:"log_level" json:"log_level,omitempty"`
	LogFormat string `mapstructure:"log_format" json:"log_format,omitempty"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		LLMProvider:      "gemini",
		Workers:          4,
		MaxAttempts:      3,
		QualityThreshold: 75,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// legacyEnv lists unprefixed variables accepted as fallbacks
var legacyEnv = map[string][]string{
	"database_url": {"DATABASE_URL"},
	"redis_url":    {"REDIS_URL"},
	"api_key":      {"GEMINI_API_KEY", "ANTHROPIC_API_KEY"},
}

// Load reads configuration from path, which may be empty, and applies
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		bind := append([]string{key, EnvPrefix + "_" + strings.ToUpper(key)}, names...)
		if err := v.BindEnv(bind...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("llm_provider", d.LLMProvider)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("quality_threshold", d.QualityThreshold)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("rules_path", d.RulesPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those depend on the
// command being run.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "", "gemini", "anthropic":
	default:
		return fmt.Errorf("config error: 'llm_provider' must be gemini or anthropic, got %q", c.LLMProvider)
	}

	// Validate numeric ranges
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 100 {
		return fmt.Errorf("config error: 'quality_threshold' must be between 0 and 100")
	}

	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: 'log_format' must be json or console, got %q", c.LogFormat)
	}

	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: rules file not found: %s", c.RulesPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. CLI flags are merged this way over the loaded file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.RulesPath == "" {
		result.RulesPath = defaults.RulesPath
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Numeric fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.Seed == 0 {
		result.Seed = defaults.Seed
	}
	if result.QualityThreshold == 0 {
		if defaults.QualityThreshold > 0 {
			result.QualityThreshold = defaults.QualityThreshold
		} else {
			result.QualityThreshold = 75
		}
	}

	return result
}
