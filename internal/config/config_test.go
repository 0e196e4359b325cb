package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables that would leak into Load from the host
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATABASE_URL", "REDIS_URL", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
		"CVSYNTH_DATABASE_URL", "CVSYNTH_REDIS_URL", "CVSYNTH_API_KEY", "CVSYNTH_LLM_PROVIDER",
		"CVSYNTH_WORKERS", "CVSYNTH_MAX_ATTEMPTS", "CVSYNTH_QUALITY_THRESHOLD", "CVSYNTH_SEED",
		"CVSYNTH_RULES_PATH", "CVSYNTH_LOG_LEVEL", "CVSYNTH_LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
database_url: postgres://localhost/cv
llm_provider: Anthropic
workers: 8
quality_threshold: 80.5
seed: 42
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/cv", cfg.DatabaseURL)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 80.5, cfg.QualityThreshold)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "json", cfg.LogFormat)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"redis_url": "redis://localhost:6379/0", "max_attempts": 5}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "workers: 8\nlog_level: debug\n")
	t.Setenv("CVSYNTH_WORKERS", "2")
	t.Setenv("CVSYNTH_SEED", "99")
	t.Setenv("GEMINI_API_KEY", "from-legacy")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-legacy", cfg.APIKey)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://legacy")
	t.Setenv("CVSYNTH_DATABASE_URL", "postgres://prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed", cfg.DatabaseURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Defaults(), ""},
		{"empty", Config{}, ""},
		{"provider", Config{LLMProvider: "openai"}, "llm_provider"},
		{"workers", Config{Workers: -1}, "workers"},
		{"attempts", Config{MaxAttempts: -1}, "max_attempts"},
		{"threshold high", Config{QualityThreshold: 101}, "quality_threshold"},
		{"threshold low", Config{QualityThreshold: -5}, "quality_threshold"},
		{"log format", Config{LogFormat: "xml"}, "log_format"},
		{"rules path", Config{RulesPath: "/nonexistent/rules.yaml"}, "rules file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RulesPathExists(t *testing.T) {
	path := writeFile(t, "rules.yaml", "version: 1\n")
	cfg := Config{RulesPath: path}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://flag",
		Workers:     2,
	}
	defaults := Defaults()
	defaults.DatabaseURL = "postgres://file"
	defaults.RedisURL = "redis://file"
	defaults.Seed = 7

	result := cfg.MergeWithDefaults(defaults)
	assert.Equal(t, "postgres://flag", result.DatabaseURL)
	assert.Equal(t, "redis://file", result.RedisURL)
	assert.Equal(t, 2, result.Workers)
	assert.Equal(t, 3, result.MaxAttempts)
	assert.Equal(t, uint64(7), result.Seed)
	assert.Equal(t, "gemini", result.LLMProvider)

	// original is not modified
	assert.Empty(t, cfg.RedisURL)
}

func TestMergeWithDefaults_ThresholdFallback(t *testing.T) {
	cfg := &Config{}
	result := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, 75.0, result.QualityThreshold)
}
