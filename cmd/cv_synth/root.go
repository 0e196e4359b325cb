package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/config"
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/logging"
	"github.com/jonathan/cv-synth/internal/observability"
	"github.com/jonathan/cv-synth/internal/rules"
)

var (
	configPath   string
	verbose      bool
	logLevelFlag string

	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print human-readable summaries to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error); overrides config")
}

// setup loads configuration and the logger before any subcommand runs
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevelFlag != "" {
		loaded.LogLevel = logLevelFlag
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	merged := loaded.MergeWithDefaults(config.Defaults())
	cfg = &merged

	logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	return nil
}

// loadRules returns the configured tuning tables or the embedded defaults
func loadRules() (*rules.Rules, error) {
	if cfg == nil || cfg.RulesPath == "" {
		return rules.Default(), nil
	}
	return rules.Load(cfg.RulesPath)
}

// parseNow parses a YYYY-MM "today" override; empty means the current month
func parseNow(s string) (dates.YearMonth, error) {
	if s == "" {
		return dates.Today(), nil
	}
	now, err := dates.Parse(s)
	if err != nil {
		return dates.YearMonth{}, fmt.Errorf("invalid --now: %w", err)
	}
	return now, nil
}

// resolveSeed prefers the flag, then the config, then the clock
func resolveSeed(flag uint64) uint64 {
	if flag != 0 {
		return flag
	}
	if cfg != nil && cfg.Seed != 0 {
		return cfg.Seed
	}
	return uint64(time.Now().UnixNano())
}

// writeJSON writes v to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// readJSON decodes the file at path into v
func readJSON(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

// printer returns a verbose-mode printer on stderr, or nil
func printer(cmd *cobra.Command) *observability.Printer {
	if !verbose {
		return nil
	}
	return observability.NewPrinter(cmd.ErrOrStderr())
}
