package config

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/scoring"
)

const maxWorkers = 256

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.ScorePrecision < 0 || c.Output.ScorePrecision > 12 {
		return fmt.Errorf("invalid score precision: %d (must be between 0 and 12)", c.Output.ScorePrecision)
	}

	d := c.Detection
	thresholds := []struct {
		name  string
		value float64
	}{
		{"detection.prior_weight", d.PriorWeight},
		{"detection.freq_weight", d.FreqWeight},
		{"detection.char_weight", d.CharWeight},
		{"detection.word_threshold", d.WordThreshold},
		{"detection.char_threshold", d.CharThreshold},
		{"detection.high_confidence_threshold", d.HighConfidenceThreshold},
		{"detection.word_boost", d.WordBoost},
		{"detection.auto_prior_scale", d.AutoPriorScale},
	}
	for _, th := range thresholds {
		if err := validateThreshold(th.value, th.name); err != nil {
			return err
		}
	}

	if d.TopK < 0 {
		return fmt.Errorf("invalid top_k: %d (must not be negative)", d.TopK)
	}
	if d.Workers <= 0 || d.Workers > maxWorkers {
		return fmt.Errorf("invalid detection workers: %d (must be between 1 and %d)", d.Workers, maxWorkers)
	}
	for _, code := range d.CommonLanguages {
		if !resources.ValidCode(code) {
			return fmt.Errorf("invalid common language code: %q", code)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxTextKB <= 0 {
		return fmt.Errorf("invalid max text size: %d (must be positive)", c.Server.MaxTextKB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if rl := c.Server.RateLimit; rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 ||
		rl.MaxRequestsPerDay < 0 || rl.MaxTextPerDay < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}

	return nil
}

// Warnings reports settings that are valid but probably unintended.
func (c *Config) Warnings() []string {
	var warnings []string
	if sum := c.Detection.PriorWeight + c.Detection.FreqWeight; math.Abs(sum-1) > 0.05 {
		warnings = append(warnings, fmt.Sprintf(
			"detection.prior_weight + detection.freq_weight = %.2f, expected about 1.0", sum))
	}
	if c.Detection.CharThreshold > c.Detection.CharWeight*0.5+c.Detection.PriorWeight {
		warnings = append(warnings, "detection.char_threshold is unreachable: character fallback can never match")
	}
	return warnings
}

// ResolvedResourceRoot returns the resource root, falling back to the default.
func (c *Config) ResolvedResourceRoot() string {
	if c.ResourceRoot != "" {
		return c.ResourceRoot
	}
	return resources.DefaultRoot()
}

// ToStoreConfig converts the config to a resource store configuration.
func (c *Config) ToStoreConfig(logger *slog.Logger) resources.StoreConfig {
	return resources.StoreConfig{
		Root:    c.ResolvedResourceRoot(),
		FreqDir: c.FreqDir,
		Logger:  logger,
	}
}

// ToDetectConfig converts the config to the engine configuration.
func (c *Config) ToDetectConfig(logger *slog.Logger) detect.Config {
	d := c.Detection
	cfg := detect.DefaultConfig()
	cfg.Weights = scoring.Weights{Prior: d.PriorWeight, Freq: d.FreqWeight, Char: d.CharWeight}
	cfg.WordThreshold = d.WordThreshold
	cfg.CharThreshold = d.CharThreshold
	cfg.HighConfidenceThreshold = d.HighConfidenceThreshold
	cfg.WordBoost = d.WordBoost
	cfg.Workers = d.Workers
	if len(d.CommonLanguages) > 0 {
		cfg.CommonLanguages = append([]string(nil), d.CommonLanguages...)
	}
	cfg.Logger = logger
	return cfg
}

// ToDetectOptions returns the default per-call options.
func (c *Config) ToDetectOptions() detect.Options {
	return detect.Options{
		TopK:                   c.Detection.TopK,
		UseCharacterFallback:   c.Detection.UseCharacterFallback,
		EnableEarlyTermination: c.Detection.EarlyTermination,
	}
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if math.IsNaN(value) || value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
