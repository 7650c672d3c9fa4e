//nolint:lll
package config

import (
	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
)

// Config represents the complete configuration of the walang application.
// It is loaded from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	ResourceRoot string `mapstructure:"resource_root" yaml:"resource_root" json:"resource_root"`
	FreqDir      string `mapstructure:"freq_dir" yaml:"freq_dir" json:"freq_dir"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Detection engine
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection" json:"detection"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// DetectionConfig contains scoring weights, thresholds and call defaults.
type DetectionConfig struct {
	PriorWeight             float64  `mapstructure:"prior_weight" yaml:"prior_weight" json:"prior_weight"`
	FreqWeight              float64  `mapstructure:"freq_weight" yaml:"freq_weight" json:"freq_weight"`
	CharWeight              float64  `mapstructure:"char_weight" yaml:"char_weight" json:"char_weight"`
	WordThreshold           float64  `mapstructure:"word_threshold" yaml:"word_threshold" json:"word_threshold"`
	CharThreshold           float64  `mapstructure:"char_threshold" yaml:"char_threshold" json:"char_threshold"`
	HighConfidenceThreshold float64  `mapstructure:"high_confidence_threshold" yaml:"high_confidence_threshold" json:"high_confidence_threshold"`
	WordBoost               float64  `mapstructure:"word_boost" yaml:"word_boost" json:"word_boost"`
	TopK                    int      `mapstructure:"top_k" yaml:"top_k" json:"top_k"`
	UseCharacterFallback    bool     `mapstructure:"use_character_fallback" yaml:"use_character_fallback" json:"use_character_fallback"`
	EarlyTermination        bool     `mapstructure:"early_termination" yaml:"early_termination" json:"early_termination"`
	Workers                 int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	CommonLanguages         []string `mapstructure:"common_languages" yaml:"common_languages" json:"common_languages"`
	AutoPriorScale          float64  `mapstructure:"auto_prior_scale" yaml:"auto_prior_scale" json:"auto_prior_scale"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxTextKB       int    `mapstructure:"max_text_kb" yaml:"max_text_kb" json:"max_text_kb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client limits for the detection endpoints.
// Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxTextPerDay     int64 `mapstructure:"max_text_per_day" yaml:"max_text_per_day" json:"max_text_per_day"` // bytes
}

// OutputConfig contains CLI output settings.
type OutputConfig struct {
	Format         string `mapstructure:"format" yaml:"format" json:"format"`
	ScorePrecision int    `mapstructure:"score_precision" yaml:"score_precision" json:"score_precision"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	engine := detect.DefaultConfig()
	opts := detect.DefaultOptions()
	return Config{
		ResourceRoot: resources.DefaultRoot(),
		LogLevel:     "info",
		Verbose:      false,
		Detection: DetectionConfig{
			PriorWeight:             engine.Weights.Prior,
			FreqWeight:              engine.Weights.Freq,
			CharWeight:              engine.Weights.Char,
			WordThreshold:           engine.WordThreshold,
			CharThreshold:           engine.CharThreshold,
			HighConfidenceThreshold: engine.HighConfidenceThreshold,
			WordBoost:               engine.WordBoost,
			TopK:                    opts.TopK,
			UseCharacterFallback:    opts.UseCharacterFallback,
			EarlyTermination:        opts.EnableEarlyTermination,
			Workers:                 engine.Workers,
			CommonLanguages:         engine.CommonLanguages,
			AutoPriorScale:          0.3,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxTextKB:       256,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxTextPerDay:     50 * 1024 * 1024,
			},
		},
		Output: OutputConfig{
			Format:         "text",
			ScorePrecision: 4,
		},
	}
}
