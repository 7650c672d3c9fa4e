package detect

import (
	"errors"
	"log/slog"

	"github.com/MeKo-Tech/walang/internal/prune"
	"github.com/MeKo-Tech/walang/internal/scoring"
)

// ErrNegativeTopK is returned by Detect when Options.TopK is negative.
var ErrNegativeTopK = errors.New("top-k must not be negative")

// Config holds the engine tunables. Thresholds and the boost are calibrated
// together; change them as a set.
type Config struct {
	Weights scoring.Weights

	// WordThreshold is the score a language must exceed to count as a word match.
	WordThreshold float64
	// CharThreshold is the score a language must exceed to count as a
	// character match.
	CharThreshold float64
	// HighConfidenceThreshold triggers early termination.
	HighConfidenceThreshold float64
	// WordBoost is added to word-based scores when ranking.
	WordBoost float64

	// Workers > 1 scores candidates concurrently.
	Workers int

	// CommonLanguages are scored first.
	CommonLanguages []string

	Logger *slog.Logger
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:                 scoring.DefaultWeights(),
		WordThreshold:           0.05,
		CharThreshold:           0.04,
		HighConfidenceThreshold: 0.8,
		WordBoost:               0.15,
		Workers:                 1,
		CommonLanguages:         append([]string(nil), prune.DefaultCommonLanguages...),
	}
}

func (c Config) withDefaults() Config {
	if c.CommonLanguages == nil {
		c.CommonLanguages = append([]string(nil), prune.DefaultCommonLanguages...)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
