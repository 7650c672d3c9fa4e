package detect

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MeKo-Tech/walang/internal/testutil"
)

// TestDetect_NoLettersYieldNothing verifies that letter-free text never matches.
func TestDetect_NoLettersYieldNothing(t *testing.T) {
	engine := newEngine(t, testutil.RomanceRoot(t), DefaultConfig())

	properties := gopter.NewProperties(nil)

	properties.Property("no letters means no results", prop.ForAll(
		func(text string) bool {
			o := DefaultOptions()
			o.Priors = map[string]float64{"es": 1, "pt": 1}
			results, err := engine.Detect(text, o)
			return err == nil && len(results) == 0
		},
		gen.RegexMatch(`[0-9 \t!?.,;:()\-+*/#%]*`),
	))

	properties.TestingRun(t)
}

// TestDetect_MonotonicInMatchedTokens verifies that more word evidence for a
// language never lowers its score.
func TestDetect_MonotonicInMatchedTokens(t *testing.T) {
	engine := newEngine(t, testutil.RomanceRoot(t), DefaultConfig())
	vocab := testutil.SpanishTokens

	scoreOf := func(words []string) float64 {
		o := opts("es")
		o.Priors = map[string]float64{"es": 0.5}
		o.UseCharacterFallback = false
		o.EnableEarlyTermination = false
		results, err := engine.Detect(strings.Join(words, " "), o)
		if err != nil || len(results) != 1 {
			return -1
		}
		return results[0].Score
	}

	properties := gopter.NewProperties(nil)

	properties.Property("adding a top ranked token does not lower the score", prop.ForAll(
		func(picks []int, extra int) bool {
			words := []string{"zzzunknown"}
			for _, p := range picks {
				words = append(words, vocab[p])
			}
			for _, w := range words {
				if w == vocab[extra] {
					return true
				}
			}
			return scoreOf(append(words, vocab[extra])) >= scoreOf(words)
		},
		gen.SliceOf(gen.IntRange(4, len(vocab)-1)),
		gen.IntRange(0, 3),
	))

	properties.Property("replacing an unknown word by a ranked one does not lower the score", prop.ForAll(
		func(picks []int, extra int) bool {
			words := []string{"zzzunknown"}
			for _, p := range picks {
				words = append(words, vocab[p])
			}
			replaced := append([]string{vocab[extra]}, words[1:]...)
			return scoreOf(replaced) >= scoreOf(words)
		},
		gen.SliceOf(gen.IntRange(0, len(vocab)-1)),
		gen.IntRange(0, len(vocab)-1),
	))

	properties.TestingRun(t)
}

// TestDetect_DeterministicAcrossCalls verifies repeated calls agree.
func TestDetect_DeterministicAcrossCalls(t *testing.T) {
	engine := newEngine(t, testutil.RomanceRoot(t), DefaultConfig())
	vocab := append(append([]string{}, testutil.SpanishTokens...), testutil.PortugueseTokens...)

	properties := gopter.NewProperties(nil)

	properties.Property("same input, same output", prop.ForAll(
		func(picks []int) bool {
			words := make([]string, 0, len(picks))
			for _, p := range picks {
				words = append(words, vocab[p])
			}
			text := strings.Join(words, " ")
			a, errA := engine.Detect(text, DefaultOptions())
			b, errB := engine.Detect(text, DefaultOptions())
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.IntRange(0, len(vocab)-1)),
	))

	properties.TestingRun(t)
}
