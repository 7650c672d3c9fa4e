// Package scoring computes the per-language evidence scores used by the
// detector: a rank-discounted word (or bigram) overlap and a character
// coverage fallback built from alphabet metadata.
package scoring

import (
	"math"

	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// Weights blends the individual signals into a score.
type Weights struct {
	Prior float64 // weight of the caller supplied prior
	Freq  float64 // weight of the normalized token overlap
	Char  float64 // weight of the character evidence
}

// DefaultWeights returns the standard blend.
func DefaultWeights() Weights {
	return Weights{Prior: 0.65, Freq: 0.35, Char: 0.2}
}

// Character evidence is damped by this factor on top of Weights.Char.
const charDamping = 0.5

// Overlap sums 1/log2(rank+1.5) over the tokens present in ranks.
func Overlap(tokens []string, ranks map[string]int) float64 {
	if len(tokens) == 0 || len(ranks) == 0 {
		return 0
	}
	var sum float64
	for _, tok := range tokens {
		rank, ok := ranks[tok]
		if !ok || rank < 1 {
			continue
		}
		sum += 1 / math.Log2(float64(rank)+1.5)
	}
	return sum
}

// NormalizedOverlap divides Overlap by sqrt(len(tokens)+3).
func NormalizedOverlap(tokens []string, ranks map[string]int) float64 {
	if len(tokens) == 0 || len(ranks) == 0 {
		return 0
	}
	return Overlap(tokens, ranks) / math.Sqrt(float64(len(tokens))+3)
}

// WordScore blends the prior with the normalized token overlap.
func (w Weights) WordScore(prior float64, tokens []string, ranks map[string]int) float64 {
	return w.Prior*prior + w.Freq*NormalizedOverlap(tokens, ranks)
}

// CharacterOverlap scores how well the text characters fit an alphabet:
//
//	max(0, 0.6*coverage - 0.2*penalty + 0.2*distinctiveness)
//
// where coverage and penalty are the matched and unmatched shares of the text
// characters and distinctiveness is the matched share of the alphabet.
func CharacterOverlap(textChars []string, alphabet tokenize.Set) float64 {
	if len(textChars) == 0 || alphabet.Len() == 0 {
		return 0
	}

	matched := 0
	for _, c := range textChars {
		if alphabet.Has(c) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	total := float64(len(textChars))
	coverage := float64(matched) / total
	penalty := float64(len(textChars)-matched) / total
	distinctiveness := float64(matched) / float64(alphabet.Len())

	return math.Max(0, 0.6*coverage-0.2*penalty+0.2*distinctiveness)
}

// FrequencyOverlap returns sum/max(sum, 0.001) over the positive frequencies
// of textChars in freq. The result is 0 without matches and at most 1.
func FrequencyOverlap(textChars []string, freq map[string]float64) float64 {
	if len(textChars) == 0 || len(freq) == 0 {
		return 0
	}
	var sum float64
	for _, c := range textChars {
		if f := freq[c]; f > 0 {
			sum += f
		}
	}
	if sum == 0 {
		return 0
	}
	return sum / math.Max(sum, 0.001)
}

// CombinedCharacter blends 0.6*CharacterOverlap with 0.4*FrequencyOverlap.
func CombinedCharacter(textChars []string, alphabet tokenize.Set, freq map[string]float64) float64 {
	return 0.6*CharacterOverlap(textChars, alphabet) + 0.4*FrequencyOverlap(textChars, freq)
}

// CharScore blends the prior with the damped character evidence.
func (w Weights) CharScore(prior float64, textChars []string, alphabet tokenize.Set, freq map[string]float64) float64 {
	return w.Prior*prior + w.Char*CombinedCharacter(textChars, alphabet, freq)*charDamping
}
