// Package hint derives cheap, text-only signals that guide the detector
// without contributing evidence of their own: the dominant script of a text
// (used to order candidates) and optional automatic priors from a
// general-purpose trigram detector.
package hint

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// ISO 15924 codes for the scripts whatlanggo can report.
var scriptCodes = map[*unicode.RangeTable]string{
	unicode.Latin:      "Latn",
	unicode.Cyrillic:   "Cyrl",
	unicode.Arabic:     "Arab",
	unicode.Devanagari: "Deva",
	unicode.Hiragana:   "Hira",
	unicode.Katakana:   "Kana",
	unicode.Ethiopic:   "Ethi",
	unicode.Hebrew:     "Hebr",
	unicode.Bengali:    "Beng",
	unicode.Georgian:   "Geor",
	unicode.Han:        "Hani",
	unicode.Hangul:     "Hang",
	unicode.Greek:      "Grek",
	unicode.Kannada:    "Knda",
	unicode.Tamil:      "Taml",
	unicode.Thai:       "Thai",
	unicode.Gujarati:   "Gujr",
	unicode.Gurmukhi:   "Guru",
	unicode.Telugu:     "Telu",
	unicode.Malayalam:  "Mlym",
	unicode.Oriya:      "Orya",
	unicode.Myanmar:    "Mymr",
	unicode.Sinhala:    "Sinh",
	unicode.Khmer:      "Khmr",
}

// Script tags that resource indices commonly use for the same writing system.
var scriptAliases = map[string][]string{
	"Hani": {"Hani", "Hans", "Hant", "Jpan", "Kore"},
	"Hira": {"Hira", "Jpan"},
	"Kana": {"Kana", "Jpan"},
	"Hang": {"Hang", "Kore"},
}

// DominantScript returns the ISO 15924 code of the script most of text is
// written in.
func DominantScript(text string) (string, bool) {
	rt := whatlanggo.DetectScript(text)
	if rt == nil {
		return "", false
	}
	code, ok := scriptCodes[rt]
	return code, ok
}

// ScriptAliases returns the script tags that denote script in resource
// indices, including script itself.
func ScriptAliases(script string) []string {
	if aliases, ok := scriptAliases[script]; ok {
		return aliases
	}
	if script == "" {
		return nil
	}
	return []string{script}
}

// Guess is the best single-language guess of the trigram detector.
type Guess struct {
	Language   string  `json:"language"`
	Script     string  `json:"script,omitempty"`
	Confidence float64 `json:"confidence"`
}

// GuessLanguage runs the trigram detector on text.
func GuessLanguage(text string) (Guess, bool) {
	info := whatlanggo.Detect(text)
	if info.Confidence <= 0 {
		return Guess{}, false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	if code == "" {
		return Guess{}, false
	}
	return Guess{
		Language:   code,
		Script:     scriptCodes[info.Script],
		Confidence: info.Confidence,
	}, true
}

// AutoPriors returns a prior of scale*confidence for every candidate whose
// base language matches the trigram guess. The result is nil when there is no
// confident guess or no candidate matches.
func AutoPriors(text string, candidates []string, scale float64) map[string]float64 {
	if scale <= 0 || len(candidates) == 0 {
		return nil
	}
	g, ok := GuessLanguage(text)
	if !ok {
		return nil
	}

	var priors map[string]float64
	for _, c := range candidates {
		if BaseLanguage(c) != g.Language {
			continue
		}
		if priors == nil {
			priors = make(map[string]float64)
		}
		priors[c] = scale * g.Confidence
	}
	return priors
}

// BaseLanguage returns the two or three letter base subtag of a BCP 47 code,
// or code itself when it does not parse.
func BaseLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, conf := tag.Base()
	if conf == language.No {
		return code
	}
	return base.String()
}
