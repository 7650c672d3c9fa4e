// Package tokenize turns raw text into the normalized units the detector scores:
// word tokens, character bigrams and character sets.
//
// All functions canonicalize with NFKC and lower-case the result before
// extracting anything, so "CAFÉ", "café" and "cafe\u0301" produce identical
// output. Only Unicode letters (category L) take part; digits, punctuation,
// symbols and combining marks that did not compose are dropped.
//
// Every function returns unique items in first-occurrence order. Empty input
// yields an empty (nil) slice, never an error.
package tokenize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC canonicalization followed by case folding to lower case.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// cases.Caser keeps internal state, so a fresh one per call keeps Normalize
	// safe for concurrent use.
	return cases.Lower(language.Und).String(norm.NFKC.String(text))
}

// WordTokens returns the unique maximal runs of letters in text.
func WordTokens(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var (
		out  []string
		seen = make(map[string]struct{})
		b    strings.Builder
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, r := range normalized {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// BigramTokens returns the unique adjacent letter pairs of text. Non-letters
// are removed before pairing, so "a b" yields "ab".
func BigramTokens(text string) []string {
	letters := letterRunes(Normalize(text))
	if len(letters) < 2 {
		return nil
	}

	out := make([]string, 0, len(letters)-1)
	seen := make(map[string]struct{}, len(letters)-1)
	for i := 0; i+1 < len(letters); i++ {
		pair := string(letters[i : i+2])
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out
}

// CharSet returns the unique letters of text, each as a one-rune string.
func CharSet(text string) []string {
	letters := letterRunes(Normalize(text))
	if len(letters) == 0 {
		return nil
	}

	out := make([]string, 0, len(letters))
	seen := make(map[rune]struct{}, len(letters))
	for _, r := range letters {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, string(r))
	}
	return out
}

func letterRunes(normalized string) []rune {
	if normalized == "" {
		return nil
	}
	letters := make([]rune, 0, len(normalized))
	for _, r := range normalized {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	return letters
}

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// NewSet builds a Set from items, ignoring empty strings.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int { return len(s) }

// Sorted returns the items in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
