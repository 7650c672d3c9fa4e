package resources

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

var (
	baseByNameOnce sync.Once
	baseByName     map[string]rune
)

// lookupRuneByName resolves a Unicode character name within the BMP.
func lookupRuneByName(name string) (rune, bool) {
	baseByNameOnce.Do(func() {
		baseByName = make(map[string]rune, 1024)
		for r := rune(0); r <= 0xFFFF; r++ {
			if !unicode.IsLetter(r) {
				continue
			}
			if n := runenames.Name(r); n != "" && !strings.Contains(n, " WITH ") {
				if _, exists := baseByName[n]; !exists {
					baseByName[n] = r
				}
			}
		}
	})
	r, ok := baseByName[name]
	return r, ok
}

// stripRune returns the base form of r. Canonical decomposition handles most
// accented letters; letters without a decomposition ("ø", "ł", "đ") fall back
// to the name of their base character.
func stripRune(r rune) string {
	decomposed := norm.NFD.String(string(r))
	var b strings.Builder
	for _, c := range decomposed {
		if unicode.Is(unicode.Mn, c) {
			continue
		}
		b.WriteRune(c)
	}
	base := b.String()
	if base != string(r) {
		return base
	}

	name := runenames.Name(r)
	idx := strings.Index(name, " WITH ")
	if idx <= 0 {
		return base
	}
	if br, ok := lookupRuneByName(name[:idx]); ok {
		return string(br)
	}
	return base
}

// StripDiacritics returns text with diacritic marks removed.
func StripDiacritics(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteString(stripRune(r))
	}
	return b.String()
}

// HasDiacritics reports whether s carries any diacritic mark.
func HasDiacritics(s string) bool {
	return s != StripDiacritics(s)
}

// CharactersWithDiacritics returns the entries of chars that carry diacritics,
// in input order.
func CharactersWithDiacritics(chars []string) []string {
	var out []string
	for _, c := range chars {
		if HasDiacritics(c) {
			out = append(out, c)
		}
	}
	return out
}

// DiacriticVariants groups chars by base form and returns only the groups
// with more than one member, each sorted.
func DiacriticVariants(chars []string) map[string][]string {
	groups := make(map[string]map[string]struct{})
	for _, c := range chars {
		base := StripDiacritics(c)
		if groups[base] == nil {
			groups[base] = make(map[string]struct{})
		}
		groups[base][c] = struct{}{}
	}

	out := make(map[string][]string)
	for base, members := range groups {
		if len(members) < 2 {
			continue
		}
		list := make([]string, 0, len(members))
		for m := range members {
			list = append(list, m)
		}
		sort.Strings(list)
		out[base] = list
	}
	return out
}
