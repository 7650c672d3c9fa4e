// Package prune narrows the language universe to the candidates worth
// scoring for a given text, using the precomputed character index.
package prune

import (
	"sort"

	"github.com/MeKo-Tech/walang/internal/hint"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// DefaultCommonLanguages are moved to the front of every candidate list.
var DefaultCommonLanguages = []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ar", "hi", "ko"}

// Source provides the indices and the language universe.
type Source interface {
	CharIndex() (*resources.CharIndex, bool)
	ScriptIndex() (*resources.ScriptIndex, bool)
	Languages() []string
}

// Pruner derives candidate languages from text.
type Pruner struct {
	src    Source
	common []string
}

// New creates a Pruner. A nil common list uses DefaultCommonLanguages.
func New(src Source, common []string) *Pruner {
	if common == nil {
		common = DefaultCommonLanguages
	}
	return &Pruner{src: src, common: common}
}

// Universe returns every known language, or the common languages when the
// source knows none.
func (p *Pruner) Universe() []string {
	if langs := p.src.Languages(); len(langs) > 0 {
		return append([]string(nil), langs...)
	}
	return append([]string(nil), p.common...)
}

// Candidates returns the languages whose alphabet covers at least one
// character of text, ordered common languages first, then languages written
// in the dominant script of text, then the rest alphabetically. It falls
// back to the whole universe when the character index is absent or matches
// nothing, so the result is empty only if the universe is.
func (p *Pruner) Candidates(text string) []string {
	universe := p.Universe()
	selected := p.fromCharIndex(text)
	if len(selected) == 0 {
		selected = tokenize.NewSet(universe...)
	}
	return p.order(selected, text)
}

func (p *Pruner) fromCharIndex(text string) tokenize.Set {
	ci, ok := p.src.CharIndex()
	if !ok {
		return nil
	}
	chars := tokenize.CharSet(text)
	if len(chars) == 0 {
		return nil
	}

	var known tokenize.Set
	if langs := p.src.Languages(); len(langs) > 0 {
		known = tokenize.NewSet(langs...)
	}

	out := make(tokenize.Set)
	for _, c := range chars {
		for _, lang := range ci.Languages(c) {
			if known != nil && !known.Has(lang) {
				continue
			}
			if lang != "" {
				out[lang] = struct{}{}
			}
		}
	}
	return out
}

func (p *Pruner) order(selected tokenize.Set, text string) []string {
	out := make([]string, 0, len(selected))
	placed := make(tokenize.Set, len(selected))

	for _, lang := range p.common {
		if selected.Has(lang) && !placed.Has(lang) {
			out = append(out, lang)
			placed[lang] = struct{}{}
		}
	}

	if si, ok := p.src.ScriptIndex(); ok {
		if script, ok := hint.DominantScript(text); ok {
			var sameScript []string
			for _, alias := range hint.ScriptAliases(script) {
				for _, lang := range si.Languages(alias) {
					if selected.Has(lang) && !placed.Has(lang) {
						sameScript = append(sameScript, lang)
						placed[lang] = struct{}{}
					}
				}
			}
			sort.Strings(sameScript)
			out = append(out, sameScript...)
		}
	}

	var rest []string
	for lang := range selected {
		if !placed.Has(lang) {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Prioritize de-duplicates candidates and moves the common languages to the
// front, keeping the relative order of everything else.
func Prioritize(candidates, common []string) []string {
	commonSet := tokenize.NewSet(common...)
	seen := make(tokenize.Set, len(candidates))
	head := make([]string, 0, len(candidates))
	var tail []string
	for _, c := range candidates {
		if c == "" || seen.Has(c) {
			continue
		}
		seen[c] = struct{}{}
		if commonSet.Has(c) {
			head = append(head, c)
		} else {
			tail = append(tail, c)
		}
	}
	return append(head, tail...)
}
