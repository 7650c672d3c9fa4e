package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// Alphabet is the character metadata of one language.
type Alphabet struct {
	Alphabetical []string           `json:"alphabetical"`
	Uppercase    []string           `json:"uppercase"`
	Lowercase    []string           `json:"lowercase"`
	Frequency    map[string]float64 `json:"frequency"`
	Script       string             `json:"script,omitempty"`

	lower tokenize.Set
}

// LowercaseSet returns the normalized lowercase characters as a set.
func (a *Alphabet) LowercaseSet() tokenize.Set {
	if a.lower == nil {
		return tokenize.NewSet(a.Lowercase...)
	}
	return a.lower
}

// normalize brings lowercase entries and frequency keys into the same NFKC,
// case-folded form the tokenizer produces, so lookups line up with CharSet.
func (a *Alphabet) normalize() {
	lower := make([]string, 0, len(a.Lowercase))
	seen := make(map[string]struct{}, len(a.Lowercase))
	for _, c := range a.Lowercase {
		n := tokenize.Normalize(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		lower = append(lower, n)
	}
	a.Lowercase = lower

	if len(a.Frequency) > 0 {
		freq := make(map[string]float64, len(a.Frequency))
		for c, f := range a.Frequency {
			n := tokenize.Normalize(c)
			if n == "" {
				continue
			}
			freq[n] += f
		}
		a.Frequency = freq
	}
	a.lower = tokenize.NewSet(a.Lowercase...)
}

// ParseAlphabet decodes alphabet metadata from JSON.
func ParseAlphabet(data []byte) (*Alphabet, error) {
	var a Alphabet
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceMalformed, err)
	}
	for c, f := range a.Frequency {
		if f < 0 {
			return nil, fmt.Errorf("%w: negative frequency %v for %q", ErrResourceMalformed, f, c)
		}
	}
	a.normalize()
	return &a, nil
}

// ReadAlphabet loads the alphabet of code from root. It reads
// alphabets/<code>.json, falling back to the first script variant
// alphabets/<code>-<Script>.json in lexical order.
func ReadAlphabet(root, code string) (*Alphabet, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: invalid language code %q", ErrResourceMissing, code)
	}

	path := AlphabetPath(root, code)
	data, err := os.ReadFile(path) //nolint:gosec // path built from a validated code
	if errors.Is(err, fs.ErrNotExist) {
		variants := ScriptVariants(root, code)
		if len(variants) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrResourceMissing, path)
		}
		path = variants[0]
		data, err = os.ReadFile(path) //nolint:gosec // path from directory listing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alphabet %s: %w", path, err)
	}

	a, err := ParseAlphabet(data)
	if err != nil {
		return nil, fmt.Errorf("alphabet %s: %w", path, err)
	}
	return a, nil
}

// ScriptVariants returns the script-suffixed alphabet files of code, sorted.
func ScriptVariants(root, code string) []string {
	matches, err := filepath.Glob(filepath.Join(root, AlphabetsDir, code+"-*"+alphabetExt))
	if err != nil {
		return nil
	}
	out := matches[:0]
	for _, m := range matches {
		stem := filepath.Base(m)
		stem = stem[len(code)+1 : len(stem)-len(alphabetExt)]
		if isScriptSubtag(stem) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
